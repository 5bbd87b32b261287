package summary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-agent/internal/action"
	"github.com/i474232898/weather-agent/internal/decision"
	"github.com/i474232898/weather-agent/internal/llm"
	"github.com/i474232898/weather-agent/internal/store"
	"github.com/i474232898/weather-agent/internal/weather"
)

type recordingClient struct {
	reply string
	err   error
	reqs  []llm.Request
}

func (c *recordingClient) Complete(_ context.Context, req llm.Request) (string, error) {
	c.reqs = append(c.reqs, req)
	return c.reply, c.err
}

func TestSummarize(t *testing.T) {
	client := &recordingClient{reply: "Rain today: carry an umbrella & wear a rain jacket."}
	s := NewSummarizer(client, 0.2)

	code := 61
	rec := store.Record{
		ID:          "r1",
		Timestamp:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Observation: weather.Observation{Date: "2024-01-01", WeatherCode: &code, PrecipitationSumMM: 2.5, Source: "open-meteo"},
		Decision:    decision.Decision{Umbrella: true, OutfitHint: "rain jacket", Reason: "rain expected"},
		Actions:     action.Result{Actions: []string{action.UmbrellaReminder}},
	}

	out, err := s.Summarize(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, client.reply, out)

	require.Len(t, client.reqs, 1)
	req := client.reqs[0]
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	assert.Equal(t, systemPrompt, req.Messages[0].Content)
	assert.Contains(t, req.Messages[1].Content, "under 60 words")
	assert.Contains(t, req.Messages[1].Content, `"outfit_hint":"rain jacket"`)
	assert.Contains(t, req.Messages[1].Content, `"actions":{"actions":["notify_user:Carry umbrella"]}`)
}

func TestSummarize_Error(t *testing.T) {
	s := NewSummarizer(&recordingClient{err: llm.ErrCompletion}, 0.2)
	_, err := s.Summarize(context.Background(), store.Record{})
	assert.ErrorIs(t, err, llm.ErrCompletion)
}
