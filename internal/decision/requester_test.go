package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-agent/internal/llm"
	"github.com/i474232898/weather-agent/internal/weather"
)

// scriptedClient replays canned replies in order and records every request.
type scriptedClient struct {
	replies []string
	err     error
	calls   []llm.Request
}

func (c *scriptedClient) Complete(_ context.Context, req llm.Request) (string, error) {
	c.calls = append(c.calls, req)
	if c.err != nil {
		return "", c.err
	}
	if len(c.calls) > len(c.replies) {
		return "", errors.New("unexpected extra completion call")
	}
	return c.replies[len(c.calls)-1], nil
}

func rainyObservation() weather.Observation {
	code := 61
	return weather.Observation{Date: "2024-01-01", WeatherCode: &code, PrecipitationSumMM: 2.5, Source: "open-meteo"}
}

func TestDecide_ValidFirstReply(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"umbrella":true,"outfit_hint":"rain jacket","reason":"rain expected"}`}}
	r := NewRequester(client, 0.2, true, nil)

	d, err := r.Decide(context.Background(), rainyObservation())
	require.NoError(t, err)

	assert.Equal(t, Decision{Umbrella: true, OutfitHint: "rain jacket", Reason: "rain expected"}, d)
	require.Len(t, client.calls, 1)

	req := client.calls[0]
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "STRICT JSON")
	assert.Contains(t, req.Messages[0].Content, Schema())
	assert.Equal(t, llm.RoleUser, req.Messages[1].Role)
	assert.Contains(t, req.Messages[1].Content, `{"date":"2024-01-01","weathercode":61,"precipitation_sum_mm":2.5,"source":"open-meteo"}`)
	assert.Contains(t, req.Messages[1].Content, ">=51 and <=77, or >=80")
}

func TestDecide_RepairsMalformedReplyOnce(t *testing.T) {
	malformed := `{"umbrella": true, "reason": "rain expected",}`
	client := &scriptedClient{replies: []string{
		malformed,
		`{"umbrella": true, "reason": "rain expected"}`,
	}}
	r := NewRequester(client, 0.2, true, nil)

	d, err := r.Decide(context.Background(), rainyObservation())
	require.NoError(t, err)
	assert.Equal(t, Decision{Umbrella: true, Reason: "rain expected"}, d)

	require.Len(t, client.calls, 2)
	repair := client.calls[1]
	assert.Equal(t, repairSystemPrompt, repair.Messages[0].Content)
	assert.Equal(t, malformed, repair.Messages[1].Content)
}

func TestDecide_FailsWhenRepairAlsoMalformed(t *testing.T) {
	client := &scriptedClient{replies: []string{"Sure! Here is JSON:", "still not json"}}
	r := NewRequester(client, 0.2, true, nil)

	d, err := r.Decide(context.Background(), rainyObservation())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaParse))
	assert.Equal(t, Decision{}, d)
	assert.Len(t, client.calls, 2, "only one repair attempt is allowed")

	var pf *ParseFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, "still not json", pf.Raw)
}

func TestDecide_SchemaViolationGoesThroughRepair(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"umbrella": "yes"}`,
		`{"umbrella": true, "reason": "showers"}`,
	}}
	r := NewRequester(client, 0.2, true, nil)

	d, err := r.Decide(context.Background(), rainyObservation())
	require.NoError(t, err)
	assert.True(t, d.Umbrella)
	assert.Len(t, client.calls, 2)
}

func TestDecide_WithoutValidationOnlySyntaxMatters(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"umbrella": true}`}}
	r := NewRequester(client, 0.2, false, nil)

	d, err := r.Decide(context.Background(), rainyObservation())
	require.NoError(t, err)
	assert.True(t, d.Umbrella)
	assert.Empty(t, d.Reason)
	assert.Len(t, client.calls, 1)
}

func TestDecide_DefaultAcceptsRepairWithoutReason(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"umbrella": true,}`,
		`{"umbrella": true, "outfit_hint": "rain jacket"}`,
	}}
	r := NewRequester(client, 0.2, DefaultValidate, nil)

	d, err := r.Decide(context.Background(), rainyObservation())
	require.NoError(t, err)
	assert.Equal(t, Decision{Umbrella: true, OutfitHint: "rain jacket"}, d)
	assert.Len(t, client.calls, 2)
}

func TestDecide_DefaultAcceptsValidJSONWithoutRepair(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"umbrella": true}`}}
	r := NewRequester(client, 0.2, DefaultValidate, nil)

	d, err := r.Decide(context.Background(), rainyObservation())
	require.NoError(t, err)
	assert.True(t, d.Umbrella)
	assert.Len(t, client.calls, 1, "valid JSON needs no repair")
}

func TestDecide_TransportErrorIsNotRepaired(t *testing.T) {
	client := &scriptedClient{err: llm.ErrCompletion}
	r := NewRequester(client, 0.2, true, nil)

	_, err := r.Decide(context.Background(), rainyObservation())
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrCompletion)
	assert.False(t, errors.Is(err, ErrSchemaParse))
	assert.Len(t, client.calls, 1)
}

func TestUserPrompt_NullWeatherCode(t *testing.T) {
	p, err := userPrompt(weather.Observation{Date: "2024-01-01", Source: "open-meteo"})
	require.NoError(t, err)
	assert.Contains(t, p, `"weathercode":null`)
}
