// Package summary renders the latest memory record as a short note for the
// user.
package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/i474232898/weather-agent/internal/llm"
	"github.com/i474232898/weather-agent/internal/store"
)

const systemPrompt = "You are a helpful assistant. Be concise and practical."

type Summarizer struct {
	client      llm.Client
	temperature float64
}

func NewSummarizer(client llm.Client, temperature float64) *Summarizer {
	return &Summarizer{client: client, temperature: temperature}
}

// Summarize asks the model for an actionable blurb of under 60 words about
// rec. The reply is returned as is.
func (s *Summarizer) Summarize(ctx context.Context, rec store.Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	user := "Summarize today's plan for the user based on this memory. " +
		"Keep it under 60 words and concrete:\n" + strings.TrimSpace(buf.String())

	out, err := llm.Ask(ctx, s.client, systemPrompt, user, s.temperature)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}
