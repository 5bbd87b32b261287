package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/i474232898/weather-agent/internal/llm"
	"github.com/i474232898/weather-agent/internal/weather"
)

// ErrSchemaParse is returned when the model output cannot be parsed even
// after the repair round-trip.
var ErrSchemaParse = errors.New("decision output unparseable")

const repairSystemPrompt = "Fix the following into STRICT valid JSON only. No comments, no extra text."

// Requester asks the model for a Decision about an observation.
type Requester struct {
	client      llm.Client
	temperature float64
	validate    bool
	logger      *slog.Logger
}

// NewRequester builds a Requester. When validate is false only JSON syntax
// is checked, the schema stays advisory to the model.
func NewRequester(client llm.Client, temperature float64, validate bool, logger *slog.Logger) *Requester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Requester{
		client:      client,
		temperature: temperature,
		validate:    validate,
		logger:      logger,
	}
}

// Decide requests a decision. Unparseable output gets exactly one repair
// request; if that also fails the error wraps ErrSchemaParse.
func (r *Requester) Decide(ctx context.Context, obs weather.Observation) (Decision, error) {
	user, err := userPrompt(obs)
	if err != nil {
		return Decision{}, err
	}

	raw, err := llm.Ask(ctx, r.client, systemPrompt(), user, r.temperature)
	if err != nil {
		return Decision{}, fmt.Errorf("request decision: %w", err)
	}

	out := Parse(raw, r.validate)
	if out.OK() {
		return out.Decision, nil
	}

	r.logger.Warn("decision output unparseable, requesting repair", "err", out.Failure.Err)

	fixed, err := llm.Ask(ctx, r.client, repairSystemPrompt, raw, r.temperature)
	if err != nil {
		return Decision{}, fmt.Errorf("repair decision: %w", err)
	}

	repaired := Parse(fixed, r.validate)
	if !repaired.OK() {
		return Decision{}, fmt.Errorf("%w: %w", ErrSchemaParse, repaired.Failure)
	}
	return repaired.Decision, nil
}

func systemPrompt() string {
	return "You are a concise weather decision agent. " +
		"You MUST return STRICT JSON that validates against this JSON Schema: " +
		Schema() + ". No prose."
}

func userPrompt(obs weather.Observation) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obs); err != nil {
		return "", fmt.Errorf("encode observation: %w", err)
	}

	var b strings.Builder
	b.WriteString("Given today's observation, make a decision:\n")
	b.WriteString(strings.TrimSpace(buf.String()))
	b.WriteString("\n\nGuidelines:\n")
	b.WriteString("- umbrella: true if precipitation_sum_mm > 0 or rainy/storm codes (>=51 and <=77, or >=80).\n")
	b.WriteString("- outfit_hint: short practical suggestion (e.g., 'light rain jacket').\n")
	b.WriteString("- activity: optional single suggestion (e.g., 'indoor gym').\n")
	b.WriteString("- reason: one sentence.\n")
	b.WriteString("Return ONLY JSON.")
	return b.String(), nil
}
