package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider calls an OpenAI compatible Chat Completions API.
type OpenAIProvider struct {
	apiKey      string
	model       string
	baseURL     string
	client      *http.Client
	circuit     *gobreaker.CircuitBreaker
	marshalFunc func(v interface{}) ([]byte, error) // for testing
}

// NewOpenAIProvider returns a chat client for model. An empty baseURL means
// the public OpenAI endpoint.
func NewOpenAIProvider(apiKey, model, baseURL string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openai",
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		marshalFunc: json.Marshal,
	}
}

func (p *OpenAIProvider) Model() string { return p.model }

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Client. The reply text is trimmed of surrounding
// whitespace.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body := openAIRequest{
		Model:       p.model,
		Messages:    make([]openAIMessage, len(req.Messages)),
		Temperature: req.Temperature,
	}
	for i, m := range req.Messages {
		body.Messages[i] = openAIMessage{Role: string(m.Role), Content: m.Content}
	}

	raw, err := p.marshalFunc(body)
	if err != nil {
		return "", fmt.Errorf("openai marshal: %w", err)
	}

	result, err := p.circuit.Execute(func() (interface{}, error) {
		return p.do(ctx, raw)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: openai: circuit open: %v", ErrCompletion, err)
		}
		return "", err
	}

	out := result.(*openAIResponse)
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: openai: no choices in response", ErrCompletion)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) do(ctx context.Context, raw []byte) (*openAIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: openai do: %v", ErrCompletion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, fmt.Errorf("%w: openai api: %s", ErrCompletion, parseProviderError(resp.StatusCode, b))
	}

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: openai decode: %v", ErrCompletion, err)
	}
	return &out, nil
}

// parseProviderError extracts a human-readable error from an API error body.
func parseProviderError(statusCode int, body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		msg := errResp.Error.Message
		if msg == "" {
			msg = errResp.Message
		}
		if msg != "" {
			return fmt.Sprintf("HTTP %d: %s", statusCode, msg)
		}
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return "HTTP 401: authentication failed, check OPENAI_API_KEY"
	case http.StatusTooManyRequests:
		return "HTTP 429: rate limited"
	}

	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, s)
}

var _ Client = (*OpenAIProvider)(nil)
