// Package llm talks to chat-completion style language model APIs.
package llm

import (
	"context"
	"errors"
)

// ErrCompletion marks transport and HTTP failures from the model API.
var ErrCompletion = errors.New("llm completion failed")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat completion call.
type Request struct {
	Messages    []Message
	Temperature float64
}

// Client returns the generated text for a request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Ask sends a system and a user message and returns the reply.
func Ask(ctx context.Context, c Client, system, user string, temperature float64) (string, error) {
	return c.Complete(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
		Temperature: temperature,
	})
}
