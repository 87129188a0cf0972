package llm

import (
	"context"
	"errors"
)

// Client abstracts LLM providers that review a stored resume.
type Client interface {
	Feedback(ctx context.Context, resumePath string, instructions string) (*Response, error)
}

// Response is the provider reply. Only Message.Content is consumed downstream.
type Response struct {
	Message Message `json:"message"`
	Model   string  `json:"model,omitempty"`
	Usage   *Usage  `json:"usage,omitempty"`
}

// Message is a single assistant message.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient is used when LLM_PROVIDER=none.
type PlaceholderClient struct{}

// Feedback returns ErrNotConfigured.
func (PlaceholderClient) Feedback(ctx context.Context, resumePath string, instructions string) (*Response, error) {
	_ = ctx
	_ = resumePath
	_ = instructions
	return nil, ErrNotConfigured
}
