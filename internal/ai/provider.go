package ai

import (
	"context"
	"fmt"
)

// Provider is a chat completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// NewProvider builds the configured provider. Every provider except
// "google" speaks the OpenAI chat-completions protocol.
func NewProvider(ctx context.Context, name, apiKey, model, baseURL string) (Provider, error) {
	switch name {
	case "google":
		return NewGoogleClient(ctx, apiKey, model)
	case "openai", "groq", "deepseek", "openrouter", "local":
		return NewOpenAIClient(name, apiKey, model, baseURL), nil
	case "":
		return nil, fmt.Errorf("no AI provider configured")
	default:
		return nil, fmt.Errorf("unknown AI provider %q", name)
	}
}
