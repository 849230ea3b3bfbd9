package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleClient talks to the Gemini API.
type GoogleClient struct {
	model  string
	client *genai.Client
}

// NewGoogleClient creates a Gemini client. An empty API key falls back to
// the SDK's environment lookup.
func NewGoogleClient(ctx context.Context, apiKey, model string) (*GoogleClient, error) {
	var cfg *genai.ClientConfig
	if apiKey != "" {
		cfg = &genai.ClientConfig{APIKey: apiKey}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GoogleClient{model: model, client: client}, nil
}

// Name implements Provider.
func (c *GoogleClient) Name() string { return "google" }

// Complete implements Provider.
func (c *GoogleClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	chat, err := c.client.Chats.Create(ctx, c.model, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to start chat: %w", err)
	}

	resp, err := chat.Send(ctx, &genai.Part{Text: userMessage})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from %s", c.model)
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}
