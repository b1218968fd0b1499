// src/llm/llm.go
package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ErrUnavailable is returned when the completion backend cannot be reached
// or refuses the request. Callers must treat it as "assistant unavailable"
// and fall back to deterministic output.
var ErrUnavailable = errors.New("assistant unavailable")

// Completer is the single capability the analysis pipeline needs from a
// language model. Business logic depends only on this interface so tests can
// substitute a deterministic implementation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiCompleter implements Completer against the Gemini API. Credentials
// are resolved by the genai client from the environment.
type GeminiCompleter struct {
	model string
}

// NewGeminiCompleter creates a Completer for the given Gemini model name.
func NewGeminiCompleter(model string) *GeminiCompleter {
	return &GeminiCompleter{model: model}
}

// Complete sends one text prompt and returns the model's text response.
// Any client or transport failure is wrapped as ErrUnavailable.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("%w: create genai client: %v", ErrUnavailable, err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", ErrUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", ErrUnavailable)
	}
	return text, nil
}
