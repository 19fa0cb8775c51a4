package llm

import (
	"context"
)

// Provider is the interface for all LLM providers. The pipeline treats the
// model as a black-box text-in/text-out collaborator; nothing in the reply is
// schema-enforced, so every caller parses defensively.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats.
	AdaptInstructions(rawInstructions string) string
}
