// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/behole/scribble/internal/core/domain"
)

// LLMService provides language model operations for enrichment and digests.
// This is an optional service - when nil, features degrade gracefully to
// heuristic extraction and textual placeholders.
//
// Implementations may include:
//   - Anthropic (Claude)
//   - OpenAI (GPT-4o)
//   - Ollama (local models)
type LLMService interface {
	// Complete produces a text completion.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// CompleteWithImage sends an image file with a prompt to a vision model.
	CompleteWithImage(ctx context.Context, imagePath, prompt string) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest configures a single completion.
type CompletionRequest struct {
	// System is the system prompt. May be empty.
	System string

	// Prompt is the user message.
	Prompt string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// AIConfigValidator checks that an LLM configuration can reach its provider.
type AIConfigValidator interface {
	// ValidateLLM pings the configured provider. Unconfigured settings
	// are valid.
	ValidateLLM(config *domain.LLMSettings) error
}
