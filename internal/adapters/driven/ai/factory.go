// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/behole/scribble/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/behole/scribble/internal/adapters/driven/llm/ollama"
	openaillm "github.com/behole/scribble/internal/adapters/driven/llm/openai"
	"github.com/behole/scribble/internal/adapters/driven/llm/retry"
	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Options tunes the services built by NewLLMService.
type Options struct {
	// VisionSystem is the system prompt for image requests.
	VisionSystem string

	// Retry is the backoff policy. Zero values use the retry defaults.
	Retry retry.Policy
}

// NewLLMService builds the configured LLM wrapped with retries.
// It returns nil without error when no provider is configured, which
// switches the pipeline to heuristic-only mode.
func NewLLMService(settings domain.LLMSettings, opts Options) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		logger.Warn("%v: no LLM credential for provider %q; using heuristic extraction only",
			domain.ErrConfiguration, settings.Provider)
		return nil, nil
	}

	svc, err := CreateLLMService(&settings, opts.VisionSystem)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return retry.Wrap(svc, opts.Retry), nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
// This is intended for use by `scribble config set-key` to validate credentials.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings, "")
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings, visionSystem string) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:      settings.BaseURL,
			Model:        settings.Model,
			VisionSystem: visionSystem,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:       settings.APIKey,
			BaseURL:      settings.BaseURL,
			Model:        settings.Model,
			VisionSystem: visionSystem,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:       settings.APIKey,
			BaseURL:      settings.BaseURL,
			Model:        settings.Model,
			VisionSystem: visionSystem,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
