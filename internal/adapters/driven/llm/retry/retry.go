// Package retry wraps an LLM service with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/behole/scribble/internal/adapters/driven/llm"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default policy values.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 2 * time.Second
)

// Policy configures retries.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// BaseDelay is the wait before the second try. It doubles after each
	// failure.
	BaseDelay time.Duration
}

// LLMService retries transient failures of the wrapped service.
// Permanent API errors (4xx other than 408 and 429) and context
// cancellation are returned immediately.
type LLMService struct {
	next   driven.LLMService
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

// Wrap returns next with retries. Zero policy fields use the defaults.
func Wrap(next driven.LLMService, policy Policy) *LLMService {
	if policy.Attempts < 1 {
		policy.Attempts = DefaultAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	return &LLMService{next: next, policy: policy, sleep: sleepContext}
}

// Complete retries next.Complete.
func (s *LLMService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	return s.do(ctx, "complete", func() (string, error) {
		return s.next.Complete(ctx, req)
	})
}

// CompleteWithImage retries next.CompleteWithImage.
func (s *LLMService) CompleteWithImage(ctx context.Context, imagePath, prompt string) (string, error) {
	return s.do(ctx, "complete_with_image", func() (string, error) {
		return s.next.CompleteWithImage(ctx, imagePath, prompt)
	})
}

func (s *LLMService) do(ctx context.Context, op string, call func() (string, error)) (string, error) {
	delay := s.policy.BaseDelay
	var err error
	for attempt := 1; attempt <= s.policy.Attempts; attempt++ {
		var out string
		out, err = call()
		if err == nil {
			return out, nil
		}
		if llm.IsPermanent(err) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return "", err
		}
		if attempt == s.policy.Attempts {
			break
		}
		logger.Warn("llm: %s attempt %d/%d failed: %v; retrying in %s", op, attempt, s.policy.Attempts, err, delay)
		if serr := s.sleep(ctx, delay); serr != nil {
			return "", serr
		}
		delay *= 2
	}
	return "", err
}

// ModelName returns the wrapped model name.
func (s *LLMService) ModelName() string {
	return s.next.ModelName()
}

// Ping is not retried.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *LLMService) Close() error {
	return s.next.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
