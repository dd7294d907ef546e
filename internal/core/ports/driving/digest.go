package driving

import (
	"context"
	"time"

	"github.com/behole/scribble/internal/core/domain"
)

// DigestCompiler builds reports from stored content.
//
// Every method persists the digest and writes its artifacts. Missing
// underlying content returns domain.ErrNothingToReport. LLM failures
// degrade to placeholders and never fail a digest.
type DigestCompiler interface {
	// Weekly reports on the seven days before end.
	Weekly(ctx context.Context, end time.Time) (*domain.DigestResult, error)

	// Monthly reports on a calendar month.
	Monthly(ctx context.Context, year int, month time.Month) (*domain.DigestResult, error)

	// TaskList lists active and completed tasks.
	TaskList(ctx context.Context) (*domain.DigestResult, error)

	// Topic reports on one tag, or the most used tag when tag is empty.
	Topic(ctx context.Context, tag string) (*domain.DigestResult, error)

	// SuggestedReading recommends resources for the last 30 days of topics.
	SuggestedReading(ctx context.Context) (*domain.DigestResult, error)

	// Full concatenates all weekly digests with a table of contents.
	Full(ctx context.Context) (*domain.DigestResult, error)

	// Generate dispatches on kind with defaults for missing options.
	Generate(ctx context.Context, kind domain.DigestKind, opts domain.DigestOptions) (*domain.DigestResult, error)
}
