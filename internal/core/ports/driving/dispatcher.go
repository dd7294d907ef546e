package driving

import (
	"context"

	"github.com/behole/scribble/internal/core/domain"
)

// Dispatcher ingests files: extract, enrich, store.
// It never returns an error; failures are reported in the outcome so a
// loop over many files survives any single bad file.
type Dispatcher interface {
	// Dispatch processes one file.
	Dispatch(ctx context.Context, path string) domain.ProcessingOutcome

	// DispatchAll processes files one at a time in the given order.
	DispatchAll(ctx context.Context, paths []string) []domain.ProcessingOutcome
}

// BacklogService enriches stored content that has no processed text yet.
type BacklogService interface {
	// Reprocess enriches up to limit records, spacing LLM calls.
	Reprocess(ctx context.Context, limit int) (*BacklogReport, error)
}

// BacklogReport summarises a backlog run.
type BacklogReport struct {
	// Considered is the number of records pulled from the store.
	Considered int

	// Processed is the number of records given processed text.
	Processed int

	// Failed is the number of records whose enrichment or write failed.
	Failed int
}
