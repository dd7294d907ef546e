package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/ports/driving"
	"github.com/behole/scribble/internal/logger"
)

// Ensure BacklogService implements the interface.
var _ driving.BacklogService = (*BacklogService)(nil)

// defaultBacklogLimit applies when Reprocess is called with limit <= 0.
const defaultBacklogLimit = 50

// BacklogService enriches content stored before an LLM was configured.
type BacklogService struct {
	store    driven.ContentStore
	enricher *EnrichmentService
	limiter  *rate.Limiter
}

// NewBacklogService creates a backlog service. delay spaces successive
// records; zero disables spacing.
func NewBacklogService(store driven.ContentStore, enricher *EnrichmentService, delay time.Duration) *BacklogService {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &BacklogService{
		store:    store,
		enricher: enricher,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Reprocess fills in processed text for up to limit records, oldest first.
// Tags and tasks found by the LLM are added alongside the existing ones.
func (s *BacklogService) Reprocess(ctx context.Context, limit int) (*driving.BacklogReport, error) {
	if !s.enricher.Enabled() {
		return nil, fmt.Errorf("%w: backlog processing needs an LLM", domain.ErrLLMUnavailable)
	}
	if limit <= 0 {
		limit = defaultBacklogLimit
	}

	records, err := s.store.UnprocessedContent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed content: %w", err)
	}

	report := &driving.BacklogReport{Considered: len(records)}
	if len(records) == 0 {
		logger.Info("backlog: nothing to reprocess")
		return report, nil
	}
	logger.Section("Backlog")
	logger.Info("backlog: reprocessing %d records", len(records))

	for _, rec := range records {
		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}
		if err := s.reprocess(ctx, rec); err != nil {
			report.Failed++
			logger.Warn("backlog: %s (%s): %v", rec.ID, rec.Filename(), err)
			continue
		}
		report.Processed++
	}

	logger.Info("backlog: processed %d, failed %d", report.Processed, report.Failed)
	return report, nil
}

func (s *BacklogService) reprocess(ctx context.Context, rec domain.ContentView) error {
	ext := domain.NewExtraction()
	ext.RawText = rec.RawText
	ext.Tags = rec.Tags
	ext.PossiblyHandwritten = rec.FileKind.IsVisual()

	enrichment := s.enricher.Enrich(ctx, rec.Kind, ext)
	if enrichment.ProcessedText == "" {
		return fmt.Errorf("%w: no processed text returned", domain.ErrEnrichment)
	}

	if err := s.store.UpdateProcessedText(ctx, rec.ID, enrichment.ProcessedText); err != nil {
		return err
	}
	if len(enrichment.Tags) > 0 {
		if err := s.store.AddTags(ctx, rec.ID, enrichment.Tags); err != nil {
			return err
		}
	}

	if len(enrichment.Tasks) == 0 {
		return nil
	}
	existing, err := s.existingTasks(ctx, rec.ID)
	if err != nil {
		return err
	}
	for _, task := range enrichment.Tasks {
		if existing[task] {
			continue
		}
		if _, err := s.store.AddTask(ctx, rec.ID, task, nil); err != nil {
			return err
		}
		existing[task] = true
	}
	return nil
}

func (s *BacklogService) existingTasks(ctx context.Context, contentID string) (map[string]bool, error) {
	tasks, err := s.store.Tasks(ctx, domain.TaskFilter{IncludeCompleted: true})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, t := range tasks {
		if t.ContentID == contentID {
			seen[t.Text] = true
		}
	}
	return seen, nil
}
