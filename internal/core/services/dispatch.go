package services

import (
	"context"
	"crypto/md5" //nolint:gosec // content identity, not security
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/ports/driving"
	"github.com/behole/scribble/internal/logger"
	"github.com/behole/scribble/internal/metrics"
)

// Ensure DispatchService implements the interface.
var _ driving.Dispatcher = (*DispatchService)(nil)

// sniffLen is how much of a file is read to refine an ambiguous kind.
const sniffLen = 512

// DispatchService ingests one file at a time: hash, extract, enrich, store.
type DispatchService struct {
	extractors driven.ExtractorRegistry
	enricher   *EnrichmentService
	store      driven.ContentStore
}

// NewDispatchService creates a dispatcher.
func NewDispatchService(
	extractors driven.ExtractorRegistry,
	enricher *EnrichmentService,
	store driven.ContentStore,
) *DispatchService {
	return &DispatchService{
		extractors: extractors,
		enricher:   enricher,
		store:      store,
	}
}

// DispatchAll processes paths sequentially in the given order. Once ctx
// is cancelled the remaining paths are reported as failed.
func (s *DispatchService) DispatchAll(ctx context.Context, paths []string) []domain.ProcessingOutcome {
	outcomes := make([]domain.ProcessingOutcome, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, domain.ProcessingOutcome{
				Path:   path,
				Kind:   domain.DetectKind(path),
				Status: domain.OutcomeFailed,
				Note:   "cancelled",
				Err:    err,
			})
			continue
		}
		outcomes = append(outcomes, s.Dispatch(ctx, path))
	}
	return outcomes
}

// Dispatch processes one file. It never panics and never returns an error:
// the outcome says what happened.
func (s *DispatchService) Dispatch(ctx context.Context, path string) domain.ProcessingOutcome {
	start := time.Now()
	outcome := s.dispatch(ctx, path)

	metrics.RecordFile(string(outcome.Kind), string(outcome.Status))
	metrics.ObservePipeline(string(outcome.Kind), time.Since(start))

	fields := logger.Fields{
		"path":   path,
		"kind":   outcome.Kind,
		"status": outcome.Status,
	}
	switch outcome.Status {
	case domain.OutcomeFailed:
		logger.WithFields(fields).Warnf("dispatch failed: %s", outcome.Note)
	case domain.OutcomeDegraded:
		logger.WithFields(fields).Warnf("dispatch degraded: %s", outcome.Note)
	default:
		logger.Debug("dispatched %s as %s: %s", filepath.Base(path), outcome.Kind, outcome.Status)
	}
	return outcome
}

func (s *DispatchService) dispatch(ctx context.Context, path string) domain.ProcessingOutcome {
	outcome := domain.ProcessingOutcome{
		Path:  path,
		Kind:  domain.DetectKind(path),
		Tags:  []string{},
		Tasks: []string{},
	}

	hash, head, err := hashFile(path)
	if err != nil {
		return failed(outcome, "cannot read file", fmt.Errorf("%w: %w", domain.ErrExtraction, err))
	}
	outcome.Kind = domain.SniffKind(path, head)

	existing, err := s.store.FileByHash(ctx, hash)
	switch {
	case err == nil:
		outcome.Status = domain.OutcomeSkipped
		outcome.FileID = existing.ID
		outcome.Note = "already ingested"
		return outcome
	case !errors.Is(err, domain.ErrNotFound):
		return failed(outcome, "hash lookup failed", err)
	}

	logger.Info("processing %s as %s", filepath.Base(path), outcome.Kind)
	ext, extractErr := s.extract(ctx, outcome.Kind, path)

	if extractErr != nil && outcome.Kind == domain.KindURL && errors.Is(extractErr, domain.ErrNetwork) {
		return failed(outcome, "fetch failed", extractErr)
	}

	var enrichment domain.Enrichment
	if extractErr != nil {
		enrichment = domain.Enrichment{
			ProcessedText: fmt.Sprintf("This %s could not be processed due to an error: %v", outcome.Kind, extractErr),
			Tags:          domain.MergeTags(ext.Tags, []string{"error", string(outcome.Kind)}),
			Tasks:         ext.Tasks,
		}
	} else {
		enrichment = s.enricher.Enrich(ctx, outcome.Kind, ext)
	}

	return s.persist(ctx, outcome, hash, ext, enrichment, extractErr)
}

// extract runs the extractor for kind, turning a panic into an error.
func (s *DispatchService) extract(ctx context.Context, kind domain.SourceKind, path string) (ext domain.Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = domain.NewExtraction()
			err = fmt.Errorf("%w: extractor panic: %v", domain.ErrExtraction, r)
		}
	}()
	ext, err = s.extractors.For(kind).Extract(ctx, path)
	return ext.Normalise(), err
}

// persist writes the file, its content record, tags and tasks.
func (s *DispatchService) persist(
	ctx context.Context,
	outcome domain.ProcessingOutcome,
	hash string,
	ext domain.Extraction,
	enrichment domain.Enrichment,
	extractErr error,
) domain.ProcessingOutcome {
	fileID, created, err := s.store.AddFile(ctx, domain.SourceFile{
		Path:     absPath(outcome.Path),
		Kind:     outcome.Kind,
		Hash:     hash,
		Metadata: ext.Metadata,
	})
	if err != nil {
		return failed(outcome, "storing file failed", err)
	}
	outcome.FileID = fileID
	if !created {
		outcome.Status = domain.OutcomeSkipped
		outcome.Note = "already ingested"
		return outcome
	}

	contentID, err := s.store.AddContent(ctx, domain.ContentRecord{
		FileID:        fileID,
		Kind:          outcome.Kind,
		RawText:       ext.RawText,
		ProcessedText: enrichment.ProcessedText,
	})
	if err != nil {
		return failed(outcome, "storing content failed", err)
	}
	outcome.ContentID = contentID
	outcome.Status = domain.OutcomeSuccess

	// Partial writes below leave a degraded but queryable record.
	var writeErrs []error
	if len(enrichment.Tags) > 0 {
		if err := s.store.AddTags(ctx, contentID, enrichment.Tags); err != nil {
			writeErrs = append(writeErrs, fmt.Errorf("add tags: %w", err))
		} else {
			outcome.Tags = enrichment.Tags
		}
	}
	for _, task := range enrichment.Tasks {
		if _, err := s.store.AddTask(ctx, contentID, task, nil); err != nil {
			writeErrs = append(writeErrs, fmt.Errorf("add task %q: %w", task, err))
			continue
		}
		outcome.Tasks = append(outcome.Tasks, task)
	}

	switch {
	case extractErr != nil:
		outcome.Status = domain.OutcomeDegraded
		outcome.Note = enrichment.ProcessedText
		outcome.Err = extractErr
	case len(writeErrs) > 0:
		outcome.Status = domain.OutcomeDegraded
		outcome.Note = "tags or tasks were not fully stored"
		outcome.Err = errors.Join(writeErrs...)
	case !ext.HasText():
		outcome.Status = domain.OutcomeDegraded
		outcome.Note = "no text could be extracted"
		if note, ok := ext.Metadata["note"].(string); ok && note != "" {
			outcome.Note += ": " + note
		}
	}
	return outcome
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func failed(o domain.ProcessingOutcome, note string, err error) domain.ProcessingOutcome {
	o.Status = domain.OutcomeFailed
	o.Note = fmt.Sprintf("%s: %v", note, err)
	o.Err = err
	return o
}

// hashFile returns the hex MD5 of the file and its first sniffLen bytes.
func hashFile(path string) (string, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // content identity, not security
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	h.Write(head)
	if _, err := io.Copy(h, f); err != nil {
		return "", nil, err
	}
	return hex.EncodeToString(h.Sum(nil)), head, nil
}
