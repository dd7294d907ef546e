package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/ports/driving"
	"github.com/behole/scribble/internal/logger"
)

// Ensure LibraryService implements the interface.
var _ driving.LibraryService = (*LibraryService)(nil)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// LibraryService provides read and edit access to stored content.
type LibraryService struct {
	store driven.ContentStore
}

// NewLibraryService creates a library service.
func NewLibraryService(store driven.ContentStore) *LibraryService {
	return &LibraryService{store: store}
}

// ListContent returns a page of content with the total record count.
func (s *LibraryService) ListContent(ctx context.Context, page domain.Page) ([]domain.ContentView, int, error) {
	if page.Offset < 0 {
		page.Offset = 0
	}
	switch {
	case page.Limit <= 0:
		page.Limit = defaultPageSize
	case page.Limit > maxPageSize:
		page.Limit = maxPageSize
	}

	items, err := s.store.ListContent(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountContent(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetContent returns one content record.
func (s *LibraryService) GetContent(ctx context.Context, contentID string) (*domain.ContentView, error) {
	if err := requireID(contentID, "content"); err != nil {
		return nil, err
	}
	return s.store.GetContent(ctx, contentID)
}

// DeleteContent removes a content record with its tasks and tag links.
func (s *LibraryService) DeleteContent(ctx context.Context, contentID string) error {
	if err := requireID(contentID, "content"); err != nil {
		return err
	}
	if err := s.store.DeleteContent(ctx, contentID); err != nil {
		return err
	}
	logger.Info("deleted content %s", contentID)
	return nil
}

// Tasks lists tasks in task-list order.
func (s *LibraryService) Tasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	return s.store.Tasks(ctx, filter)
}

// SetTaskCompleted marks a task done or reopens it.
func (s *LibraryService) SetTaskCompleted(ctx context.Context, taskID string, completed bool) error {
	if err := requireID(taskID, "task"); err != nil {
		return err
	}
	return s.store.UpdateTaskStatus(ctx, taskID, completed)
}

// TopTags returns the most used tags across all content.
func (s *LibraryService) TopTags(ctx context.Context, limit int) ([]domain.TagCount, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	return s.store.TopTags(ctx, limit, time.Time{})
}

// Digests lists digests of a kind. An empty kind lists all.
func (s *LibraryService) Digests(ctx context.Context, kind domain.DigestKind) ([]domain.Digest, error) {
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("%w: digest kind %q", domain.ErrInvalidInput, kind)
	}
	return s.store.Digests(ctx, kind)
}

// GetDigest returns one digest.
func (s *LibraryService) GetDigest(ctx context.Context, digestID string) (*domain.Digest, error) {
	if err := requireID(digestID, "digest"); err != nil {
		return nil, err
	}
	return s.store.GetDigest(ctx, digestID)
}

// LatestDigest returns the newest digest of a kind.
func (s *LibraryService) LatestDigest(ctx context.Context, kind domain.DigestKind) (*domain.Digest, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: digest kind %q", domain.ErrInvalidInput, kind)
	}
	return s.store.LatestDigest(ctx, kind)
}

// Stats summarises the store.
func (s *LibraryService) Stats(ctx context.Context) (*domain.ContentStats, error) {
	return s.store.Stats(ctx)
}

func requireID(id, what string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s ID is required", domain.ErrInvalidInput, what)
	}
	return nil
}
