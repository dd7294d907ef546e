package http

import (
	"context"

	"github.com/behole/scribble/internal/core/domain"
)

// mockLibrary is a mock implementation of driving.LibraryService.
type mockLibrary struct {
	content []domain.ContentView
	tasks   []domain.Task
	tags    []domain.TagCount
	digests []domain.Digest
	stats   *domain.ContentStats
	err     error

	page       domain.Page
	filter     domain.TaskFilter
	tagLimit   int
	digestKind domain.DigestKind
	deleted    []string
	completed  map[string]bool
}

func (m *mockLibrary) ListContent(_ context.Context, page domain.Page) ([]domain.ContentView, int, error) {
	m.page = page
	return m.content, len(m.content), m.err
}

func (m *mockLibrary) GetContent(_ context.Context, contentID string) (*domain.ContentView, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.content {
		if m.content[i].ID == contentID {
			return &m.content[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibrary) DeleteContent(_ context.Context, contentID string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, contentID)
	return nil
}

func (m *mockLibrary) Tasks(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	m.filter = filter
	return m.tasks, m.err
}

func (m *mockLibrary) SetTaskCompleted(_ context.Context, taskID string, completed bool) error {
	if m.err != nil {
		return m.err
	}
	if m.completed == nil {
		m.completed = make(map[string]bool)
	}
	m.completed[taskID] = completed
	return nil
}

func (m *mockLibrary) TopTags(_ context.Context, limit int) ([]domain.TagCount, error) {
	m.tagLimit = limit
	return m.tags, m.err
}

func (m *mockLibrary) Digests(_ context.Context, kind domain.DigestKind) ([]domain.Digest, error) {
	m.digestKind = kind
	return m.digests, m.err
}

func (m *mockLibrary) GetDigest(_ context.Context, digestID string) (*domain.Digest, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.digests {
		if m.digests[i].ID == digestID {
			return &m.digests[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibrary) LatestDigest(_ context.Context, _ domain.DigestKind) (*domain.Digest, error) {
	if len(m.digests) == 0 {
		return nil, domain.ErrNotFound
	}
	return &m.digests[0], m.err
}

func (m *mockLibrary) Stats(_ context.Context) (*domain.ContentStats, error) {
	return m.stats, m.err
}
