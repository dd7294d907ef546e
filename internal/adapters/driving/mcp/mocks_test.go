package mcp

import (
	"context"
	"time"

	"github.com/behole/scribble/internal/core/domain"
)

// mockLibraryService is a mock implementation of driving.LibraryService.
type mockLibraryService struct {
	content []domain.ContentView
	tasks   []domain.Task
	tags    []domain.TagCount
	digests []domain.Digest
	stats   *domain.ContentStats
	err     error

	page      domain.Page
	filter    domain.TaskFilter
	tagLimit  int
	completed map[string]bool
}

func (m *mockLibraryService) ListContent(_ context.Context, page domain.Page) ([]domain.ContentView, int, error) {
	m.page = page
	return m.content, len(m.content), m.err
}

func (m *mockLibraryService) GetContent(_ context.Context, contentID string) (*domain.ContentView, error) {
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

func (m *mockLibraryService) DeleteContent(_ context.Context, _ string) error {
	return m.err
}

func (m *mockLibraryService) Tasks(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	m.filter = filter
	return m.tasks, m.err
}

func (m *mockLibraryService) SetTaskCompleted(_ context.Context, taskID string, completed bool) error {
	if m.err != nil {
		return m.err
	}
	if m.completed == nil {
		m.completed = make(map[string]bool)
	}
	m.completed[taskID] = completed
	return nil
}

func (m *mockLibraryService) TopTags(_ context.Context, limit int) ([]domain.TagCount, error) {
	m.tagLimit = limit
	return m.tags, m.err
}

func (m *mockLibraryService) Digests(_ context.Context, _ domain.DigestKind) ([]domain.Digest, error) {
	return m.digests, m.err
}

func (m *mockLibraryService) GetDigest(_ context.Context, digestID string) (*domain.Digest, error) {
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

func (m *mockLibraryService) LatestDigest(_ context.Context, kind domain.DigestKind) (*domain.Digest, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.digests {
		if m.digests[i].Kind == kind {
			return &m.digests[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibraryService) Stats(_ context.Context) (*domain.ContentStats, error) {
	return m.stats, m.err
}

// mockDigestCompiler is a mock implementation of driving.DigestCompiler.
type mockDigestCompiler struct {
	result *domain.DigestResult
	err    error
	kind   domain.DigestKind
	opts   domain.DigestOptions
}

func (m *mockDigestCompiler) Weekly(ctx context.Context, end time.Time) (*domain.DigestResult, error) {
	return m.Generate(ctx, domain.DigestWeekly, domain.DigestOptions{End: end})
}

func (m *mockDigestCompiler) Monthly(ctx context.Context, year int, month time.Month) (*domain.DigestResult, error) {
	return m.Generate(ctx, domain.DigestMonthly, domain.DigestOptions{Year: year, Month: month})
}

func (m *mockDigestCompiler) TaskList(ctx context.Context) (*domain.DigestResult, error) {
	return m.Generate(ctx, domain.DigestTaskList, domain.DigestOptions{})
}

func (m *mockDigestCompiler) Topic(ctx context.Context, tag string) (*domain.DigestResult, error) {
	return m.Generate(ctx, domain.DigestTopic, domain.DigestOptions{Tag: tag})
}

func (m *mockDigestCompiler) SuggestedReading(ctx context.Context) (*domain.DigestResult, error) {
	return m.Generate(ctx, domain.DigestSuggestedReading, domain.DigestOptions{})
}

func (m *mockDigestCompiler) Full(ctx context.Context) (*domain.DigestResult, error) {
	return m.Generate(ctx, domain.DigestFull, domain.DigestOptions{})
}

func (m *mockDigestCompiler) Generate(_ context.Context, kind domain.DigestKind, opts domain.DigestOptions) (*domain.DigestResult, error) {
	m.kind = kind
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockDispatcher is a mock implementation of driving.Dispatcher.
type mockDispatcher struct {
	outcome domain.ProcessingOutcome
	path    string
}

func (m *mockDispatcher) Dispatch(_ context.Context, path string) domain.ProcessingOutcome {
	m.path = path
	o := m.outcome
	o.Path = path
	return o
}

func (m *mockDispatcher) DispatchAll(ctx context.Context, paths []string) []domain.ProcessingOutcome {
	out := make([]domain.ProcessingOutcome, len(paths))
	for i, p := range paths {
		out[i] = m.Dispatch(ctx, p)
	}
	return out
}

func newTestServer(ports *Ports) *Server {
	if ports.Library == nil {
		ports.Library = &mockLibraryService{}
	}
	if ports.Digests == nil {
		ports.Digests = &mockDigestCompiler{}
	}
	s, err := NewServer(ports)
	if err != nil {
		panic(err)
	}
	return s
}
