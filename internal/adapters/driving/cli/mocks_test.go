package cli

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driving"
)

// mockDispatcher records the paths it was asked to process.
type mockDispatcher struct {
	outcomes map[string]domain.ProcessingOutcome
	got      []string
}

func (m *mockDispatcher) Dispatch(_ context.Context, path string) domain.ProcessingOutcome {
	m.got = append(m.got, path)
	if o, ok := m.outcomes[path]; ok {
		return o
	}
	return domain.ProcessingOutcome{Path: path, Kind: domain.DetectKind(path), Status: domain.OutcomeSuccess}
}

func (m *mockDispatcher) DispatchAll(ctx context.Context, paths []string) []domain.ProcessingOutcome {
	out := make([]domain.ProcessingOutcome, 0, len(paths))
	for _, p := range paths {
		out = append(out, m.Dispatch(ctx, p))
	}
	return out
}

// mockDigestCompiler returns a canned result and records the request.
type mockDigestCompiler struct {
	result *domain.DigestResult
	err    error

	kind domain.DigestKind
	opts domain.DigestOptions
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
	if m.result != nil {
		return m.result, nil
	}
	return &domain.DigestResult{
		Digest: domain.Digest{ID: "digest-1", Kind: kind, Body: "# Digest body"},
		Paths:  []string{"/out/digest.md", "/out/digest.html"},
	}, nil
}

// mockBacklog returns a canned report.
type mockBacklog struct {
	report *driving.BacklogReport
	err    error
	limit  int
}

func (m *mockBacklog) Reprocess(_ context.Context, limit int) (*driving.BacklogReport, error) {
	m.limit = limit
	return m.report, m.err
}

// mockLibrary serves canned content and records edits.
type mockLibrary struct {
	content []domain.ContentView
	tasks   []domain.Task
	tags    []domain.TagCount
	digests []domain.Digest
	stats   *domain.ContentStats
	err     error

	page      domain.Page
	filter    domain.TaskFilter
	deleted   []string
	completed map[string]bool
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
	if limit > 0 && limit < len(m.tags) {
		return m.tags[:limit], m.err
	}
	return m.tags, m.err
}

func (m *mockLibrary) Digests(_ context.Context, _ domain.DigestKind) ([]domain.Digest, error) {
	return m.digests, m.err
}

func (m *mockLibrary) GetDigest(_ context.Context, digestID string) (*domain.Digest, error) {
	for i := range m.digests {
		if m.digests[i].ID == digestID {
			return &m.digests[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibrary) LatestDigest(_ context.Context, kind domain.DigestKind) (*domain.Digest, error) {
	for i := range m.digests {
		if m.digests[i].Kind == kind {
			return &m.digests[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockLibrary) Stats(_ context.Context) (*domain.ContentStats, error) {
	return m.stats, m.err
}

// mockSettings keeps settings in memory.
type mockSettings struct {
	settings    domain.Settings
	values      map[string]string
	apiKey      string
	validateErr error
	setErr      error
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultSettings(), values: make(map[string]string)}
}

func (m *mockSettings) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettings) SetAPIKey(apiKey string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.apiKey = apiKey
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *mockSettings) Validate() error { return m.validateErr }

func (m *mockSettings) Keys() []string {
	keys := []string{"notes_folder", "llm.provider", "llm.analysis_depth"}
	sort.Strings(keys)
	return keys
}

func (m *mockSettings) ConfigPath() string { return "/home/test/.scribble/config.toml" }

// mockScheduler returns canned tasks.
type mockScheduler struct {
	tasks []domain.ScheduledTask
	err   error
}

func (m *mockScheduler) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error { return nil }

func (m *mockScheduler) Tasks(_ context.Context) ([]domain.ScheduledTask, error) {
	return m.tasks, m.err
}

// mockDaemon counts scans and runs.
type mockDaemon struct {
	mu       sync.Mutex
	outcomes []domain.ProcessingOutcome
	scanErr  error
	runErr   error
	scans    int
	runs     int
}

func (m *mockDaemon) Scan(_ context.Context) ([]domain.ProcessingOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	return m.outcomes, m.scanErr
}

func (m *mockDaemon) Run(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	return m.runErr
}

// mockServer returns err from Serve.
type mockServer struct {
	err    error
	served bool
}

func (m *mockServer) Serve(_ context.Context) error {
	m.served = true
	return m.err
}
