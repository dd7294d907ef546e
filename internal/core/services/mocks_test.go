package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/behole/scribble/internal/adapters/driven/storage/memory"
	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/ports/driving"
)

// --- LLM ---

// mockLLM answers prompts by the first matching substring rule.
type mockLLM struct {
	mu      sync.Mutex
	replies []llmReply
	err     error
	calls   []driven.CompletionRequest
}

type llmReply struct {
	contains string
	text     string
	err      error
}

func (m *mockLLM) on(contains, text string) *mockLLM {
	m.replies = append(m.replies, llmReply{contains: contains, text: text})
	return m
}

func (m *mockLLM) fail(contains string, err error) *mockLLM {
	m.replies = append(m.replies, llmReply{contains: contains, err: err})
	return m
}

func (m *mockLLM) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	for _, r := range m.replies {
		if strings.Contains(req.Prompt, r.contains) {
			return r.text, r.err
		}
	}
	return "", nil
}

func (m *mockLLM) CompleteWithImage(_ context.Context, _, _ string) (string, error) {
	return "", errors.New("not supported")
}

func (m *mockLLM) ModelName() string { return "mock" }
func (m *mockLLM) Ping(_ context.Context) error { return m.err }
func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// --- Extractors ---

// mockExtractor returns a fixed extraction, error or panic.
type mockExtractor struct {
	kind   domain.SourceKind
	ext    domain.Extraction
	err    error
	panics bool
	calls  int
}

func (m *mockExtractor) Kind() domain.SourceKind { return m.kind }

func (m *mockExtractor) Extract(_ context.Context, _ string) (domain.Extraction, error) {
	m.calls++
	if m.panics {
		panic("boom")
	}
	return m.ext.Normalise(), m.err
}

// mockRegistry resolves kinds to extractors, falling back to unknown.
type mockRegistry map[domain.SourceKind]driven.Extractor

func (r mockRegistry) For(kind domain.SourceKind) driven.Extractor {
	if e, ok := r[kind]; ok {
		return e
	}
	if e, ok := r[domain.KindUnknown]; ok {
		return e
	}
	return &mockExtractor{kind: domain.KindUnknown}
}

// --- Content store ---

// failingContentStore wraps the memory store and fails selected calls.
type failingContentStore struct {
	*memory.ContentStore
	addFileErr    error
	addContentErr error
	addTagsErr    error
	addTaskErr    error
	updateErr     error
	saveDigestErr error
}

func newFailingContentStore() *failingContentStore {
	return &failingContentStore{ContentStore: memory.NewContentStore()}
}

func (f *failingContentStore) AddFile(ctx context.Context, file domain.SourceFile) (string, bool, error) {
	if f.addFileErr != nil {
		return "", false, f.addFileErr
	}
	return f.ContentStore.AddFile(ctx, file)
}

func (f *failingContentStore) AddContent(ctx context.Context, record domain.ContentRecord) (string, error) {
	if f.addContentErr != nil {
		return "", f.addContentErr
	}
	return f.ContentStore.AddContent(ctx, record)
}

func (f *failingContentStore) AddTags(ctx context.Context, contentID string, tags []string) error {
	if f.addTagsErr != nil {
		return f.addTagsErr
	}
	return f.ContentStore.AddTags(ctx, contentID, tags)
}

func (f *failingContentStore) AddTask(ctx context.Context, contentID, text string, due *time.Time) (string, error) {
	if f.addTaskErr != nil {
		return "", f.addTaskErr
	}
	return f.ContentStore.AddTask(ctx, contentID, text, due)
}

func (f *failingContentStore) UpdateProcessedText(ctx context.Context, contentID, text string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.ContentStore.UpdateProcessedText(ctx, contentID, text)
}

func (f *failingContentStore) SaveDigest(ctx context.Context, digest domain.Digest) (string, error) {
	if f.saveDigestErr != nil {
		return "", f.saveDigestErr
	}
	return f.ContentStore.SaveDigest(ctx, digest)
}

// --- Artifacts ---

type mockWriter struct {
	mu      sync.Mutex
	written map[string]string
	err     error
}

func newMockWriter() *mockWriter {
	return &mockWriter{written: make(map[string]string)}
}

func (w *mockWriter) Write(_ context.Context, name, body string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return nil, w.err
	}
	w.written[name] = body
	return []string{name + ".md", name + ".html"}, nil
}

func (w *mockWriter) names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.written))
	for n := range w.written {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// --- Scheduler store ---

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	listErr  error
	getErr   error
	pruneErr error
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	// Return a copy
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	return results, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, _ int) error {
	return m.pruneErr
}

func (m *mockSchedulerStore) task(id string) domain.ScheduledTask {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tasks[id]; ok {
		return *t
	}
	return domain.ScheduledTask{}
}

func (m *mockSchedulerStore) history(id string) []domain.TaskResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.TaskResult(nil), m.results[id]...)
}

// --- Digest compiler ---

// mockDigestCompiler records which digests were requested.
type mockDigestCompiler struct {
	mu      sync.Mutex
	called  []domain.DigestKind
	months  []time.Month
	errs    map[domain.DigestKind]error
	release chan struct{}
}

func (m *mockDigestCompiler) record(ctx context.Context, kind domain.DigestKind) (*domain.DigestResult, error) {
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called = append(m.called, kind)
	if err := m.errs[kind]; err != nil {
		return nil, err
	}
	return &domain.DigestResult{Digest: domain.Digest{ID: string(kind), Kind: kind}}, nil
}

func (m *mockDigestCompiler) Weekly(ctx context.Context, _ time.Time) (*domain.DigestResult, error) {
	return m.record(ctx, domain.DigestWeekly)
}

func (m *mockDigestCompiler) Monthly(ctx context.Context, _ int, month time.Month) (*domain.DigestResult, error) {
	m.mu.Lock()
	m.months = append(m.months, month)
	m.mu.Unlock()
	return m.record(ctx, domain.DigestMonthly)
}

func (m *mockDigestCompiler) TaskList(ctx context.Context) (*domain.DigestResult, error) {
	return m.record(ctx, domain.DigestTaskList)
}

func (m *mockDigestCompiler) Topic(ctx context.Context, _ string) (*domain.DigestResult, error) {
	return m.record(ctx, domain.DigestTopic)
}

func (m *mockDigestCompiler) SuggestedReading(ctx context.Context) (*domain.DigestResult, error) {
	return m.record(ctx, domain.DigestSuggestedReading)
}

func (m *mockDigestCompiler) Full(ctx context.Context) (*domain.DigestResult, error) {
	return m.record(ctx, domain.DigestFull)
}

func (m *mockDigestCompiler) Generate(ctx context.Context, kind domain.DigestKind, _ domain.DigestOptions) (*domain.DigestResult, error) {
	return m.record(ctx, kind)
}

func (m *mockDigestCompiler) calls() []domain.DigestKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DigestKind(nil), m.called...)
}

// --- Daemon collaborators ---

type mockEventSource struct {
	paths   []string
	scanErr error
	events  chan driven.FileEvent
}

func (m *mockEventSource) Scan(_ context.Context) ([]string, error) {
	return m.paths, m.scanErr
}

func (m *mockEventSource) Watch(_ context.Context) (<-chan driven.FileEvent, error) {
	return m.events, nil
}

type mockDispatcher struct {
	mu   sync.Mutex
	seen []string
	done chan string
}

func (m *mockDispatcher) Dispatch(_ context.Context, path string) domain.ProcessingOutcome {
	m.mu.Lock()
	m.seen = append(m.seen, path)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- path
	}
	return domain.ProcessingOutcome{Path: path, Status: domain.OutcomeSuccess}
}

func (m *mockDispatcher) DispatchAll(ctx context.Context, paths []string) []domain.ProcessingOutcome {
	out := make([]domain.ProcessingOutcome, 0, len(paths))
	for _, p := range paths {
		out = append(out, m.Dispatch(ctx, p))
	}
	return out
}

func (m *mockDispatcher) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

type mockServer struct {
	err error
}

func (m *mockServer) Serve(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	<-ctx.Done()
	return nil
}

// --- Settings ---

type mockAIValidator struct {
	err    error
	called bool
}

func (m *mockAIValidator) ValidateLLM(_ *domain.LLMSettings) error {
	m.called = true
	return m.err
}

// Ensure mocks implement interfaces
var (
	_ driven.LLMService        = (*mockLLM)(nil)
	_ driven.Extractor         = (*mockExtractor)(nil)
	_ driven.ExtractorRegistry = mockRegistry(nil)
	_ driven.ContentStore      = (*failingContentStore)(nil)
	_ driven.ArtifactWriter    = (*mockWriter)(nil)
	_ driven.SchedulerStore    = (*mockSchedulerStore)(nil)
	_ driven.FileEventSource   = (*mockEventSource)(nil)
	_ driven.AIConfigValidator = (*mockAIValidator)(nil)
	_ driving.DigestCompiler   = (*mockDigestCompiler)(nil)
	_ driving.Dispatcher       = (*mockDispatcher)(nil)
	_ Server                   = (*mockServer)(nil)
)
