package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
)

// Ensure ContentStore implements the interface.
var _ driven.ContentStore = (*ContentStore)(nil)

type storedContent struct {
	record domain.ContentRecord
	seq    int
}

type storedTask struct {
	task domain.Task
	seq  int
}

type storedDigest struct {
	digest domain.Digest
	seq    int
}

// ContentStore is an in-memory implementation of driven.ContentStore.
// Ordering matches the SQLite store; seq numbers stand in for rowids.
type ContentStore struct {
	mu sync.RWMutex

	seq      int
	files    map[string]domain.SourceFile
	byHash   map[string]string
	content  map[string]*storedContent
	tagSeq   map[string]int
	links    map[string][]string // content ID -> tag names
	tasks    map[string]*storedTask
	digests  map[string]*storedDigest
	tagOrder []string
}

// NewContentStore creates a new in-memory content store.
func NewContentStore() *ContentStore {
	return &ContentStore{
		files:   make(map[string]domain.SourceFile),
		byHash:  make(map[string]string),
		content: make(map[string]*storedContent),
		tagSeq:  make(map[string]int),
		links:   make(map[string][]string),
		tasks:   make(map[string]*storedTask),
		digests: make(map[string]*storedDigest),
	}
}

func (s *ContentStore) next() int {
	s.seq++
	return s.seq
}

// AddFile records a source file unless its hash is already known.
func (s *ContentStore) AddFile(_ context.Context, file domain.SourceFile) (string, bool, error) {
	if file.Hash == "" {
		return "", false, fmt.Errorf("%w: file hash is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byHash[file.Hash]; ok {
		return id, false, nil
	}
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if file.AddedAt.IsZero() {
		file.AddedAt = now
	}
	if file.LastProcessedAt.IsZero() {
		file.LastProcessedAt = now
	}
	file.Metadata = copyMetadata(file.Metadata)
	s.files[file.ID] = file
	s.byHash[file.Hash] = file.ID
	return file.ID, true, nil
}

// FileByHash returns the file with the given hash.
func (s *ContentStore) FileByHash(_ context.Context, hash string) (*domain.SourceFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	file := s.files[id]
	file.Metadata = copyMetadata(file.Metadata)
	return &file, nil
}

// AddContent appends a content record.
func (s *ContentStore) AddContent(_ context.Context, record domain.ContentRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, ok := s.files[record.FileID]
	if !ok {
		return "", fmt.Errorf("%w: adding content: unknown file %q", domain.ErrStorage, record.FileID)
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.ProcessedAt.IsZero() {
		record.ProcessedAt = time.Now()
	}
	record.ProcessedAt = record.ProcessedAt.UTC()
	s.content[record.ID] = &storedContent{record: record, seq: s.next()}

	file.LastProcessedAt = record.ProcessedAt
	s.files[file.ID] = file
	return record.ID, nil
}

// AddTags links tags to a content record, creating missing tags.
func (s *ContentStore) AddTags(_ context.Context, contentID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.content[contentID]; !ok {
		return fmt.Errorf("%w: adding tags: unknown content %q", domain.ErrStorage, contentID)
	}
	for _, name := range tags {
		if name == "" {
			continue
		}
		if _, ok := s.tagSeq[name]; !ok {
			s.tagSeq[name] = s.next()
			s.tagOrder = append(s.tagOrder, name)
		}
		if !contains(s.links[contentID], name) {
			s.links[contentID] = append(s.links[contentID], name)
		}
	}
	return nil
}

// AddTask records a task for a content record.
func (s *ContentStore) AddTask(_ context.Context, contentID, text string, due *time.Time) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: task text is required", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.content[contentID]; !ok {
		return "", fmt.Errorf("%w: adding task: unknown content %q", domain.ErrStorage, contentID)
	}
	task := domain.Task{
		ID:        uuid.New().String(),
		ContentID: contentID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if due != nil {
		d := due.UTC()
		task.DueDate = &d
	}
	s.tasks[task.ID] = &storedTask{task: task, seq: s.next()}
	return task.ID, nil
}

// UpdateTaskStatus sets a task's completion flag.
func (s *ContentStore) UpdateTaskStatus(_ context.Context, taskID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	t.task.Completed = completed
	return nil
}

// SaveDigest stores a digest.
func (s *ContentStore) SaveDigest(_ context.Context, digest domain.Digest) (string, error) {
	if !digest.Kind.IsValid() {
		return "", fmt.Errorf("%w: digest kind %q", domain.ErrInvalidInput, digest.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if digest.ID == "" {
		digest.ID = uuid.New().String()
	}
	if digest.CreatedAt.IsZero() {
		digest.CreatedAt = time.Now()
	}
	digest.PeriodStart = digest.PeriodStart.UTC()
	digest.PeriodEnd = digest.PeriodEnd.UTC()
	digest.CreatedAt = digest.CreatedAt.UTC()
	s.digests[digest.ID] = &storedDigest{digest: digest, seq: s.next()}
	return digest.ID, nil
}

// ContentForPeriod returns content processed in [start, end), newest first.
func (s *ContentStore) ContentForPeriod(_ context.Context, start, end time.Time) ([]domain.ContentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views(func(c *storedContent) bool {
		at := c.record.ProcessedAt
		return !at.Before(start) && at.Before(end)
	}, newestFirst, 0, 0), nil
}

// RecentContent returns the most recently processed content.
func (s *ContentStore) RecentContent(_ context.Context, limit int) ([]domain.ContentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views(nil, newestFirst, 0, limit), nil
}

// GetContent returns one content record.
func (s *ContentStore) GetContent(_ context.Context, contentID string) (*domain.ContentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.content[contentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	view := s.view(c)
	return &view, nil
}

// ListContent returns a page of content, newest first.
func (s *ContentStore) ListContent(_ context.Context, page domain.Page) ([]domain.ContentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views(nil, newestFirst, page.Offset, page.Limit), nil
}

// CountContent returns the number of content records.
func (s *ContentStore) CountContent(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.content), nil
}

// TagsForContent returns the tag names linked to a content record.
func (s *ContentStore) TagsForContent(_ context.Context, contentID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tagsFor(contentID), nil
}

// Tasks returns tasks active first, then due date ascending with undated
// tasks last, then newest first.
func (s *ContentStore) Tasks(_ context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*storedTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.task.Completed && !filter.IncludeCompleted {
			continue
		}
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].task, list[j].task
		if a.Completed != b.Completed {
			return !a.Completed
		}
		if (a.DueDate == nil) != (b.DueDate == nil) {
			return a.DueDate != nil
		}
		if a.DueDate != nil && !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return list[i].seq > list[j].seq
	})

	tasks := make([]domain.Task, 0, len(list))
	for _, t := range list {
		if filter.Limit > 0 && len(tasks) == filter.Limit {
			break
		}
		tasks = append(tasks, t.task)
	}
	return tasks, nil
}

// LatestDigest returns the newest digest of a kind.
func (s *ContentStore) LatestDigest(_ context.Context, kind domain.DigestKind) (*domain.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *storedDigest
	for _, d := range s.digests {
		if d.digest.Kind != kind {
			continue
		}
		if latest == nil || d.digest.CreatedAt.After(latest.digest.CreatedAt) ||
			(d.digest.CreatedAt.Equal(latest.digest.CreatedAt) && d.seq > latest.seq) {
			latest = d
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	digest := latest.digest
	return &digest, nil
}

// DigestsInRange returns digests of a kind whose window intersects [start, end).
func (s *ContentStore) DigestsInRange(_ context.Context, kind domain.DigestKind, start, end time.Time) ([]domain.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.digestsWhere(func(d domain.Digest) bool {
		return d.Kind == kind && d.Intersects(start, end)
	}, byPeriodStart), nil
}

// Digests returns digests of a kind by window start, or all digests
// newest first when kind is empty.
func (s *ContentStore) Digests(_ context.Context, kind domain.DigestKind) ([]domain.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if kind == "" {
		return s.digestsWhere(func(domain.Digest) bool { return true }, byCreatedDesc), nil
	}
	return s.digestsWhere(func(d domain.Digest) bool { return d.Kind == kind }, byPeriodStart), nil
}

// GetDigest returns one digest.
func (s *ContentStore) GetDigest(_ context.Context, digestID string) (*domain.Digest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.digests[digestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	digest := d.digest
	return &digest, nil
}

// TopTags returns the most used tags. Ties keep tag creation order.
func (s *ContentStore) TopTags(_ context.Context, limit int, since time.Time) ([]domain.TagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for id, names := range s.links {
		if !since.IsZero() && s.content[id].record.ProcessedAt.Before(since) {
			continue
		}
		for _, name := range names {
			counts[name]++
		}
	}
	return s.rankTags(counts, limit), nil
}

// ContentByTag returns content linked to tag, newest first.
func (s *ContentStore) ContentByTag(_ context.Context, tag string, limit int) ([]domain.ContentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views(func(c *storedContent) bool {
		return contains(s.links[c.record.ID], tag)
	}, newestFirst, 0, limit), nil
}

// RelatedTags returns tags that co-occur with tag, most frequent first.
func (s *ContentStore) RelatedTags(_ context.Context, tag string, limit int) ([]domain.TagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, names := range s.links {
		if !contains(names, tag) {
			continue
		}
		for _, name := range names {
			if name != tag {
				counts[name]++
			}
		}
	}
	return s.rankTags(counts, limit), nil
}

// UpdateProcessedText fills in the processed text of a record.
func (s *ContentStore) UpdateProcessedText(_ context.Context, contentID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.content[contentID]
	if !ok {
		return domain.ErrNotFound
	}
	c.record.ProcessedText = text
	return nil
}

// UnprocessedContent returns records without processed text, oldest first.
func (s *ContentStore) UnprocessedContent(_ context.Context, limit int) ([]domain.ContentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views(func(c *storedContent) bool {
		return c.record.ProcessedText == ""
	}, oldestFirst, 0, limit), nil
}

// DeleteContent removes a record with its tasks and tag links.
func (s *ContentStore) DeleteContent(_ context.Context, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.content[contentID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.content, contentID)
	delete(s.links, contentID)
	for id, t := range s.tasks {
		if t.task.ContentID == contentID {
			delete(s.tasks, id)
		}
	}
	return nil
}

// Stats summarises the store.
func (s *ContentStore) Stats(_ context.Context) (*domain.ContentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.ContentStats{
		Files:          len(s.files),
		ContentRecords: len(s.content),
		Tags:           len(s.tagSeq),
		Digests:        len(s.digests),
		ByKind:         map[domain.SourceKind]int{},
	}
	for _, c := range s.content {
		if c.record.ProcessedText == "" {
			stats.Unprocessed++
		}
		stats.ByKind[c.record.Kind]++
	}
	for _, t := range s.tasks {
		if t.task.Completed {
			stats.CompletedTasks++
		} else {
			stats.OpenTasks++
		}
	}
	return stats, nil
}

// ==================== Helpers ====================

type contentOrder func(a, b *storedContent) bool

func newestFirst(a, b *storedContent) bool {
	if !a.record.ProcessedAt.Equal(b.record.ProcessedAt) {
		return a.record.ProcessedAt.After(b.record.ProcessedAt)
	}
	return a.seq > b.seq
}

func oldestFirst(a, b *storedContent) bool {
	return newestFirst(b, a)
}

// views filters, sorts and pages content. Callers hold the read lock.
func (s *ContentStore) views(keep func(*storedContent) bool, order contentOrder, offset, limit int) []domain.ContentView {
	list := make([]*storedContent, 0, len(s.content))
	for _, c := range s.content {
		if keep == nil || keep(c) {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return order(list[i], list[j]) })

	if offset > 0 {
		if offset >= len(list) {
			list = nil
		} else {
			list = list[offset:]
		}
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	out := make([]domain.ContentView, 0, len(list))
	for _, c := range list {
		out = append(out, s.view(c))
	}
	return out
}

func (s *ContentStore) view(c *storedContent) domain.ContentView {
	file := s.files[c.record.FileID]
	return domain.ContentView{
		ContentRecord: c.record,
		Path:          file.Path,
		FileKind:      file.Kind,
		Metadata:      copyMetadata(file.Metadata),
		Tags:          s.tagsFor(c.record.ID),
	}
}

// tagsFor returns a record's tags in tag creation order.
func (s *ContentStore) tagsFor(contentID string) []string {
	names := append([]string{}, s.links[contentID]...)
	sort.SliceStable(names, func(i, j int) bool { return s.tagSeq[names[i]] < s.tagSeq[names[j]] })
	return names
}

func (s *ContentStore) rankTags(counts map[string]int, limit int) []domain.TagCount {
	out := make([]domain.TagCount, 0, len(counts))
	for _, name := range s.tagOrder {
		if n := counts[name]; n > 0 {
			out = append(out, domain.TagCount{Name: name, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type digestOrder func(a, b *storedDigest) bool

func byPeriodStart(a, b *storedDigest) bool {
	if !a.digest.PeriodStart.Equal(b.digest.PeriodStart) {
		return a.digest.PeriodStart.Before(b.digest.PeriodStart)
	}
	if !a.digest.CreatedAt.Equal(b.digest.CreatedAt) {
		return a.digest.CreatedAt.Before(b.digest.CreatedAt)
	}
	return a.seq < b.seq
}

func byCreatedDesc(a, b *storedDigest) bool {
	if !a.digest.CreatedAt.Equal(b.digest.CreatedAt) {
		return a.digest.CreatedAt.After(b.digest.CreatedAt)
	}
	return a.seq > b.seq
}

func (s *ContentStore) digestsWhere(keep func(domain.Digest) bool, order digestOrder) []domain.Digest {
	list := make([]*storedDigest, 0, len(s.digests))
	for _, d := range s.digests {
		if keep(d.digest) {
			list = append(list, d)
		}
	}
	sort.Slice(list, func(i, j int) bool { return order(list[i], list[j]) })
	out := make([]domain.Digest, 0, len(list))
	for _, d := range list {
		out = append(out, d.digest)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
