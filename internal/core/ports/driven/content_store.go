package driven

import (
	"context"
	"time"

	"github.com/behole/scribble/internal/core/domain"
)

// ContentStore persists files, content, tags, tasks and digests.
//
// Each call is atomic on its own; there are no transactions spanning calls.
// Backing-store failures are wrapped so errors.Is(err, domain.ErrStorage) holds.
type ContentStore interface {
	// AddFile records a source file. If a file with the same hash exists,
	// nothing is written and its ID is returned with created=false.
	AddFile(ctx context.Context, file domain.SourceFile) (id string, created bool, err error)

	// FileByHash returns the file with the given hash, or domain.ErrNotFound.
	FileByHash(ctx context.Context, hash string) (*domain.SourceFile, error)

	// AddContent appends a content record and returns its ID.
	AddContent(ctx context.Context, record domain.ContentRecord) (string, error)

	// AddTags links tags to a content record, creating missing tags.
	// Tag creation is idempotent and safe under concurrent callers.
	AddTags(ctx context.Context, contentID string, tags []string) error

	// AddTask records a task for a content record and returns its ID.
	AddTask(ctx context.Context, contentID, text string, due *time.Time) (string, error)

	// UpdateTaskStatus sets a task's completion flag.
	UpdateTaskStatus(ctx context.Context, taskID string, completed bool) error

	// SaveDigest stores a digest and returns its ID.
	SaveDigest(ctx context.Context, digest domain.Digest) (string, error)

	// ContentForPeriod returns content processed in [start, end), newest first.
	ContentForPeriod(ctx context.Context, start, end time.Time) ([]domain.ContentView, error)

	// RecentContent returns the most recently processed content.
	RecentContent(ctx context.Context, limit int) ([]domain.ContentView, error)

	// GetContent returns one content record, or domain.ErrNotFound.
	GetContent(ctx context.Context, contentID string) (*domain.ContentView, error)

	// ListContent returns a page of content, newest first.
	ListContent(ctx context.Context, page domain.Page) ([]domain.ContentView, error)

	// CountContent returns the number of content records.
	CountContent(ctx context.Context) (int, error)

	// TagsForContent returns the tag names linked to a content record.
	TagsForContent(ctx context.Context, contentID string) ([]string, error)

	// Tasks returns tasks ordered active first, then by due date ascending
	// with undated tasks last, then by creation date descending.
	Tasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)

	// LatestDigest returns the newest digest of a kind, or domain.ErrNotFound.
	LatestDigest(ctx context.Context, kind domain.DigestKind) (*domain.Digest, error)

	// DigestsInRange returns digests of a kind whose window intersects
	// [start, end), ordered by window start.
	DigestsInRange(ctx context.Context, kind domain.DigestKind, start, end time.Time) ([]domain.Digest, error)

	// Digests returns all digests of a kind ordered by window start.
	// An empty kind returns every digest, newest first.
	Digests(ctx context.Context, kind domain.DigestKind) ([]domain.Digest, error)

	// GetDigest returns one digest, or domain.ErrNotFound.
	GetDigest(ctx context.Context, digestID string) (*domain.Digest, error)

	// TopTags returns the most used tags. A non-zero since restricts counting
	// to content processed at or after it. Ties keep tag creation order.
	TopTags(ctx context.Context, limit int, since time.Time) ([]domain.TagCount, error)

	// ContentByTag returns content linked to a tag, newest first.
	ContentByTag(ctx context.Context, tag string, limit int) ([]domain.ContentView, error)

	// RelatedTags returns tags that co-occur with tag, most frequent first.
	RelatedTags(ctx context.Context, tag string, limit int) ([]domain.TagCount, error)

	// UpdateProcessedText fills in the processed text of a record.
	UpdateProcessedText(ctx context.Context, contentID, text string) error

	// UnprocessedContent returns records without processed text, oldest first.
	UnprocessedContent(ctx context.Context, limit int) ([]domain.ContentView, error)

	// DeleteContent removes a record with its tasks and tag links.
	DeleteContent(ctx context.Context, contentID string) error

	// Stats summarises the store.
	Stats(ctx context.Context) (*domain.ContentStats, error)
}
