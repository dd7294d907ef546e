package driving

import (
	"context"

	"github.com/behole/scribble/internal/core/domain"
)

// LibraryService browses and edits stored content for the CLI, MCP and
// HTTP surfaces.
type LibraryService interface {
	// ListContent returns a page of content, newest first, with the total count.
	ListContent(ctx context.Context, page domain.Page) ([]domain.ContentView, int, error)

	// GetContent returns one content record with its tags.
	GetContent(ctx context.Context, contentID string) (*domain.ContentView, error)

	// DeleteContent removes a content record, its tasks and tag links.
	DeleteContent(ctx context.Context, contentID string) error

	// Tasks lists tasks in task-list order.
	Tasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)

	// SetTaskCompleted marks a task done or reopens it.
	SetTaskCompleted(ctx context.Context, taskID string, completed bool) error

	// TopTags returns the most used tags.
	TopTags(ctx context.Context, limit int) ([]domain.TagCount, error)

	// Digests lists digests of a kind. An empty kind lists all.
	Digests(ctx context.Context, kind domain.DigestKind) ([]domain.Digest, error)

	// GetDigest returns one digest.
	GetDigest(ctx context.Context, digestID string) (*domain.Digest, error)

	// LatestDigest returns the newest digest of a kind.
	LatestDigest(ctx context.Context, kind domain.DigestKind) (*domain.Digest, error)

	// Stats summarises the store.
	Stats(ctx context.Context) (*domain.ContentStats, error)
}
