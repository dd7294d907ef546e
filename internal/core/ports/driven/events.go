package driven

import (
	"context"

	"github.com/behole/scribble/internal/core/domain"
)

// FileEvent is a new or changed file in the notes folder.
type FileEvent struct {
	// Path is the absolute file path.
	Path string

	// Kind is the kind detected from the extension.
	Kind domain.SourceKind

	// Hash is the content hash seen when the event was raised.
	Hash string
}

// FileEventSource discovers files in the notes folder.
type FileEventSource interface {
	// Scan lists every eligible file currently in the folder.
	Scan(ctx context.Context) ([]string, error)

	// Watch delivers events until ctx is cancelled, then closes the channel.
	// Events are de-duplicated by content hash.
	Watch(ctx context.Context) (<-chan FileEvent, error)
}
