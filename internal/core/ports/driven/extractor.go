package driven

import (
	"context"

	"github.com/behole/scribble/internal/core/domain"
)

// Extractor turns a file of one source kind into raw text plus heuristic
// tags, tasks and metadata.
//
// Implementations must return a normalised Extraction (no nil collections)
// even when they also return an error, so callers can store what was found.
type Extractor interface {
	// Kind returns the source kind this extractor handles.
	Kind() domain.SourceKind

	// Extract reads the file at path.
	Extract(ctx context.Context, path string) (domain.Extraction, error)
}

// ExtractorRegistry selects the extractor for a source kind.
type ExtractorRegistry interface {
	// For returns the extractor registered for kind.
	// Unknown kinds resolve to the KindUnknown extractor.
	For(kind domain.SourceKind) Extractor
}

// CommandRunner executes external commands.
// Injected so tests can run without the real tools installed.
type CommandRunner interface {
	// Run executes name with args and returns its standard output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath reports the resolved path of an executable.
	LookPath(name string) (string, error)
}
