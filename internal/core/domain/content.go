package domain

import (
	"path/filepath"
	"time"
)

// SourceFile is a file from the notes folder.
// Its identity is the content hash: re-ingesting the same bytes is a no-op.
type SourceFile struct {
	// ID is the unique identifier for the file.
	ID string

	// Path is where the file was found.
	Path string

	// Kind is the detected source kind.
	Kind SourceKind

	// Hash is the hex-encoded MD5 of the file contents.
	Hash string

	// Metadata holds extractor output such as page count or fetch URL.
	Metadata map[string]any

	// AddedAt is when the file was first ingested.
	AddedAt time.Time

	// LastProcessedAt is when content was last extracted from the file.
	LastProcessedAt time.Time
}

// ContentRecord is one extraction attempt for a SourceFile.
// Reprocessing appends new records; records are never overwritten
// except to fill in ProcessedText.
type ContentRecord struct {
	// ID is the unique identifier for the record.
	ID string

	// FileID links to the owning SourceFile.
	FileID string

	// Kind is the content type, usually the source kind.
	Kind SourceKind

	// RawText is the text recovered without LLM refinement.
	RawText string

	// ProcessedText is the LLM summary or transcription, if any.
	ProcessedText string

	// ProcessedAt is when the record was created.
	ProcessedAt time.Time
}

// ContentView is a ContentRecord joined with its file and tags.
// It is the shape returned by range and tag queries.
type ContentView struct {
	ContentRecord

	// Path is the owning file's path.
	Path string

	// FileKind is the owning file's detected kind.
	FileKind SourceKind

	// Metadata is the owning file's metadata.
	Metadata map[string]any

	// Tags are the tag names linked to this record.
	Tags []string
}

// Filename returns the base name of the owning file.
func (v ContentView) Filename() string {
	return filepath.Base(v.Path)
}

// Text returns processed text when present, otherwise raw text.
func (v ContentView) Text() string {
	if v.ProcessedText != "" {
		return v.ProcessedText
	}
	return v.RawText
}

// Tag is a deduplicated, case-sensitive label.
type Tag struct {
	ID   string
	Name string
}

// TagCount is a tag with the number of content records linked to it.
type TagCount struct {
	Name  string
	Count int
}

// Task is an actionable item found in content.
// Completion is changed by the user, never by the pipeline.
type Task struct {
	// ID is the unique identifier for the task.
	ID string

	// ContentID links to the content record the task came from.
	ContentID string

	// Text is the task description.
	Text string

	// Completed is false until the user marks the task done.
	Completed bool

	// DueDate is optional.
	DueDate *time.Time

	// CreatedAt is when the task was extracted.
	CreatedAt time.Time
}

// TaskFilter narrows task queries.
type TaskFilter struct {
	// IncludeCompleted returns completed tasks as well as active ones.
	IncludeCompleted bool

	// Limit caps the number of tasks returned. Zero means no limit.
	Limit int
}

// Page describes an offset/limit window over a listing.
type Page struct {
	Offset int
	Limit  int
}

// ContentStats summarises what the store holds.
type ContentStats struct {
	Files          int
	ContentRecords int
	Unprocessed    int
	Tags           int
	OpenTasks      int
	CompletedTasks int
	Digests        int
	ByKind         map[SourceKind]int
}
