package domain

// OutcomeStatus classifies the result of processing one file.
type OutcomeStatus string

// Available outcome statuses.
const (
	// OutcomeSuccess means text was extracted and stored.
	OutcomeSuccess OutcomeStatus = "success"

	// OutcomeDegraded means a record was stored but extraction or
	// enrichment fell back to a placeholder or heuristic result.
	OutcomeDegraded OutcomeStatus = "degraded"

	// OutcomeFailed means nothing was stored for the file.
	OutcomeFailed OutcomeStatus = "failed"

	// OutcomeSkipped means the file's hash was already ingested.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// ProcessingOutcome is the typed result of ingesting one file.
type ProcessingOutcome struct {
	// Path is the processed file.
	Path string

	// Kind is the detected source kind.
	Kind SourceKind

	// Status classifies the result.
	Status OutcomeStatus

	// FileID is set when a SourceFile exists for the path's hash.
	FileID string

	// ContentID is set when a ContentRecord was stored.
	ContentID string

	// Tags and Tasks are what was stored for the record.
	Tags  []string
	Tasks []string

	// Note explains a degraded, failed or skipped outcome.
	Note string

	// Err is the underlying error for degraded and failed outcomes.
	Err error
}

// OK returns true when the file was stored or already known.
func (o ProcessingOutcome) OK() bool {
	return o.Status == OutcomeSuccess || o.Status == OutcomeSkipped
}
