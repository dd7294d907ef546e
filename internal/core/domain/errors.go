package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source or digest kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrExtraction indicates a file could not yield any text.
	// The file is stored as a degraded record rather than aborting the batch.
	ErrExtraction = errors.New("extraction failed")

	// ErrEnrichment indicates the LLM returned nothing usable.
	// Enrichment degrades to heuristic extraction.
	ErrEnrichment = errors.New("enrichment failed")

	// ErrStorage indicates the backing store is unreachable or a write conflicted.
	ErrStorage = errors.New("storage error")

	// ErrNetwork indicates a URL fetch or remote call failed.
	ErrNetwork = errors.New("network error")

	// ErrConfiguration indicates missing or invalid configuration,
	// such as an absent API credential.
	ErrConfiguration = errors.New("configuration error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Features requiring LLM (summaries, trend analysis) degrade to placeholders.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrNothingToReport indicates a digest has no underlying content.
	ErrNothingToReport = errors.New("nothing to report")

	// Tooling Errors.

	// ErrRendererUnavailable indicates no PDF page renderer is installed.
	ErrRendererUnavailable = errors.New("page renderer unavailable")

	// ErrOCRUnavailable indicates the OCR engine is not installed or disabled.
	ErrOCRUnavailable = errors.New("OCR engine unavailable")
)
