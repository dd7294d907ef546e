package domain

import "strings"

// Extraction is the common output of every extractor.
// Fields are never nil, even on partial failure.
type Extraction struct {
	// RawText is the recovered text. Empty when nothing could be read.
	RawText string

	// Tags are heuristic tags found in the text.
	Tags []string

	// Tasks are heuristic tasks found in the text.
	Tasks []string

	// Metadata holds kind-specific details (page count, fetch URL, ...).
	Metadata map[string]any

	// PossiblyHandwritten selects the transcription prompt during enrichment.
	PossiblyHandwritten bool
}

// NewExtraction returns an Extraction with empty, non-nil collections.
func NewExtraction() Extraction {
	return Extraction{
		Tags:     []string{},
		Tasks:    []string{},
		Metadata: map[string]any{},
	}
}

// Normalise replaces nil collections with empty ones.
func (e Extraction) Normalise() Extraction {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.Tasks == nil {
		e.Tasks = []string{}
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return e
}

// Enrichment is the output of the enrichment stage.
type Enrichment struct {
	// ProcessedText is the LLM summary or transcription.
	// Empty when no LLM is configured or the call failed.
	ProcessedText string

	// Tags is the union of heuristic and LLM tags.
	Tags []string

	// Tasks are LLM tasks when available, otherwise heuristic tasks.
	Tasks []string

	// UsedLLM is true if any LLM call contributed to the result.
	UsedLLM bool
}

// MergeTags returns the union of a and b, keeping first-seen order.
func MergeTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, t := range list {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// PDFNoTextPlaceholder is the raw text of a PDF nothing could be read from.
const PDFNoTextPlaceholder = "No text could be extracted - may be image-based PDF"

// HasText reports whether an extraction recovered any real text.
func (e Extraction) HasText() bool {
	text := strings.TrimSpace(e.RawText)
	return text != "" && text != PDFNoTextPlaceholder
}
