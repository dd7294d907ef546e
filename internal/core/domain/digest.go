package domain

import "time"

// DigestKind identifies a kind of compiled report.
type DigestKind string

// Available digest kinds.
const (
	DigestWeekly           DigestKind = "weekly"
	DigestMonthly          DigestKind = "monthly"
	DigestTaskList         DigestKind = "task_list"
	DigestTopic            DigestKind = "topic"
	DigestSuggestedReading DigestKind = "suggested_reading"
	DigestFull             DigestKind = "full"
)

// AllDigestKinds returns every digest kind in a stable order.
func AllDigestKinds() []DigestKind {
	return []DigestKind{
		DigestWeekly, DigestMonthly, DigestTaskList, DigestTopic, DigestSuggestedReading, DigestFull,
	}
}

// IsValid returns true if the digest kind is recognised.
func (k DigestKind) IsValid() bool {
	switch k {
	case DigestWeekly, DigestMonthly, DigestTaskList, DigestTopic, DigestSuggestedReading, DigestFull:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k DigestKind) String() string {
	return string(k)
}

// ParseDigestKind parses a digest kind, accepting a few CLI-friendly aliases.
func ParseDigestKind(s string) (DigestKind, error) {
	switch s {
	case "tasks", "task-list":
		return DigestTaskList, nil
	case "reading", "suggested-reading":
		return DigestSuggestedReading, nil
	}
	k := DigestKind(s)
	if !k.IsValid() {
		return "", ErrUnsupportedType
	}
	return k, nil
}

// Digest is a generated report. Digests are immutable:
// regenerating creates a new Digest.
type Digest struct {
	// ID is the unique identifier for the digest.
	ID string

	// Kind is the report kind.
	Kind DigestKind

	// Body is the rendered markdown document.
	Body string

	// PeriodStart and PeriodEnd bound the reported window [start, end).
	PeriodStart time.Time
	PeriodEnd   time.Time

	// CreatedAt is when the digest was generated.
	CreatedAt time.Time
}

// Intersects reports whether the digest window overlaps [start, end).
func (d Digest) Intersects(start, end time.Time) bool {
	return d.PeriodStart.Before(end) && d.PeriodEnd.After(start)
}

// DigestOptions parameterise on-demand digest generation.
type DigestOptions struct {
	// End closes the weekly window. Zero means now.
	End time.Time

	// Year and Month select the monthly window. Zero means the previous month.
	Year  int
	Month time.Month

	// Tag selects the topic. Empty means the most used tag.
	Tag string
}

// DigestResult is a saved digest with the artifacts written for it.
type DigestResult struct {
	Digest Digest

	// Paths are the artifact files written for the digest.
	Paths []string
}
