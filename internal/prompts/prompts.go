// Package prompts holds the default LLM prompt templates and a small
// loader that prefers user-edited templates from a PromptStore.
package prompts

import (
	"fmt"
	"strings"

	"github.com/behole/scribble/internal/core/ports/driven"
)

// Defaults contains the built-in prompt templates keyed by prompt name.
// They seed the user-editable prompt directory and back any missing file.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var Defaults = map[string]string{
	driven.PromptSystem: `You are a helpful assistant that processes personal notes and documents. You extract key information, identify tasks, and organize content.`,

	driven.PromptSummarize: `Please summarize the following content concisely while preserving all key information, decisions, dates and action items.

Content:
%s`,

	driven.PromptTranscribe: `The following text was extracted from a scanned or handwritten document and may contain recognition errors. Please transcribe it into clean, readable text, fixing obvious recognition mistakes while preserving the original meaning and structure.

Text:
%s`,

	driven.PromptExtractTasks: `Extract all tasks, to-dos and action items from the following content.
Return ONLY a JSON array of strings, one task per element, for example ["email Sarah", "book flights"].
Return [] if there are no tasks.

Content:
%s`,

	driven.PromptExtractTags: `Suggest up to 5 short topic tags for the following content.
Return ONLY a JSON array of lowercase single-word strings without the # sign, for example ["work", "travel"].

Content:
%s`,

	driven.PromptVisionSystem: `You are a precise OCR engine. Transcribe text from images with perfect accuracy.`,

	driven.PromptVisionPage: `This is page %d of a PDF document named '%s'. Please extract ALL text visible in this image with perfect accuracy. Preserve the exact formatting, layout, and structure. If there are any tables, forms, or special formatting, maintain it as much as possible. Also identify any tasks, dates, or important information present.`,

	driven.PromptVisionImage: `This is an image named '%s', possibly a photo of handwritten notes, a whiteboard or a screenshot. Please extract ALL text visible in it with perfect accuracy, preserving layout and structure. Also identify any tasks, dates, or important information present.`,

	driven.PromptWeeklyDigest: `Create a weekly digest of my notes for %s.
Group related items into themes, highlight decisions and open questions, and list notable action items.
Write markdown using "##" section headings and start with a "## Summary" section.

Content processed this week:
%s`,

	driven.PromptMonthlySummary: `Write a short narrative summary of the notes I processed in %s.

Overview:
%s`,

	driven.PromptMonthlyTrends: `These are my weekly digests for %s. Identify recurring themes, shifts in focus and patterns across the weeks.
Write 3 to 6 markdown bullet points.

%s`,

	driven.PromptTopicAnalysis: `Analyze my notes tagged #%s. Describe the main ideas, how they relate, and any open questions.

Snippets:
%s`,

	driven.PromptSuggestedReading: `Based on my recent interests (%s), suggest 5 to 8 external resources (books, articles, papers or courses) worth reading.
For each, give the title, the author or source, and one sentence on why it is relevant. Use a markdown list.`,
}

// Loader resolves prompt templates from a store, falling back to Defaults.
// A nil store or a nil Loader always returns the defaults.
type Loader struct {
	store driven.PromptStore
}

// NewLoader creates a loader backed by store, which may be nil.
func NewLoader(store driven.PromptStore) *Loader {
	return &Loader{store: store}
}

// Get returns the template for name.
func (l *Loader) Get(name string) string {
	if l != nil && l.store != nil {
		if p, err := l.store.Load(name); err == nil && strings.TrimSpace(p) != "" {
			return p
		}
	}
	return Defaults[name]
}

// Format returns the template for name with args applied.
func (l *Loader) Format(name string, args ...any) string {
	return fmt.Sprintf(l.Get(name), args...)
}
