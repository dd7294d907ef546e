package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptSystem is the system prompt for every enrichment and digest call.
	// This prompt has no format placeholders.
	PromptSystem = "system"

	// PromptSummarize summarises typed or extracted content.
	// The template expects a %s placeholder for the content.
	PromptSummarize = "summarize"

	// PromptTranscribe cleans up OCR output from handwritten or scanned content.
	// The template expects a %s placeholder for the content.
	PromptTranscribe = "transcribe"

	// PromptExtractTasks asks for a JSON array of tasks.
	// The template expects a %s placeholder for the content.
	PromptExtractTasks = "extract_tasks"

	// PromptExtractTags asks for a JSON array of tags.
	// The template expects a %s placeholder for the content.
	PromptExtractTags = "extract_tags"

	// PromptVisionPage transcribes one rendered PDF page.
	// The template expects %d (page number) and %s (file name) placeholders.
	PromptVisionPage = "vision_page"

	// PromptVisionImage transcribes a standalone image.
	// The template expects a %s placeholder for the file name.
	PromptVisionImage = "vision_image"

	// PromptVisionSystem is the system prompt for image calls.
	// This prompt has no format placeholders.
	PromptVisionSystem = "vision_system"

	// PromptWeeklyDigest writes the weekly digest body.
	// The template expects %s placeholders for the period and the content list.
	PromptWeeklyDigest = "weekly_digest"

	// PromptMonthlySummary narrates the month's content.
	// The template expects %s placeholders for the month and the content overview.
	PromptMonthlySummary = "monthly_summary"

	// PromptMonthlyTrends compares weekly digests within a month.
	// The template expects %s placeholders for the month and the weekly digests.
	PromptMonthlyTrends = "monthly_trends"

	// PromptTopicAnalysis analyses content sharing a tag.
	// The template expects %s placeholders for the tag and the snippets.
	PromptTopicAnalysis = "topic_analysis"

	// PromptSuggestedReading recommends resources for recent topics.
	// The template expects a %s placeholder for the topic list.
	PromptSuggestedReading = "suggested_reading"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
