// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Turns a file of one SourceKind into text and signals
//   - ExtractorRegistry: Selects the extractor for a SourceKind
//   - ContentStore: File, content, tag, task and digest persistence
//   - SchedulerStore: Scheduled digest state and history
//   - ConfigStore: Application configuration
//   - PromptStore: LLM prompt templates
//   - ArtifactWriter: Writes rendered digests to the output directory
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Summaries, task/tag extraction, vision. Without it, heuristic extraction is used.
//   - OCREngine: Image and scanned-PDF text. Without it, images yield empty text.
//   - PageRenderer: PDF page rasterisation. Without it, scanned PDFs keep their direct text.
//   - Fetcher: URL shortcut fetching. Without it, URL shortcuts fail extraction.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
