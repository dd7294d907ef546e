package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
	"github.com/behole/scribble/internal/metrics"
	"github.com/behole/scribble/internal/prompts"
)

const (
	// maxEnrichChars caps the text sent to the LLM.
	maxEnrichChars  = 8000
	truncatedSuffix = "...[truncated]"

	// listTokens is the budget for task and tag extraction calls.
	listTokens = 1000
)

// EnrichmentService refines extracted text with the LLM: a summary or
// transcription plus tasks and tags. Without an LLM it passes the
// extractor's heuristic tags and tasks through unchanged.
type EnrichmentService struct {
	llm      driven.LLMService
	prompts  *prompts.Loader
	settings domain.LLMSettings
}

// NewEnrichmentService creates an enrichment service. llm may be nil.
func NewEnrichmentService(llm driven.LLMService, loader *prompts.Loader, settings domain.LLMSettings) *EnrichmentService {
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = domain.DefaultSettings().LLM.MaxTokens
	}
	return &EnrichmentService{
		llm:      llm,
		prompts:  loader,
		settings: settings,
	}
}

// Enabled reports whether an LLM is configured.
func (s *EnrichmentService) Enabled() bool {
	return s != nil && s.llm != nil
}

// Enrich refines an extraction. It never fails: LLM errors leave the
// processed text empty and keep the heuristic tags and tasks.
func (s *EnrichmentService) Enrich(ctx context.Context, kind domain.SourceKind, ext domain.Extraction) domain.Enrichment {
	ext = ext.Normalise()
	result := domain.Enrichment{
		Tags:  domain.MergeTags(ext.Tags, nil),
		Tasks: append([]string{}, ext.Tasks...),
	}

	if !s.Enabled() {
		if kind == domain.KindPDF && !ext.HasText() && len(result.Tags) == 0 {
			result.Tags = []string{"pdf", "scan"}
		}
		return result
	}
	if !ext.HasText() {
		logger.Debug("enrich: no text to send for %s content", kind)
		return result
	}

	text := truncate(ext.RawText)

	promptName, op := driven.PromptSummarize, "summarize"
	if ext.PossiblyHandwritten {
		promptName, op = driven.PromptTranscribe, "transcribe"
	}
	if processed, ok := s.complete(ctx, op, s.prompts.Format(promptName, text), s.settings.MaxTokens); ok {
		result.ProcessedText = processed
		result.UsedLLM = true
	}

	if resp, ok := s.complete(ctx, "extract_tasks", s.prompts.Format(driven.PromptExtractTasks, text), listTokens); ok {
		if tasks := parseStringArray(resp); len(tasks) > 0 {
			result.Tasks = tasks
			result.UsedLLM = true
		}
	}

	if resp, ok := s.complete(ctx, "extract_tags", s.prompts.Format(driven.PromptExtractTags, text), listTokens); ok {
		tags := cleanTags(parseStringArray(resp))
		if len(tags) > 0 {
			result.Tags = domain.MergeTags(result.Tags, tags)
			result.UsedLLM = true
		}
	}

	return result
}

// complete runs one LLM call. A failure or an empty reply returns false.
func (s *EnrichmentService) complete(ctx context.Context, op, prompt string, maxTokens int) (string, bool) {
	text, err := s.llm.Complete(ctx, driven.CompletionRequest{
		System:      s.prompts.Get(driven.PromptSystem),
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: s.settings.Temperature,
	})
	metrics.RecordLLM(op, err)
	if err != nil {
		logger.Warn("enrich: %s failed: %v", op, err)
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("enrich: %s returned nothing", op)
		return "", false
	}
	return text, true
}

func truncate(text string) string {
	if len(text) <= maxEnrichChars {
		return text
	}
	cut := maxEnrichChars
	// Back up to a rune boundary.
	for cut > 0 && !utf8RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + truncatedSuffix
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// parseStringArray reads a JSON array of strings from an LLM reply. The
// array may be the whole reply, fenced in a code block, or embedded in
// prose. Anything unparseable yields an empty list.
func parseStringArray(resp string) []string {
	resp = strings.TrimSpace(resp)
	if items, ok := decodeStrings(resp); ok {
		return items
	}
	start := strings.Index(resp, "[")
	end := strings.LastIndex(resp, "]")
	if start < 0 || end <= start {
		return []string{}
	}
	if items, ok := decodeStrings(resp[start : end+1]); ok {
		return items
	}
	return []string{}
}

func decodeStrings(s string) ([]string, bool) {
	var raw []any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}
	items := make([]string, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if str = strings.TrimSpace(str); str != "" {
			items = append(items, str)
		}
	}
	return items, true
}

// cleanTags strips a leading '#', joins words with '-' and drops tags
// containing path separators.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.Join(strings.Fields(strings.TrimLeft(t, "#")), "-")
		if t == "" || strings.ContainsAny(t, "/\\") {
			continue
		}
		out = append(out, t)
	}
	return out
}
