package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
	"github.com/behole/scribble/internal/metrics"
	"github.com/behole/scribble/internal/prompts"
)

// VisionStrategy transcribes each rendered page with a vision model.
type VisionStrategy struct {
	llm     driven.LLMService
	prompts *prompts.Loader
}

// NewVision creates the vision strategy. A nil llm makes it fail fast.
func NewVision(llm driven.LLMService, loader *prompts.Loader) *VisionStrategy {
	return &VisionStrategy{llm: llm, prompts: loader}
}

// Name returns "vision".
func (s *VisionStrategy) Name() string { return "vision" }

// Recover sends every page image to the vision model. It runs whether or
// not OCR found text. A page that fails is logged and skipped.
func (s *VisionStrategy) Recover(ctx context.Context, a *Attempt) (Verdict, error) {
	if len(a.PageImages) == 0 {
		return Failed, errNoPageImages
	}
	if s.llm == nil {
		return Failed, domain.ErrLLMUnavailable
	}

	for i, img := range a.PageImages {
		if err := ctx.Err(); err != nil {
			return Failed, err
		}
		prompt := s.prompts.Format(driven.PromptVisionPage, i+1, a.Filename)
		text, err := s.llm.CompleteWithImage(ctx, img, prompt)
		metrics.RecordLLM("vision_page", err)
		if err != nil {
			logger.Warn("pdf: vision failed for page %d of %s: %v", i+1, a.Filename, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		a.VisionTexts = append(a.VisionTexts, PageText{Page: i + 1, Text: text})
	}

	if len(a.VisionTexts) == 0 {
		return Insufficient, fmt.Errorf("vision returned no text for %d pages", len(a.PageImages))
	}
	return Sufficient, nil
}
