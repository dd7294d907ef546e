// Package image extracts text from photos, scans and screenshots.
package image

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/extractors/heuristic"
	"github.com/behole/scribble/internal/logger"
	"github.com/behole/scribble/internal/metrics"
	"github.com/behole/scribble/internal/prompts"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor runs OCR over an image, falling back to a vision model when
// OCR yields nothing.
type Extractor struct {
	ocr     driven.OCREngine
	llm     driven.LLMService
	prompts *prompts.Loader
}

// New creates an image extractor. A nil ocr disables OCR; a nil llm
// disables the vision fallback.
func New(ocr driven.OCREngine, llm driven.LLMService, loader *prompts.Loader) *Extractor {
	return &Extractor{ocr: ocr, llm: llm, prompts: loader}
}

// Kind returns the source kind this extractor handles.
func (e *Extractor) Kind() domain.SourceKind {
	return domain.KindImage
}

// Extract recognises text in the image at path. The result is always
// flagged as possibly handwritten. When neither OCR nor vision produced
// text because a backend was missing or failed, the partial result is
// returned with an error wrapping domain.ErrOCRUnavailable.
func (e *Extractor) Extract(ctx context.Context, path string) (domain.Extraction, error) {
	filename := filepath.Base(path)
	result := domain.NewExtraction()
	result.PossiblyHandwritten = true
	result.Metadata["filename"] = filename

	var ocrErr error
	if e.ocr == nil {
		result.Metadata["ocr_engine"] = "none"
		ocrErr = fmt.Errorf("%w: OCR disabled", domain.ErrOCRUnavailable)
	} else {
		result.Metadata["ocr_engine"] = e.ocr.Name()
		text, err := e.ocr.Recognize(ctx, path)
		if err != nil {
			logger.Warn("image: OCR failed for %s: %v", filename, err)
			ocrErr = fmt.Errorf("recognize %s: %w", filename, err)
		}
		result.RawText = strings.TrimSpace(text)
	}

	if result.RawText == "" && e.llm != nil {
		prompt := e.prompts.Format(driven.PromptVisionImage, filename)
		text, err := e.llm.CompleteWithImage(ctx, path, prompt)
		metrics.RecordLLM("vision_image", err)
		switch {
		case err != nil:
			logger.Warn("image: vision transcription failed for %s: %v", filename, err)
		case strings.TrimSpace(text) != "":
			result.RawText = strings.TrimSpace(text)
			result.Metadata["vision"] = true
			ocrErr = nil
		}
	}

	result.Tags = heuristic.Tags(result.RawText)
	result.Tasks = heuristic.Tasks(result.RawText)

	if result.RawText == "" && ocrErr != nil {
		result.Metadata["note"] = ocrErr.Error()
		return result, ocrErr
	}
	return result, nil
}
