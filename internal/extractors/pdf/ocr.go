package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
)

// MinOCRChars is the length a page's OCR output must exceed to be kept.
// Shorter output is treated as recognition noise.
const MinOCRChars = 50

var errNoPageImages = errors.New("no rendered page images")

// OCRStrategy runs OCR over each rendered page.
type OCRStrategy struct {
	engine driven.OCREngine
}

// NewOCR creates the OCR strategy. A nil engine makes it fail fast.
func NewOCR(engine driven.OCREngine) *OCRStrategy {
	return &OCRStrategy{engine: engine}
}

// Name returns "ocr".
func (s *OCRStrategy) Name() string { return "ocr" }

// Recover recognises every page image. A page that fails is logged and
// skipped. OCR is never sufficient on its own so vision still runs.
func (s *OCRStrategy) Recover(ctx context.Context, a *Attempt) (Verdict, error) {
	if len(a.PageImages) == 0 {
		return Failed, errNoPageImages
	}
	if s.engine == nil {
		return Failed, fmt.Errorf("%w: OCR disabled", domain.ErrOCRUnavailable)
	}

	a.OCRAttempted = true
	for i, img := range a.PageImages {
		if err := ctx.Err(); err != nil {
			return Failed, err
		}
		text, err := s.engine.Recognize(ctx, img)
		if err != nil {
			logger.Warn("pdf: OCR failed for page %d of %s: %v", i+1, a.Filename, err)
			continue
		}
		if len(strings.TrimSpace(text)) <= MinOCRChars {
			logger.Debug("pdf: discarding short OCR output for page %d of %s", i+1, a.Filename)
			continue
		}
		a.OCRTexts = append(a.OCRTexts, PageText{Page: i + 1, Text: text})
	}
	a.OCRSuccess = len(a.OCRTexts) > 0
	return Insufficient, nil
}
