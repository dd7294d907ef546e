// Package pdf recovers text from PDF files through an ordered list of
// strategies: the text layer, page rendering, OCR and vision transcription.
package pdf

import (
	"context"
	"fmt"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/extractors/heuristic"
	"github.com/behole/scribble/internal/prompts"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Options configures the default strategy list.
type Options struct {
	// HandwritingThreshold is the words-per-page below which rendering is
	// attempted.
	HandwritingThreshold int

	// Renderers are tried in order. Empty disables rendering.
	Renderers []driven.PageRenderer

	// OCR may be nil to skip OCR.
	OCR driven.OCREngine

	// LLM may be nil to skip vision transcription.
	LLM driven.LLMService

	// Prompts resolves the vision page prompt.
	Prompts *prompts.Loader
}

// Extractor handles PDF files.
type Extractor struct {
	pipeline *Pipeline
}

// New creates a PDF extractor with the direct, render, OCR and vision
// strategies.
func New(opts Options) *Extractor {
	return NewWithPipeline(NewPipeline(
		NewDirect(opts.HandwritingThreshold),
		NewRender(opts.Renderers...),
		NewOCR(opts.OCR),
		NewVision(opts.LLM, opts.Prompts),
	))
}

// NewWithPipeline creates a PDF extractor over a custom pipeline.
func NewWithPipeline(p *Pipeline) *Extractor {
	return &Extractor{pipeline: p}
}

// Kind returns the source kind this extractor handles.
func (e *Extractor) Kind() domain.SourceKind {
	return domain.KindPDF
}

// Extract runs the recovery pipeline. Raw text is never empty. A file
// that is not a readable PDF yields an error-tagged extraction together
// with an error wrapping domain.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, path string) (domain.Extraction, error) {
	a, err := e.pipeline.Run(ctx, path)
	if err != nil {
		result := domain.NewExtraction()
		result.RawText = fmt.Sprintf("Error processing PDF: %v", err)
		result.Tags = []string{"error", "pdf"}
		result.Metadata["error"] = err.Error()
		result.Metadata["filename"] = a.Filename
		return result, fmt.Errorf("%w: %s: %w", domain.ErrExtraction, a.Filename, err)
	}

	raw := Compose(a)
	result := domain.NewExtraction()
	result.RawText = raw
	result.PossiblyHandwritten = a.PossiblyHandwritten
	if raw != NoTextPlaceholder {
		result.Tags = heuristic.Tags(raw)
		result.Tasks = heuristic.Tasks(raw)
	}
	result.Metadata = metadata(a)
	return result, nil
}

func metadata(a *Attempt) map[string]any {
	steps := make([]string, 0, len(a.Steps))
	for _, s := range a.Steps {
		steps = append(steps, s.Strategy+":"+s.Verdict.String())
	}
	m := map[string]any{
		"filename":             a.Filename,
		"pages":                a.PageCount,
		"might_be_handwritten": a.PossiblyHandwritten,
		"words_per_page":       a.WordsPerPage,
		"has_images":           a.HasImages,
		"ocr_attempted":        a.OCRAttempted,
		"ocr_success":          a.OCRSuccess,
		"vision_pages":         len(a.VisionTexts),
		"recovery":             steps,
	}
	if a.Renderer != "" {
		m["renderer"] = a.Renderer
	}
	return m
}
