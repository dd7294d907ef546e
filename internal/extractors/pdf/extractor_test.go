package pdf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/prompts"
)

func newTestExtractor(runner *mockRunner, ocr driven.OCREngine, llm driven.LLMService) *Extractor {
	return New(Options{
		HandwritingThreshold: DefaultHandwritingThreshold,
		Renderers:            []driven.PageRenderer{NewPopplerRenderer(runner), NewMuPDFRenderer(runner)},
		OCR:                  ocr,
		LLM:                  llm,
		Prompts:              prompts.NewLoader(nil),
	})
}

func TestExtract_TextRichPDFSkipsFallbacks(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = "word"
	}
	words[0] = "#report"
	path := buildPDF(t, strings.Join(words, " "))

	runner := &mockRunner{pages: 1}
	ocr := &mockOCR{}
	llm := &mockLLM{}

	result, err := newTestExtractor(runner, ocr, llm).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Empty(t, runner.calls, "rendering must not run for text-rich PDFs")
	assert.Zero(t, ocr.calls)
	assert.Empty(t, llm.prompts)
	assert.False(t, result.PossiblyHandwritten)
	assert.Len(t, strings.Fields(result.RawText), 30)
	assert.Contains(t, result.Tags, "report")
	assert.Equal(t, 1, result.Metadata["pages"])
	assert.Equal(t, false, result.Metadata["ocr_attempted"])
	assert.GreaterOrEqual(t, result.Metadata["words_per_page"].(float64), 20.0)
}

func TestExtract_SparsePDFWithoutRendererKeepsDirectText(t *testing.T) {
	path := buildPDF(t, "Hi")
	runner := &mockRunner{missing: map[string]bool{"pdftoppm": true, "mutool": true}}

	result, err := newTestExtractor(runner, &mockOCR{}, &mockLLM{}).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, result.PossiblyHandwritten)
	assert.NotEmpty(t, result.RawText)
	assert.Equal(t, true, result.Metadata["might_be_handwritten"])
	assert.Equal(t, false, result.Metadata["ocr_attempted"])
}

func TestExtract_ScannedPDFUsesOCRAndVision(t *testing.T) {
	path := buildPDF(t, "", "")
	runner := &mockRunner{pages: 2}
	long := strings.Repeat("handwritten line ", 5)
	ocr := &mockOCR{texts: map[string]string{"page-01.png": long, "page-02.png": long}}
	llm := &mockLLM{answers: []string{"TODO: call the bank", "#finance notes"}}

	result, err := newTestExtractor(runner, ocr, llm).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, ocr.calls)
	assert.Len(t, llm.prompts, 2)
	assert.Equal(t,
		"Page 1 (analyzed by vision):\nTODO: call the bank\n\nPage 2 (analyzed by vision):\n#finance notes\n\n",
		result.RawText)
	assert.Equal(t, []string{"call the bank"}, result.Tasks)
	assert.Equal(t, []string{"finance"}, result.Tags)
	assert.Equal(t, "pdftoppm", result.Metadata["renderer"])
	assert.Equal(t, true, result.Metadata["ocr_success"])
	assert.Equal(t, 2, result.Metadata["vision_pages"])
}

func TestExtract_ScannedPDFWithNothingRecovered(t *testing.T) {
	path := buildPDF(t, "")
	runner := &mockRunner{missing: map[string]bool{"pdftoppm": true, "mutool": true}}

	result, err := newTestExtractor(runner, nil, nil).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, NoTextPlaceholder, result.RawText)
	assert.Empty(t, result.Tags)
	assert.NotNil(t, result.Tasks)
}

func TestExtract_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0600))
	runner := &mockRunner{pages: 1}

	result, err := newTestExtractor(runner, &mockOCR{}, &mockLLM{}).Extract(context.Background(), path)
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.True(t, strings.HasPrefix(result.RawText, "Error processing PDF: "))
	assert.Equal(t, []string{"error", "pdf"}, result.Tags)
	assert.Equal(t, "broken.pdf", result.Metadata["filename"])
	assert.NotEmpty(t, result.Metadata["error"])
	assert.Empty(t, runner.calls)
}

func TestExtract_Kind(t *testing.T) {
	assert.Equal(t, domain.KindPDF, New(Options{}).Kind())
}
