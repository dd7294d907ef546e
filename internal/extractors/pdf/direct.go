package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/behole/scribble/internal/logger"
)

// DefaultHandwritingThreshold is the words-per-page below which a PDF is
// treated as scanned or handwritten.
const DefaultHandwritingThreshold = 20

// DirectStrategy reads the PDF text layer.
type DirectStrategy struct {
	threshold int
}

// NewDirect creates the text layer strategy. A threshold below 1 uses
// DefaultHandwritingThreshold.
func NewDirect(threshold int) *DirectStrategy {
	if threshold < 1 {
		threshold = DefaultHandwritingThreshold
	}
	return &DirectStrategy{threshold: threshold}
}

// Name returns "direct".
func (s *DirectStrategy) Name() string { return "direct" }

// Recover extracts the text layer and decides whether it is enough.
// pdfcpu supplies the page count and image detection; ledongthuc/pdf
// supplies the text. The file is unreadable only when both fail.
func (s *DirectStrategy) Recover(_ context.Context, a *Attempt) (Verdict, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return Failed, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	pages, hasImages, structErr := inspect(data)
	if structErr != nil {
		logger.Debug("pdf: pdfcpu could not validate %s: %v", a.Filename, structErr)
	}

	text, textPages, textErr := readText(data)
	if textErr != nil && structErr != nil {
		return Failed, fmt.Errorf("%w: %v", ErrUnreadable, textErr)
	}
	if textErr != nil {
		logger.Debug("pdf: no text layer in %s: %v", a.Filename, textErr)
	}

	if pages == 0 {
		pages = textPages
	}
	a.PageCount = pages
	a.HasImages = hasImages
	a.DirectText = strings.TrimSpace(text)

	words := len(strings.Fields(a.DirectText))
	a.WordsPerPage = float64(words) / float64(max(1, pages))
	a.PossiblyHandwritten = a.DirectText == "" || a.WordsPerPage < float64(s.threshold)

	if a.PossiblyHandwritten {
		return Insufficient, nil
	}
	return Sufficient, nil
}

// inspect validates the PDF with pdfcpu and reports its page count and
// whether any page carries images.
func inspect(data []byte) (pages int, hasImages bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, false, fmt.Errorf("pdfcpu read: %w", err)
	}

	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				hasImages = true
				break
			}
		}
	}
	return ctx.PageCount, hasImages, nil
}

// readText concatenates the plain text of every page. Pages that fail to
// decode are skipped.
func readText(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text layer panic: %v", r)
		}
	}()

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open text layer: %w", err)
	}

	pages = reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			logger.Debug("pdf: skipping text of page %d: %v", i, perr)
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), pages, nil
}
