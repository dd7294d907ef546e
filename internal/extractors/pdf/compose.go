package pdf

import (
	"fmt"
	"strings"

	"github.com/behole/scribble/internal/core/domain"
)

// NoTextPlaceholder is the raw text of a PDF nothing could be read from.
const NoTextPlaceholder = domain.PDFNoTextPlaceholder

// Compose builds the final raw text from an attempt, preferring in order:
// the page-labelled vision transcript, direct text followed by OCR text,
// direct text alone, OCR text alone, and finally NoTextPlaceholder.
func Compose(a *Attempt) string {
	if len(a.VisionTexts) > 0 {
		var b strings.Builder
		for _, p := range a.VisionTexts {
			fmt.Fprintf(&b, "Page %d (analyzed by vision):\n%s\n\n", p.Page, p.Text)
		}
		return b.String()
	}

	ocr := ocrText(a.OCRTexts)
	switch {
	case a.DirectText != "" && ocr != "":
		return fmt.Sprintf("Text extracted directly from PDF:\n%s\n\nText extracted via OCR:\n%s", a.DirectText, ocr)
	case a.DirectText != "":
		return a.DirectText
	case ocr != "":
		return "Text extracted via OCR:\n" + ocr
	default:
		return NoTextPlaceholder
	}
}

func ocrText(pages []PageText) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}
