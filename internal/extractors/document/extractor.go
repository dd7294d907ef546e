// Package document extracts text from plain documents (txt, md, rtf, doc,
// docx) and from files of unknown kind.
package document

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/extractors/heuristic"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// sniffLen is how much of a file is inspected for binary content.
const sniffLen = 8192

// Extractor reads documents as text.
type Extractor struct {
	kind          domain.SourceKind
	maxTextLength int
}

// New creates a document extractor. Text longer than maxTextLength runes is
// truncated; zero disables truncation.
func New(maxTextLength int) *Extractor {
	return &Extractor{kind: domain.KindDocument, maxTextLength: maxTextLength}
}

// NewUnknown creates the pass-through extractor for unrecognised files.
// It reads text files and yields empty text for binary content.
func NewUnknown(maxTextLength int) *Extractor {
	return &Extractor{kind: domain.KindUnknown, maxTextLength: maxTextLength}
}

// Kind returns the source kind this extractor handles.
func (e *Extractor) Kind() domain.SourceKind {
	return e.kind
}

// Extract reads the file at path.
func (e *Extractor) Extract(_ context.Context, path string) (domain.Extraction, error) {
	result := domain.NewExtraction()
	result.Metadata["filename"] = filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, filepath.Base(path), err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	result.Metadata["format"] = strings.TrimPrefix(ext, ".")

	var text string
	switch {
	case ext == ".docx":
		text, err = docxText(data, result.Metadata)
		if err != nil {
			return result, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, filepath.Base(path), err)
		}
	case e.kind == domain.KindUnknown && isBinary(data):
		result.Metadata["binary"] = true
		return result, nil
	default:
		text = decodeText(data)
	}

	if ext == ".md" {
		if title := markdownTitle(text); title != "" {
			result.Metadata["title"] = title
		}
	}

	text, truncated := truncate(text, e.maxTextLength)
	if truncated {
		result.Metadata["truncated"] = true
	}

	result.RawText = text
	result.Tags = heuristic.Tags(text)
	result.Tasks = heuristic.Tasks(text)
	return result, nil
}

// decodeText returns data as UTF-8, replacing invalid sequences and a BOM.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}

// isBinary reports whether the head of data contains NUL bytes.
func isBinary(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// truncate caps text at limit runes. A limit of zero or less disables it.
func truncate(text string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:limit]), true
}

// markdownTitle returns the first level-one heading.
func markdownTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// docxText opens data as an Office Open XML archive and returns the body text.
func docxText(data []byte, metadata map[string]any) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}
	text, err := documentText(reader)
	if err != nil {
		return "", err
	}
	if title := coreTitle(reader); title != "" {
		metadata["title"] = title
	}
	return text, nil
}
