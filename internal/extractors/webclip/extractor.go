// Package webclip extracts readable text from saved HTML pages.
package webclip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/extractors/heuristic"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML web clips.
type Extractor struct{}

// New creates a web clip extractor.
func New() *Extractor {
	return &Extractor{}
}

// Kind returns the source kind this extractor handles.
func (e *Extractor) Kind() domain.SourceKind {
	return domain.KindWebClip
}

// Extract parses the HTML file at path.
func (e *Extractor) Extract(_ context.Context, path string) (domain.Extraction, error) {
	result := domain.NewExtraction()
	result.Metadata["filename"] = filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, filepath.Base(path), err)
	}

	page, err := Parse(bytes.NewReader(data))
	if err != nil {
		return result, fmt.Errorf("%w: parse %s: %v", domain.ErrExtraction, filepath.Base(path), err)
	}

	result.RawText = page.Text
	if page.Title != "" {
		result.Metadata["title"] = page.Title
	}
	if page.Canonical != "" {
		result.Metadata["source_url"] = page.Canonical
	}
	result.Tags = heuristic.Tags(page.Text)
	result.Tasks = heuristic.Tasks(page.Text)
	return result, nil
}

// Page is the readable content of an HTML document.
type Page struct {
	// Text is the visible text, one phrase per line.
	Text string

	// Title is the <title> text.
	Title string

	// Canonical is the href of <link rel="canonical">.
	Canonical string
}

// Parse reads an HTML document and returns its readable text.
// Script, style and noscript content is dropped. Lines are trimmed,
// split on runs of two spaces, and empty lines removed.
func Parse(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	collectText(doc, &buf)

	return &Page{
		Text:      normaliseLines(buf.String()),
		Title:     findTitle(doc),
		Canonical: findCanonical(doc),
	}, nil
}

// collectText walks the DOM writing text nodes, with line breaks around
// block elements.
func collectText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		}
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}

	block := n.Type == html.ElementNode && isBlock(n.DataAtom)
	if block {
		buf.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
	if block {
		buf.WriteByte('\n')
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Hr, atom.Li, atom.Ul, atom.Ol, atom.Tr, atom.Table,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Title, atom.Dd, atom.Dt:
		return true
	}
	return false
}

// normaliseLines trims each line, splits on double spaces and joins the
// non-empty phrases with newlines.
func normaliseLines(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				out = append(out, phrase)
			}
		}
	}
	return strings.Join(out, "\n")
}

// findTitle extracts the <title> text.
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// findCanonical returns the href of the first <link rel="canonical">.
func findCanonical(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Link {
		var rel, href string
		for _, a := range n.Attr {
			switch strings.ToLower(a.Key) {
			case "rel":
				rel = a.Val
			case "href":
				href = a.Val
			}
		}
		for _, token := range strings.Fields(strings.ToLower(rel)) {
			if token == "canonical" && href != "" {
				return href
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if h := findCanonical(c); h != "" {
			return h
		}
	}
	return ""
}
