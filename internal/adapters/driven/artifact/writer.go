// Package artifact writes digests to the output directory as markdown and
// sanitised HTML.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
)

// Ensure Writer implements the interface.
var _ driven.ArtifactWriter = (*Writer)(nil)

var page = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
</head>
<body>
  <article>{{.Body}}</article>
</body>
</html>
`))

// Renderer turns digest markdown into sanitised HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer creates a markdown renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Fragment renders markdown to a sanitised HTML fragment.
func (r *Renderer) Fragment(markdown string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return r.policy.SanitizeBytes(buf.Bytes()), nil
}

// Page renders markdown to a complete HTML document titled title.
func (r *Renderer) Page(title, markdown string) ([]byte, error) {
	fragment, err := r.Fragment(markdown)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(fragment), //nolint:gosec // sanitised by bluemonday
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Writer stores digests as <name>.md and <name>.html.
type Writer struct {
	dir      string
	renderer *Renderer
}

// NewWriter creates a writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, renderer: NewRenderer()}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores body under name and returns the paths written.
func (w *Writer) Write(ctx context.Context, name, body string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: artifact name %q", domain.ErrInvalidInput, name)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	mdPath := filepath.Join(w.dir, name+".md")
	if err := os.WriteFile(mdPath, []byte(body), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", mdPath, err)
	}
	paths := []string{mdPath}

	html, err := w.renderer.Page(titleOf(body, name), body)
	if err != nil {
		logger.Warn("artifact: %s written as markdown only: %v", name, err)
		return paths, nil
	}
	htmlPath := filepath.Join(w.dir, name+".html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return paths, fmt.Errorf("write %s: %w", htmlPath, err)
	}
	paths = append(paths, htmlPath)

	logger.Info("artifact: wrote %s", strings.Join(paths, ", "))
	return paths, nil
}

// titleOf returns the first markdown heading, or fallback.
func titleOf(body, fallback string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return fallback
}
