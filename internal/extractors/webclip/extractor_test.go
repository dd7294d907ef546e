package webclip

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
)

const clip = `<!DOCTYPE html>
<html>
<head>
  <title> Deep Work Notes </title>
  <link rel="canonical" href="https://example.com/deep-work">
  <style>body { color: red; }</style>
  <script>var tracking = "#nottag";</script>
</head>
<body>
  <h1>Deep Work</h1>
  <p>Focus   is a   #skill worth training.</p>
  <noscript><img src="pixel.gif"></noscript>
  <ul><li>TODO: block mornings</li><li>read chapter 2</li></ul>
</body>
</html>`

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Extractor)(nil)
}

func TestParse(t *testing.T) {
	page, err := Parse(strings.NewReader(clip))
	require.NoError(t, err)

	assert.Equal(t, "Deep Work Notes", page.Title)
	assert.Equal(t, "https://example.com/deep-work", page.Canonical)
	assert.NotContains(t, page.Text, "color: red")
	assert.NotContains(t, page.Text, "tracking")
	assert.NotContains(t, page.Text, "pixel.gif")

	lines := strings.Split(page.Text, "\n")
	assert.Contains(t, lines, "Deep Work")
	assert.Contains(t, lines, "Focus")
	assert.Contains(t, lines, "is a")
	assert.Contains(t, lines, "#skill worth training.")
	assert.Contains(t, lines, "TODO: block mornings")
	for _, l := range lines {
		assert.NotEmpty(t, l)
		assert.Equal(t, strings.TrimSpace(l), l)
	}
}

func TestParse_NoTitleOrCanonical(t *testing.T) {
	page, err := Parse(strings.NewReader("<p>just text</p>"))
	require.NoError(t, err)
	assert.Empty(t, page.Title)
	assert.Empty(t, page.Canonical)
	assert.Equal(t, "just text", page.Text)
}

func TestParse_CanonicalAmongRelTokens(t *testing.T) {
	page, err := Parse(strings.NewReader(`<link rel="alternate canonical" href="/a"><p>x</p>`))
	require.NoError(t, err)
	assert.Equal(t, "/a", page.Canonical)
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.html")
	require.NoError(t, os.WriteFile(path, []byte(clip), 0600))

	result, err := New().Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.KindWebClip, New().Kind())
	assert.Equal(t, []string{"skill"}, result.Tags)
	assert.Equal(t, []string{"block mornings"}, result.Tasks)
	assert.Equal(t, "Deep Work Notes", result.Metadata["title"])
	assert.Equal(t, "https://example.com/deep-work", result.Metadata["source_url"])
	assert.Equal(t, "clip.html", result.Metadata["filename"])
}

func TestExtract_MissingFile(t *testing.T) {
	result, err := New().Extract(context.Background(), "/nonexistent/clip.html")
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.NotNil(t, result.Tags)
}
