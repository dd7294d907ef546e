package urlref

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
)

type mockFetcher struct {
	page  *driven.FetchedPage
	err   error
	calls []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) (*driven.FetchedPage, error) {
	m.calls = append(m.calls, url)
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Extractor)(nil)
}

func TestParseShortcut(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    string
	}{
		{
			name:    "windows url file",
			path:    "link.url",
			content: "[InternetShortcut]\r\nURL=https://example.com/a \r\n",
			want:    "https://example.com/a",
		},
		{
			name:    "url file without URL line",
			path:    "link.url",
			content: "[InternetShortcut]\n",
			want:    "",
		},
		{
			name: "webloc plist",
			path: "link.webloc",
			content: `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict><key>URL</key><string>https://example.com/b</string></dict></plist>`,
			want: "https://example.com/b",
		},
		{
			name:    "webloc plain body",
			path:    "link.webloc",
			content: "  https://example.com/c\n",
			want:    "https://example.com/c",
		},
		{
			name:    "other extension",
			path:    "link.txt",
			content: "https://example.com/d\n",
			want:    "https://example.com/d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseShortcut(tt.path, []byte(tt.content)))
		})
	}
}

func TestExtract_Success(t *testing.T) {
	published := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{page: &driven.FetchedPage{
		URL:        "https://example.com/article",
		StatusCode: 200,
		Body:       []byte(`<html><head><title>Article</title></head><body><p>Hello #fetched</p><script>x()</script></body></html>`),
		FetchedAt:  time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
		Author:     "Ada",
		Sitename:   "Example",
		Published:  published,
	}}
	path := writeFile(t, "read-later.url", "[InternetShortcut]\nURL=https://example.com/article\n#reading\nTODO: summarise")

	result, err := New(fetcher, true).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/article"}, fetcher.calls)
	assert.Equal(t, "Hello #fetched", result.RawText)
	assert.Equal(t, []string{"reading"}, result.Tags)
	assert.Equal(t, []string{"summarise"}, result.Tasks)
	assert.Equal(t, "https://example.com/article", result.Metadata["url"])
	assert.Equal(t, "Article", result.Metadata["title"])
	assert.Equal(t, "2025-03-02T10:00:00Z", result.Metadata["fetch_date"])
	assert.Equal(t, "Ada", result.Metadata["author"])
	assert.Equal(t, "Example", result.Metadata["sitename"])
	assert.Equal(t, "2025-03-01", result.Metadata["published"])
}

func TestExtract_FetchFailure(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("dial tcp: no such host")}
	path := writeFile(t, "broken.url", "URL=http://example.com")

	result, err := New(fetcher, true).Extract(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Empty(t, result.RawText)
	assert.NotNil(t, result.Tags)
	assert.NotNil(t, result.Tasks)
}

func TestExtract_FetchingDisabled(t *testing.T) {
	fetcher := &mockFetcher{}
	path := writeFile(t, "link.url", "URL=http://example.com")

	_, err := New(fetcher, false).Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorIs(t, err, ErrFetchingDisabled)
	assert.Empty(t, fetcher.calls)
}

func TestExtract_NoURL(t *testing.T) {
	path := writeFile(t, "empty.url", "[InternetShortcut]\n")

	_, err := New(&mockFetcher{}, true).Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_TitleFallsBackToFetcherMetadata(t *testing.T) {
	fetcher := &mockFetcher{page: &driven.FetchedPage{
		Body:  []byte("<p>body only</p>"),
		Title: "From Metadata",
	}}
	path := writeFile(t, "x.url", "URL=https://example.com")

	result, err := New(fetcher, true).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "From Metadata", result.Metadata["title"])
	assert.NotEmpty(t, result.Metadata["fetch_date"])
}
