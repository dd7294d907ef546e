// Package urlref extracts web content referenced by URL shortcut files
// (.url and .webloc).
package urlref

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/extractors/heuristic"
	"github.com/behole/scribble/internal/extractors/webclip"
	"github.com/behole/scribble/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrFetchingDisabled is returned when web fetching is turned off.
var ErrFetchingDisabled = errors.New("web fetching disabled")

var (
	urlLine     = regexp.MustCompile(`URL=(.+)`)
	plistString = regexp.MustCompile(`(?s)<string>(.+?)</string>`)
)

// Extractor resolves a shortcut file to its URL and fetches the page.
type Extractor struct {
	fetcher driven.Fetcher
	enabled bool
}

// New creates a URL extractor. A nil fetcher or enabled=false disables
// fetching; extraction then fails with ErrFetchingDisabled.
func New(fetcher driven.Fetcher, enabled bool) *Extractor {
	return &Extractor{fetcher: fetcher, enabled: enabled && fetcher != nil}
}

// Kind returns the source kind this extractor handles.
func (e *Extractor) Kind() domain.SourceKind {
	return domain.KindURL
}

// Extract reads the shortcut, fetches the target and strips its markup.
// Tags and tasks come from the shortcut file, not the fetched page.
// Fetch failures wrap domain.ErrNetwork and carry no page text.
func (e *Extractor) Extract(ctx context.Context, path string) (domain.Extraction, error) {
	result := domain.NewExtraction()
	result.Metadata["filename"] = filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, filepath.Base(path), err)
	}
	shortcut := string(data)
	result.Tags = heuristic.Tags(shortcut)
	result.Tasks = heuristic.Tasks(shortcut)

	target := ParseShortcut(path, data)
	if target == "" {
		return result, fmt.Errorf("%w: no URL found in %s", domain.ErrExtraction, filepath.Base(path))
	}
	result.Metadata["url"] = target

	if !e.enabled {
		return result, fmt.Errorf("%w: %w", domain.ErrNetwork, ErrFetchingDisabled)
	}

	logger.Debug("urlref: fetching %s", target)
	page, err := e.fetcher.Fetch(ctx, target)
	if err != nil {
		if !errors.Is(err, domain.ErrNetwork) {
			err = fmt.Errorf("%w: %v", domain.ErrNetwork, err)
		}
		return result, fmt.Errorf("fetch %s: %w", target, err)
	}

	parsed, err := webclip.Parse(bytes.NewReader(page.Body))
	if err != nil {
		return result, fmt.Errorf("%w: parse %s: %v", domain.ErrExtraction, target, err)
	}

	result.RawText = parsed.Text
	title := parsed.Title
	if title == "" {
		title = page.Title
	}
	if title == "" {
		title = "Unknown Title"
	}
	result.Metadata["title"] = title

	fetchedAt := page.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	result.Metadata["fetch_date"] = fetchedAt.UTC().Format(time.RFC3339)
	if page.URL != "" && page.URL != target {
		result.Metadata["final_url"] = page.URL
	}
	if page.Author != "" {
		result.Metadata["author"] = page.Author
	}
	if page.Sitename != "" {
		result.Metadata["sitename"] = page.Sitename
	}
	if !page.Published.IsZero() {
		result.Metadata["published"] = page.Published.Format("2006-01-02")
	}
	return result, nil
}

// ParseShortcut returns the URL a shortcut file points to.
// Windows .url files use a "URL=" line; .webloc files embed the URL in a
// plist <string> element. Anything else is read as a bare URL.
func ParseShortcut(path string, data []byte) string {
	content := string(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".url":
		if m := urlLine.FindStringSubmatch(content); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ""
	case ".webloc":
		if strings.Contains(content, "<?xml") {
			if m := plistString.FindStringSubmatch(content); m != nil {
				return strings.TrimSpace(m[1])
			}
			return ""
		}
	}
	return strings.TrimSpace(content)
}
