// Package fetch retrieves web pages for URL shortcuts.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/markusmobius/go-trafilatura"
	cache "github.com/patrickmn/go-cache"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

const (
	// DefaultTimeout bounds a whole request including the body read.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the fetcher to servers.
	DefaultUserAgent = "scribble/1.0 (+https://github.com/behole/scribble)"

	// MaxBodySize caps how much of a response is read.
	MaxBodySize = 10 << 20

	cacheTTL     = 30 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Config holds fetcher configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string

	// Client overrides the HTTP client. Timeout is ignored when set.
	Client *http.Client
}

// Fetcher GETs pages over HTTP and caches successful responses.
// Failures are never retried.
type Fetcher struct {
	client    *http.Client
	userAgent string
	pages     *cache.Cache
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		pages:     cache.New(cacheTTL, cacheCleanup),
	}
}

// Fetch GETs rawURL. Transport failures and non-2xx statuses wrap
// domain.ErrNetwork.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*driven.FetchedPage, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: unsupported URL %q", domain.ErrNetwork, rawURL)
	}

	if cached, ok := f.pages.Get(rawURL); ok {
		logger.Debug("fetch: cache hit for %s", rawURL)
		page := *cached.(*driven.FetchedPage)
		return &page, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", domain.ErrNetwork, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: fetch %s: HTTP %d", domain.ErrNetwork, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrNetwork, rawURL, err)
	}

	page := &driven.FetchedPage{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   fetchedAt(resp.Header),
	}
	describe(page, resp.Request.URL)

	f.pages.Set(rawURL, page, cache.DefaultExpiration)
	logger.Debug("fetch: %s -> %d (%d bytes)", rawURL, resp.StatusCode, len(body))

	copied := *page
	return &copied, nil
}

// describe fills article metadata when trafilatura can find any.
// Failures leave the page without metadata.
func describe(page *driven.FetchedPage, pageURL *url.URL) {
	result, err := trafilatura.Extract(bytes.NewReader(page.Body), trafilatura.Options{OriginalURL: pageURL})
	if err != nil {
		if !errors.Is(err, io.EOF) {
			logger.Debug("fetch: no article metadata for %s: %v", pageURL, err)
		}
		return
	}
	if result == nil {
		return
	}
	page.Title = result.Metadata.Title
	page.Author = result.Metadata.Author
	page.Sitename = result.Metadata.Sitename
	page.Published = result.Metadata.Date
}

func fetchedAt(h http.Header) time.Time {
	if date := h.Get("Date"); date != "" {
		if t, err := http.ParseTime(date); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
