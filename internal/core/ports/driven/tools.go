package driven

import (
	"context"
	"time"
)

// OCREngine recognises text in a raster image.
type OCREngine interface {
	// Recognize returns the text found in the image at imagePath.
	Recognize(ctx context.Context, imagePath string) (string, error)

	// Name identifies the engine, e.g. "tesseract".
	Name() string
}

// PageRenderer rasterises PDF pages.
type PageRenderer interface {
	// Render writes one PNG per page into outDir and returns the paths in
	// page order. Returns domain.ErrRendererUnavailable when the backend
	// is not installed.
	Render(ctx context.Context, pdfPath, outDir string) ([]string, error)

	// Name identifies the backend, e.g. "pdftoppm".
	Name() string
}

// Fetcher retrieves a web page.
type Fetcher interface {
	// Fetch GETs url. Non-2xx responses and transport failures return an
	// error wrapping domain.ErrNetwork. Implementations do not retry.
	Fetch(ctx context.Context, url string) (*FetchedPage, error)
}

// FetchedPage is a successfully fetched web page.
type FetchedPage struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP status.
	StatusCode int

	// ContentType is the response Content-Type header.
	ContentType string

	// Body is the response body.
	Body []byte

	// FetchedAt is the server Date header, or the local time when absent.
	FetchedAt time.Time

	// Title, Author, Sitename and Published come from article metadata
	// when it could be detected.
	Title     string
	Author    string
	Sitename  string
	Published time.Time
}

// ArtifactWriter writes a rendered digest to durable storage.
type ArtifactWriter interface {
	// Write stores body under name (without extension) and returns the
	// paths written.
	Write(ctx context.Context, name, body string) ([]string, error)
}
