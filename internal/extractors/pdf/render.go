package pdf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/logger"
)

// Ensure renderers implement the interface.
var (
	_ driven.PageRenderer = (*PopplerRenderer)(nil)
	_ driven.PageRenderer = (*MuPDFRenderer)(nil)
)

// ErrPDFToolNotFound is returned when no page rendering tool is installed.
var ErrPDFToolNotFound = fmt.Errorf("%w: neither pdftoppm nor mutool found in PATH", domain.ErrRendererUnavailable)

// RenderDPI is the resolution pages are rasterised at.
const RenderDPI = 300

// PopplerRenderer rasterises pages with pdftoppm.
type PopplerRenderer struct {
	runner driven.CommandRunner
}

// NewPopplerRenderer creates a pdftoppm renderer.
func NewPopplerRenderer(runner driven.CommandRunner) *PopplerRenderer {
	return &PopplerRenderer{runner: runner}
}

// Name returns "pdftoppm".
func (r *PopplerRenderer) Name() string { return "pdftoppm" }

// Render writes page-N.png files into outDir.
func (r *PopplerRenderer) Render(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	if _, err := r.runner.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("%w: pdftoppm: %v", domain.ErrRendererUnavailable, err)
	}
	prefix := filepath.Join(outDir, "page")
	if _, err := r.runner.Run(ctx, "pdftoppm", "-png", "-r", strconv.Itoa(RenderDPI), pdfPath, prefix); err != nil {
		return nil, fmt.Errorf("render pages: %w", err)
	}
	return collectPages(filepath.Join(outDir, "page-*.png"), "page-")
}

// MuPDFRenderer rasterises pages with mutool.
type MuPDFRenderer struct {
	runner driven.CommandRunner
}

// NewMuPDFRenderer creates a mutool renderer.
func NewMuPDFRenderer(runner driven.CommandRunner) *MuPDFRenderer {
	return &MuPDFRenderer{runner: runner}
}

// Name returns "mutool".
func (r *MuPDFRenderer) Name() string { return "mutool" }

// Render writes mpage-N.png files into outDir.
func (r *MuPDFRenderer) Render(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	if _, err := r.runner.LookPath("mutool"); err != nil {
		return nil, fmt.Errorf("%w: mutool: %v", domain.ErrRendererUnavailable, err)
	}
	pattern := filepath.Join(outDir, "mpage-%d.png")
	if _, err := r.runner.Run(ctx, "mutool", "draw", "-q", "-r", strconv.Itoa(RenderDPI), "-o", pattern, pdfPath); err != nil {
		return nil, fmt.Errorf("render pages: %w", err)
	}
	return collectPages(filepath.Join(outDir, "mpage-*.png"), "mpage-")
}

// collectPages globs rendered pages and sorts them by page number.
func collectPages(glob, prefix string) ([]string, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("renderer produced no pages")
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return pageNumber(paths[i], prefix) < pageNumber(paths[j], prefix)
	})
	return paths, nil
}

func pageNumber(path, prefix string) int {
	name := strings.TrimSuffix(filepath.Base(path), ".png")
	n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil {
		return 0
	}
	return n
}

// RenderStrategy rasterises pages, trying each renderer in order until
// one succeeds.
type RenderStrategy struct {
	renderers []driven.PageRenderer
}

// NewRender creates the rasterising strategy.
func NewRender(renderers ...driven.PageRenderer) *RenderStrategy {
	return &RenderStrategy{renderers: renderers}
}

// Name returns "render".
func (s *RenderStrategy) Name() string { return "render" }

// Recover renders every page into the attempt's work directory. It is
// Insufficient on success because images carry no text yet.
func (s *RenderStrategy) Recover(ctx context.Context, a *Attempt) (Verdict, error) {
	if len(s.renderers) == 0 {
		return Failed, ErrPDFToolNotFound
	}
	dir, err := a.WorkDir()
	if err != nil {
		return Failed, fmt.Errorf("create work dir: %w", err)
	}

	var unavailable int
	var lastErr error
	for _, r := range s.renderers {
		pages, err := r.Render(ctx, a.Path, dir)
		if err == nil {
			a.PageImages = pages
			a.Renderer = r.Name()
			if a.PageCount == 0 {
				a.PageCount = len(pages)
			}
			return Insufficient, nil
		}
		if errors.Is(err, domain.ErrRendererUnavailable) {
			unavailable++
		}
		logger.Warn("pdf: %s could not render %s: %v", r.Name(), a.Filename, err)
		lastErr = err
	}

	if unavailable == len(s.renderers) {
		return Failed, ErrPDFToolNotFound
	}
	return Failed, lastErr
}

// InstallInstructions returns instructions for installing a page renderer
// and the OCR engine.
func InstallInstructions() string {
	return `Scanned PDFs need a page renderer (poppler or mupdf) and tesseract for OCR.

Install with:
  macOS:         brew install poppler tesseract
  Ubuntu/Debian: sudo apt install poppler-utils tesseract-ocr
  Fedora:        sudo dnf install poppler-utils tesseract
  Arch:          sudo pacman -S poppler tesseract

mupdf (mutool) is used when poppler is missing.`
}

// CheckAvailable reports whether at least one renderer is installed.
func CheckAvailable(runner driven.CommandRunner) error {
	for _, tool := range []string{"pdftoppm", "mutool"} {
		if _, err := runner.LookPath(tool); err == nil {
			return nil
		}
	}
	return ErrPDFToolNotFound
}
