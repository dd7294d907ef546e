// Package tesseract recognises text in images with the tesseract CLI.
package tesseract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// ErrTesseractNotFound is returned when tesseract is not installed.
var ErrTesseractNotFound = fmt.Errorf("%w: tesseract not found in PATH", domain.ErrOCRUnavailable)

const binary = "tesseract"

// Engine runs `tesseract <image> stdout`.
type Engine struct {
	runner driven.CommandRunner

	// Language is passed with -l when set, e.g. "eng".
	Language string
}

// New creates a tesseract engine.
func New(runner driven.CommandRunner) *Engine {
	return &Engine{runner: runner}
}

// Name returns "tesseract".
func (e *Engine) Name() string { return binary }

// Recognize returns the text tesseract finds in the image.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if _, err := e.runner.LookPath(binary); err != nil {
		return "", ErrTesseractNotFound
	}

	args := []string{imagePath, "stdout"}
	if e.Language != "" {
		args = append(args, "-l", e.Language)
	}
	out, err := e.runner.Run(ctx, binary, args...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("recognize %s: %w", imagePath, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CheckAvailable reports whether tesseract is installed.
func CheckAvailable(runner driven.CommandRunner) error {
	if _, err := runner.LookPath(binary); err != nil {
		return ErrTesseractNotFound
	}
	return nil
}

// InstallInstructions returns instructions for installing tesseract.
func InstallInstructions() string {
	return `tesseract is required for OCR on images and scanned PDFs.

Install with:
  macOS:         brew install tesseract
  Ubuntu/Debian: sudo apt install tesseract-ocr
  Fedora:        sudo dnf install tesseract
  Arch:          sudo pacman -S tesseract`
}
