package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/behole/scribble/internal/logger"
	"github.com/behole/scribble/internal/metrics"
)

// ErrUnreadable marks a file that is not a readable PDF at all.
// A strategy failing with this error aborts the pipeline.
var ErrUnreadable = errors.New("not a readable PDF")

// Verdict is a strategy's judgement of the text recovered so far.
type Verdict int

// Verdicts, in increasing order of success.
const (
	// Failed means the strategy could not run (missing tool, no input).
	Failed Verdict = iota

	// Insufficient means the strategy ran but later strategies should too.
	Insufficient

	// Sufficient stops the pipeline.
	Sufficient
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Sufficient:
		return "sufficient"
	case Insufficient:
		return "insufficient"
	default:
		return "failed"
	}
}

// Strategy is one layer of PDF text recovery.
type Strategy interface {
	// Name identifies the strategy in logs and metadata.
	Name() string

	// Recover updates the attempt and returns a verdict. A Failed verdict
	// comes with the error that caused it.
	Recover(ctx context.Context, a *Attempt) (Verdict, error)
}

// PageText is the text recovered from one page.
type PageText struct {
	Page int
	Text string
}

// Step records one strategy's verdict.
type Step struct {
	Strategy string
	Verdict  Verdict
	Err      error
}

// Attempt accumulates everything the strategies recover from one PDF.
type Attempt struct {
	Path     string
	Filename string

	// Set by the direct strategy.
	PageCount           int
	DirectText          string
	WordsPerPage        float64
	HasImages           bool
	PossiblyHandwritten bool

	// Set by the render strategy.
	PageImages []string
	Renderer   string

	// Set by the OCR strategy.
	OCRAttempted bool
	OCRSuccess   bool
	OCRTexts     []PageText

	// Set by the vision strategy.
	VisionTexts []PageText

	// Steps lists each strategy's verdict in execution order.
	Steps []Step

	workDir string
}

// NewAttempt starts an attempt for the PDF at path.
func NewAttempt(path string) *Attempt {
	return &Attempt{Path: path, Filename: filepath.Base(path)}
}

// WorkDir returns a temporary directory for intermediate files, creating
// it on first use. It is removed when the pipeline finishes.
func (a *Attempt) WorkDir() (string, error) {
	if a.workDir != "" {
		return a.workDir, nil
	}
	dir, err := os.MkdirTemp("", "scribble-pdf-*")
	if err != nil {
		return "", err
	}
	a.workDir = dir
	return dir, nil
}

// Cleanup removes the work directory and forgets the page images.
func (a *Attempt) Cleanup() {
	if a.workDir == "" {
		return
	}
	if err := os.RemoveAll(a.workDir); err != nil {
		logger.Warn("pdf: failed to remove %s: %v", a.workDir, err)
	}
	a.workDir = ""
	a.PageImages = nil
}

// Pipeline runs strategies in order until one is sufficient.
type Pipeline struct {
	strategies []Strategy
}

// NewPipeline creates a pipeline over the ordered strategies.
func NewPipeline(strategies ...Strategy) *Pipeline {
	return &Pipeline{strategies: strategies}
}

// Run executes the strategies against the PDF at path. It stops at the
// first Sufficient verdict and aborts when a strategy fails with
// ErrUnreadable. Temporary files are removed before Run returns, on every
// path.
func (p *Pipeline) Run(ctx context.Context, path string) (a *Attempt, err error) {
	a = NewAttempt(path)
	defer a.Cleanup()

	for _, s := range p.strategies {
		verdict, serr := runStrategy(ctx, s, a)
		a.Steps = append(a.Steps, Step{Strategy: s.Name(), Verdict: verdict, Err: serr})
		metrics.RecordPDFStrategy(s.Name(), verdict.String())

		if serr != nil {
			logger.Debug("pdf: %s on %s: %s (%v)", s.Name(), a.Filename, verdict, serr)
		} else {
			logger.Debug("pdf: %s on %s: %s", s.Name(), a.Filename, verdict)
		}

		if verdict == Failed && errors.Is(serr, ErrUnreadable) {
			return a, serr
		}
		if verdict == Sufficient {
			break
		}
	}
	return a, nil
}

// runStrategy runs one strategy, converting a panic into a Failed verdict.
func runStrategy(ctx context.Context, s Strategy, a *Attempt) (v Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = Failed
			err = fmt.Errorf("%s panicked: %v", s.Name(), r)
		}
	}()
	return s.Recover(ctx, a)
}
