package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner. Render commands write
// fake page images so the renderers can glob them.
type mockRunner struct {
	missing map[string]bool
	runErr  map[string]error
	pages   int
	calls   []string
}

func (m *mockRunner) LookPath(name string) (string, error) {
	if m.missing[name] {
		return "", exec.ErrNotFound
	}
	return "/usr/bin/" + name, nil
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, name)
	if err := m.runErr[name]; err != nil {
		return nil, err
	}
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= m.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%02d.png", prefix, i), []byte("png"), 0600); err != nil {
				return nil, err
			}
		}
	case "mutool":
		var pattern string
		for i, a := range args {
			if a == "-o" && i+1 < len(args) {
				pattern = args[i+1]
			}
		}
		for i := 1; i <= m.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf(pattern, i), []byte("png"), 0600); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// mockOCR returns a fixed text per image basename.
type mockOCR struct {
	texts map[string]string
	errs  map[string]error
	calls int
}

func (m *mockOCR) Recognize(_ context.Context, imagePath string) (string, error) {
	m.calls++
	base := filepath.Base(imagePath)
	if err := m.errs[base]; err != nil {
		return "", err
	}
	return m.texts[base], nil
}

func (m *mockOCR) Name() string { return "mock-ocr" }

// mockLLM answers vision calls in page order.
type mockLLM struct {
	answers []string
	errs    []error
	prompts []string
}

func (m *mockLLM) Complete(_ context.Context, _ driven.CompletionRequest) (string, error) {
	return "", nil
}

func (m *mockLLM) CompleteWithImage(_ context.Context, _ string, prompt string) (string, error) {
	i := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.answers) {
		return m.answers[i], nil
	}
	return "", nil
}

func (m *mockLLM) ModelName() string { return "mock" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// stubStrategy returns a fixed verdict and records that it ran.
type stubStrategy struct {
	name    string
	verdict Verdict
	err     error
	ran     bool
	fn      func(a *Attempt)
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Recover(_ context.Context, a *Attempt) (Verdict, error) {
	s.ran = true
	if s.fn != nil {
		s.fn(a)
	}
	return s.verdict, s.err
}

// buildPDF writes a minimal PDF with one page per entry of pages, each
// showing its text in Helvetica.
func buildPDF(t *testing.T, pages ...string) string {
	t.Helper()

	n := len(pages)
	fontObj := 3 + 2*n
	objects := make([]string, 0, fontObj)
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := 0; i < n; i++ {
		fmt.Fprintf(&kids, "%d 0 R ", 3+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), n))

	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))
	return path
}
