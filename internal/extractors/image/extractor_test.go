package image

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/prompts"
)

type mockOCR struct {
	text string
	err  error
}

func (m *mockOCR) Recognize(_ context.Context, _ string) (string, error) {
	return m.text, m.err
}

func (m *mockOCR) Name() string { return "mock-ocr" }

type mockLLM struct {
	visionText string
	visionErr  error
	imagePaths []string
	lastPrompt string
}

func (m *mockLLM) Complete(_ context.Context, _ driven.CompletionRequest) (string, error) {
	return "", nil
}

func (m *mockLLM) CompleteWithImage(_ context.Context, imagePath, prompt string) (string, error) {
	m.imagePaths = append(m.imagePaths, imagePath)
	m.lastPrompt = prompt
	return m.visionText, m.visionErr
}

func (m *mockLLM) ModelName() string { return "mock" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Extractor)(nil)
}

func TestExtract_OCR(t *testing.T) {
	ocr := &mockOCR{text: "  #groceries\n- [ ] buy milk\n"}
	llm := &mockLLM{}

	result, err := New(ocr, llm, prompts.NewLoader(nil)).Extract(context.Background(), "/notes/list.jpg")
	require.NoError(t, err)

	assert.True(t, result.PossiblyHandwritten)
	assert.Equal(t, "#groceries\n- [ ] buy milk", result.RawText)
	assert.Equal(t, []string{"groceries"}, result.Tags)
	assert.Equal(t, []string{"buy milk"}, result.Tasks)
	assert.Equal(t, "mock-ocr", result.Metadata["ocr_engine"])
	assert.Equal(t, "list.jpg", result.Metadata["filename"])
	assert.Empty(t, llm.imagePaths, "vision is not used when OCR found text")
}

func TestExtract_VisionFallback(t *testing.T) {
	ocr := &mockOCR{text: ""}
	llm := &mockLLM{visionText: "Whiteboard: TODO: ship v2"}

	result, err := New(ocr, llm, prompts.NewLoader(nil)).Extract(context.Background(), "/notes/board.png")
	require.NoError(t, err)

	assert.Equal(t, []string{"/notes/board.png"}, llm.imagePaths)
	assert.Contains(t, llm.lastPrompt, "board.png")
	assert.Equal(t, "Whiteboard: TODO: ship v2", result.RawText)
	assert.Equal(t, true, result.Metadata["vision"])
}

func TestExtract_OCRErrorRecoveredByVision(t *testing.T) {
	ocr := &mockOCR{err: errors.New("tesseract crashed")}
	llm := &mockLLM{visionText: "recovered"}

	result, err := New(ocr, llm, prompts.NewLoader(nil)).Extract(context.Background(), "/notes/a.png")
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.RawText)
}

func TestExtract_OCRDisabledNoLLM(t *testing.T) {
	result, err := New(nil, nil, nil).Extract(context.Background(), "/notes/a.png")

	assert.ErrorIs(t, err, domain.ErrOCRUnavailable)
	assert.Empty(t, result.RawText)
	assert.NotNil(t, result.Tags)
	assert.NotNil(t, result.Tasks)
	assert.Equal(t, "none", result.Metadata["ocr_engine"])
	assert.NotEmpty(t, result.Metadata["note"])
}

func TestExtract_BlankImageIsNotAnError(t *testing.T) {
	result, err := New(&mockOCR{}, nil, nil).Extract(context.Background(), "/notes/blank.png")
	require.NoError(t, err)
	assert.Empty(t, result.RawText)
}

func TestExtract_VisionFailureKeepsOCRError(t *testing.T) {
	ocr := &mockOCR{err: errors.New("no tesseract")}
	llm := &mockLLM{visionErr: errors.New("rate limited")}

	_, err := New(ocr, llm, nil).Extract(context.Background(), "/notes/a.png")
	assert.Error(t, err)
}
