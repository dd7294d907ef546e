package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/behole/scribble/internal/core/ports/driven"
)

type stubStore struct {
	prompts map[string]string
}

func (s *stubStore) Load(name string) (string, error) {
	p, ok := s.prompts[name]
	if !ok {
		return "", errors.New("missing")
	}
	return p, nil
}

func (s *stubStore) Reload() {}

func TestDefaults_CoverAllPromptNames(t *testing.T) {
	names := []string{
		driven.PromptSystem, driven.PromptSummarize, driven.PromptTranscribe,
		driven.PromptExtractTasks, driven.PromptExtractTags, driven.PromptVisionSystem,
		driven.PromptVisionPage, driven.PromptVisionImage, driven.PromptWeeklyDigest, driven.PromptMonthlySummary,
		driven.PromptMonthlyTrends, driven.PromptTopicAnalysis, driven.PromptSuggestedReading,
	}
	for _, name := range names {
		assert.NotEmpty(t, Defaults[name], name)
	}
}

func TestLoader_PrefersStore(t *testing.T) {
	l := NewLoader(&stubStore{prompts: map[string]string{driven.PromptSummarize: "Short: %s"}})
	assert.Equal(t, "Short: hello", l.Format(driven.PromptSummarize, "hello"))
}

func TestLoader_FallsBackToDefaults(t *testing.T) {
	l := NewLoader(&stubStore{prompts: map[string]string{driven.PromptSummarize: "   "}})
	assert.Equal(t, Defaults[driven.PromptSummarize], l.Get(driven.PromptSummarize))
	assert.Equal(t, Defaults[driven.PromptExtractTags], l.Get(driven.PromptExtractTags))
}

func TestLoader_Nil(t *testing.T) {
	var l *Loader
	assert.Equal(t, Defaults[driven.PromptSystem], l.Get(driven.PromptSystem))
	assert.Equal(t, Defaults[driven.PromptSystem], NewLoader(nil).Get(driven.PromptSystem))
}

func TestVisionPagePrompt(t *testing.T) {
	got := NewLoader(nil).Format(driven.PromptVisionPage, 3, "scan.pdf")
	assert.Contains(t, got, "page 3 of a PDF document named 'scan.pdf'")
}
