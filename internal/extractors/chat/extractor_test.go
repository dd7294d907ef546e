package chat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Extractor)(nil)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantText   string
		wantFormat string
		wantTurns  int
	}{
		{
			name:       "list of turns",
			input:      `[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]`,
			wantText:   "user: hi\n\nassistant: hello\n\n",
			wantFormat: FormatList,
			wantTurns:  2,
		},
		{
			name:       "messages object",
			input:      `{"title":"x","messages":[{"role":"user","content":"plan #trip"}]}`,
			wantText:   "user: plan #trip\n\n",
			wantFormat: FormatMessages,
			wantTurns:  1,
		},
		{
			name:       "content parts",
			input:      `[{"role":"user","content":[{"type":"text","text":"a"},{"type":"text","text":"b"}]}]`,
			wantText:   "user: a\nb\n\n",
			wantFormat: FormatList,
			wantTurns:  1,
		},
		{
			name:       "turns without role are skipped",
			input:      `[{"content":"orphan"},{"role":"user","content":"kept"}]`,
			wantText:   "user: kept\n\n",
			wantFormat: FormatList,
			wantTurns:  1,
		},
		{
			name:       "invalid json falls back to text",
			input:      `not json at all`,
			wantText:   "not json at all",
			wantFormat: FormatText,
		},
		{
			name:       "object without messages falls back to text",
			input:      `{"foo":1}`,
			wantText:   `{"foo":1}`,
			wantFormat: FormatText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, format, turns := Format([]byte(tt.input))
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantFormat, format)
			assert.Equal(t, tt.wantTurns, turns)
		})
	}
}

func TestExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_export.json")
	content := `[{"role":"user","content":"#ideas for the launch"},{"role":"assistant","content":"Sure.\nTODO: draft announcement"}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	result, err := New().Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, domain.KindAIChat, New().Kind())
	assert.Equal(t, []string{"ideas"}, result.Tags)
	assert.Equal(t, []string{"draft announcement"}, result.Tasks)
	assert.Equal(t, FormatList, result.Metadata["format"])
	assert.Equal(t, 2, result.Metadata["turns"])
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), "/nonexistent/chat.json")
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
