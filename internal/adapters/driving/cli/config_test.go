package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/domain"
)

func TestConfigShowCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM.APIKey = "sk-ant-1234567890abcd"

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "/home/test/.scribble/config.toml")
	assert.Contains(t, out, "Provider: anthropic")
	assert.Contains(t, out, "API Key: sk-a...abcd")
	assert.NotContains(t, out, "1234567890")
	assert.Contains(t, out, "Max tokens: 4000 (standard analysis)")
	assert.Contains(t, out, "Weekly digest: on (Sunday)")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigShowCmd_WithoutKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("401 unauthorized")

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "API Key: (not set)")
	assert.Contains(t, out, "not configured, using heuristics")
	assert.Contains(t, out, "Warning: 401 unauthorized")
}

func TestConfigSetCmd(t *testing.T) {
	t.Run("stores a value", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "config", "set", "notes_folder", "/srv/notes")
		require.NoError(t, err)
		assert.Equal(t, "/srv/notes", ts.settings.values["notes_folder"])
		assert.Contains(t, out, "Set notes_folder = /srv/notes")
	})

	t.Run("lists keys without arguments", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "config", "set")
		require.NoError(t, err)
		assert.Contains(t, out, "llm.analysis_depth")
		assert.Contains(t, out, "notes_folder")
	})

	t.Run("picks from a list", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := executeWithInput(t, "3\n", "config", "set", "llm.provider")
		require.NoError(t, err)
		assert.Contains(t, out, "2. openai")
		assert.Equal(t, "ollama", ts.settings.values["llm.provider"])
	})

	t.Run("bad choice falls back to the first", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		_, err := executeWithInput(t, "9\n", "config", "set", "llm.analysis_depth")
		require.NoError(t, err)
		assert.Equal(t, "basic", ts.settings.values["llm.analysis_depth"])
	})

	t.Run("value required for free-form keys", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute(t, "config", "set", "notes_folder")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("surfaces validation errors", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.settings.setErr = domain.ErrInvalidInput

		_, err := execute(t, "config", "set", "llm.temperature", "hot")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestConfigSetKeyCmd(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := execute(t, "config", "set-key", "sk-test-abcdefgh1234")
		require.NoError(t, err)
		assert.Equal(t, "sk-test-abcdefgh1234", ts.settings.apiKey)
		assert.Contains(t, out, "API key saved: sk-t...1234")
	})

	t.Run("from input", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()

		out, err := executeWithInput(t, "  piped-secret-key-9876\n", "config", "set-key")
		require.NoError(t, err)
		assert.Equal(t, "piped-secret-key-9876", ts.settings.apiKey)
		assert.Contains(t, out, "API key: ")
		assert.NotContains(t, out, "piped-secret-key-9876")
	})
}

func TestReadPassword_NonTerminal(t *testing.T) {
	assert.Equal(t, "secret", readPassword(strings.NewReader("secret\nmore")))
	assert.Equal(t, "", readPassword(strings.NewReader("")))
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{"Empty input returns default", "", 5, 1, 1},
		{"Valid choice within range", "3", 5, 1, 3},
		{"Choice below minimum returns default", "0", 5, 1, 1},
		{"Choice above maximum returns default", "6", 5, 1, 1},
		{"Invalid input returns default", "abc", 5, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}
