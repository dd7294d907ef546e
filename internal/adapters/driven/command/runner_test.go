package command

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.CommandRunner = (*Runner)(nil)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "", firstLine("  "))
	assert.Equal(t, "one", firstLine("one\ntwo"))
	assert.Equal(t, "only", firstLine("\n only \n"))
}

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	r := New()
	if _, err := r.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	out, err := r.Run(context.Background(), "sh", "-c", "printf hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	_, err = r.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLookPath_Missing(t *testing.T) {
	_, err := New().LookPath("definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
}
