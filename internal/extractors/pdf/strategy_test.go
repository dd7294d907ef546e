package pdf

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "sufficient", Sufficient.String())
	assert.Equal(t, "insufficient", Insufficient.String())
	assert.Equal(t, "failed", Failed.String())
}

func TestPipeline_StopsAtFirstSufficient(t *testing.T) {
	first := &stubStrategy{name: "first", verdict: Insufficient}
	second := &stubStrategy{name: "second", verdict: Sufficient}
	third := &stubStrategy{name: "third", verdict: Sufficient}

	a, err := NewPipeline(first, second, third).Run(context.Background(), "/tmp/x.pdf")
	require.NoError(t, err)

	assert.True(t, first.ran)
	assert.True(t, second.ran)
	assert.False(t, third.ran)
	require.Len(t, a.Steps, 2)
	assert.Equal(t, "second", a.Steps[1].Strategy)
	assert.Equal(t, Sufficient, a.Steps[1].Verdict)
	assert.Equal(t, "x.pdf", a.Filename)
}

func TestPipeline_FailedContinues(t *testing.T) {
	failing := &stubStrategy{name: "render", verdict: Failed, err: errors.New("no renderer")}
	next := &stubStrategy{name: "ocr", verdict: Insufficient}

	a, err := NewPipeline(failing, next).Run(context.Background(), "/tmp/x.pdf")
	require.NoError(t, err)
	assert.True(t, next.ran)
	assert.EqualError(t, a.Steps[0].Err, "no renderer")
}

func TestPipeline_UnreadableAborts(t *testing.T) {
	failing := &stubStrategy{name: "direct", verdict: Failed, err: ErrUnreadable}
	next := &stubStrategy{name: "render", verdict: Sufficient}

	_, err := NewPipeline(failing, next).Run(context.Background(), "/tmp/x.pdf")
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.False(t, next.ran)
}

func TestPipeline_PanicBecomesFailed(t *testing.T) {
	panicky := &stubStrategy{name: "bad", fn: func(*Attempt) { panic("boom") }}
	next := &stubStrategy{name: "next", verdict: Sufficient}

	a, err := NewPipeline(panicky, next).Run(context.Background(), "/tmp/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, Failed, a.Steps[0].Verdict)
	assert.Contains(t, a.Steps[0].Err.Error(), "boom")
	assert.True(t, next.ran)
}

func TestPipeline_RemovesWorkDir(t *testing.T) {
	var dir string
	makesFiles := &stubStrategy{name: "render", verdict: Insufficient, fn: func(a *Attempt) {
		d, err := a.WorkDir()
		require.NoError(t, err)
		dir = d
		require.NoError(t, os.WriteFile(d+"/page-1.png", []byte("x"), 0600))
		a.PageImages = []string{d + "/page-1.png"}
	}}
	aborts := &stubStrategy{name: "ocr", verdict: Failed, err: ErrUnreadable}

	a, err := NewPipeline(makesFiles, aborts).Run(context.Background(), "/tmp/x.pdf")
	require.Error(t, err)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "work dir must be removed on failure")
	assert.Nil(t, a.PageImages)
}

func TestAttempt_WorkDirIsReused(t *testing.T) {
	a := NewAttempt("/tmp/x.pdf")
	defer a.Cleanup()

	d1, err := a.WorkDir()
	require.NoError(t, err)
	d2, err := a.WorkDir()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}
