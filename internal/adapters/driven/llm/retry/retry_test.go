package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/adapters/driven/llm"
	"github.com/behole/scribble/internal/core/ports/driven"
)

// scriptedLLM returns errs in order, then "ok".
type scriptedLLM struct {
	errs  []error
	calls int
}

func (m *scriptedLLM) next() (string, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	return "ok", nil
}

func (m *scriptedLLM) Complete(_ context.Context, _ driven.CompletionRequest) (string, error) {
	return m.next()
}

func (m *scriptedLLM) CompleteWithImage(_ context.Context, _, _ string) (string, error) {
	return m.next()
}

func (m *scriptedLLM) ModelName() string { return "scripted" }

func (m *scriptedLLM) Ping(_ context.Context) error { return nil }

func (m *scriptedLLM) Close() error { return nil }

func newTestService(next driven.LLMService) (*LLMService, *[]time.Duration) {
	var delays []time.Duration
	s := Wrap(next, Policy{})
	s.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return s, &delays
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.LLMService = (*LLMService)(nil)
}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	next := &scriptedLLM{errs: []error{errors.New("reset"), &llm.StatusError{StatusCode: 529}}}
	s, delays := newTestService(next)

	out, err := s.Complete(context.Background(), driven.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *delays)
}

func TestRetry_GivesUpAfterThreeAttempts(t *testing.T) {
	boom := errors.New("timeout")
	next := &scriptedLLM{errs: []error{boom, boom, boom, boom}}
	s, delays := newTestService(next)

	_, err := s.CompleteWithImage(context.Background(), "/x.png", "p")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, next.calls)
	assert.Len(t, *delays, 2)
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	next := &scriptedLLM{errs: []error{&llm.StatusError{StatusCode: 401}}}
	s, delays := newTestService(next)

	_, err := s.Complete(context.Background(), driven.CompletionRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Empty(t, *delays)
}

func TestRetry_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	next := &scriptedLLM{errs: []error{errors.New("transient")}}
	s := Wrap(next, Policy{BaseDelay: time.Hour})

	_, err := s.Complete(ctx, driven.CompletionRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestWrap_Delegates(t *testing.T) {
	s := Wrap(&scriptedLLM{}, Policy{Attempts: 5, BaseDelay: time.Millisecond})
	assert.Equal(t, "scripted", s.ModelName())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
	assert.Equal(t, 5, s.policy.Attempts)
}
