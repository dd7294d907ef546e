package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
)

func TestDaemon_Scan(t *testing.T) {
	source := &mockEventSource{paths: []string{"/notes/a.txt", "/notes/b.md"}}
	dispatcher := &mockDispatcher{}
	d := NewDaemon(source, dispatcher, nil, nil)

	outcomes, err := d.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
	assert.Equal(t, source.paths, dispatcher.paths())
}

func TestDaemon_ScanError(t *testing.T) {
	source := &mockEventSource{scanErr: errors.New("root path does not exist")}
	d := NewDaemon(source, &mockDispatcher{}, nil, nil)

	_, err := d.Scan(context.Background())
	assert.ErrorContains(t, err, "root path does not exist")

	assert.Error(t, d.Run(context.Background()))
}

func TestDaemon_RunProcessesEventsInOrder(t *testing.T) {
	events := make(chan driven.FileEvent)
	source := &mockEventSource{paths: []string{"/notes/existing.txt"}, events: events}
	dispatcher := &mockDispatcher{done: make(chan string, 8)}
	digests := &mockDigestCompiler{}
	scheduler, _ := newTestScheduler(domain.DefaultSchedulerConfig(), digests)
	d := NewDaemon(source, dispatcher, scheduler, &mockServer{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	assert.Equal(t, "/notes/existing.txt", <-dispatcher.done)
	events <- driven.FileEvent{Path: "/notes/new.png", Kind: domain.KindImage}
	assert.Equal(t, "/notes/new.png", <-dispatcher.done)
	events <- driven.FileEvent{Path: "/notes/later.md", Kind: domain.KindDocument}
	assert.Equal(t, "/notes/later.md", <-dispatcher.done)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"/notes/existing.txt", "/notes/new.png", "/notes/later.md"}, dispatcher.paths())
}

func TestDaemon_RunStopsWhenEventsClose(t *testing.T) {
	events := make(chan driven.FileEvent, 1)
	events <- driven.FileEvent{Path: "/notes/one.txt"}
	close(events)
	dispatcher := &mockDispatcher{}
	d := NewDaemon(&mockEventSource{events: events}, dispatcher, nil, nil)

	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, []string{"/notes/one.txt"}, dispatcher.paths())
}

func TestDaemon_RunReturnsServerError(t *testing.T) {
	events := make(chan driven.FileEvent)
	d := NewDaemon(&mockEventSource{events: events}, &mockDispatcher{}, nil,
		&mockServer{err: errors.New("address already in use")})

	err := d.Run(context.Background())
	assert.ErrorContains(t, err, "server: address already in use")
}

func TestLogSummary_CountsByStatus(t *testing.T) {
	assert.NotPanics(t, func() {
		logSummary([]domain.ProcessingOutcome{
			{Status: domain.OutcomeSuccess},
			{Status: domain.OutcomeFailed},
			{Status: domain.OutcomeSkipped},
		})
		logSummary(nil)
	})
}
