package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/ports/driving"
	"github.com/behole/scribble/internal/logger"
)

// Server is a long-running surface such as the HTTP dashboard.
type Server interface {
	// Serve blocks until ctx is cancelled.
	Serve(ctx context.Context) error
}

// Daemon ties the watcher, dispatcher, scheduler and server together.
type Daemon struct {
	source     driven.FileEventSource
	dispatcher driving.Dispatcher
	scheduler  driving.Scheduler
	server     Server
}

// NewDaemon creates a daemon. scheduler and server may be nil.
func NewDaemon(
	source driven.FileEventSource,
	dispatcher driving.Dispatcher,
	scheduler driving.Scheduler,
	server Server,
) *Daemon {
	return &Daemon{
		source:     source,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		server:     server,
	}
}

// Scan processes every file already in the folder and returns the outcomes.
func (d *Daemon) Scan(ctx context.Context) ([]domain.ProcessingOutcome, error) {
	paths, err := d.source.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan notes folder: %w", err)
	}
	logger.Info("scan found %d files", len(paths))
	return d.dispatcher.DispatchAll(ctx, paths), nil
}

// Run scans the folder, then processes watcher events one at a time until
// ctx is cancelled. The scheduler and server run alongside.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes, err := d.Scan(ctx)
	if err != nil {
		return err
	}
	logSummary(outcomes)

	events, err := d.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch notes folder: %w", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if d.scheduler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("scheduler: %w", err)
			}
		}()
	}
	if d.server != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("server: %w", err)
			}
		}()
	}

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errCh:
			runErr = err
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			d.dispatcher.Dispatch(ctx, ev.Path)
		}
	}

	cancel()
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			logger.Warn("stopping scheduler: %v", err)
		}
	}
	wg.Wait()
	logger.Info("daemon stopped")
	return runErr
}

// logSummary logs counts per outcome status.
func logSummary(outcomes []domain.ProcessingOutcome) {
	counts := make(map[domain.OutcomeStatus]int)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	logger.Info("processed %d files: %d new, %d degraded, %d failed, %d skipped",
		len(outcomes),
		counts[domain.OutcomeSuccess],
		counts[domain.OutcomeDegraded],
		counts[domain.OutcomeFailed],
		counts[domain.OutcomeSkipped])
}
