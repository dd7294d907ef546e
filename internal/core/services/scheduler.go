package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/ports/driving"
	"github.com/behole/scribble/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyKeep is how many results are kept per task.
const historyKeep = 100

// taskNames are the display names of the built-in tasks.
var taskNames = map[string]string{
	domain.TaskIDWeeklyDigest:     "Weekly Digest",
	domain.TaskIDMonthlyDigest:    "Monthly Digest",
	domain.TaskIDTaskList:         "Task List",
	domain.TaskIDSuggestedReading: "Suggested Reading",
}

// Scheduler runs digest generation on cron schedules.
// Task state lives in the store so runs missed while the process was
// down are caught up on the next start.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	digests driving.DigestCompiler

	// now is the clock; tests replace it.
	now func() time.Time

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	inFlight map[string]bool
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	digests driving.DigestCompiler,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		digests:  digests,
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// Tasks returns the stored task state.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	if err := s.initialiseTasks(ctx); err != nil {
		return nil, err
	}
	return s.store.ListTasks(ctx)
}

// initialiseTasks ensures every built-in task exists in the store with
// its configured schedule.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	for _, id := range domain.TaskIDs() {
		if err := s.ensureTask(ctx, id, taskNames[id], s.config.GetTaskConfig(id)); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	sched, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return fmt.Errorf("%w: task %s schedule %q: %v", domain.ErrConfiguration, id, cfg.Schedule, err)
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	enabled := s.config.Enabled && cfg.Enabled
	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Schedule: cfg.Schedule,
			Enabled:  enabled,
			NextRun:  sched.Next(s.now()),
		}
	} else {
		// Recalculate next run from now when the schedule changed
		if task.Schedule != cfg.Schedule || task.NextRun.IsZero() {
			task.Schedule = cfg.Schedule
			task.NextRun = sched.Next(s.now())
		}
		task.Name = name
		task.Enabled = enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	// Use a 1-minute ticker to check for due tasks
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, &task)
		}
	}
}

// runTask executes a single task in the background. A task that is still
// running from an earlier tick is not started again.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.inFlight[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
			s.wg.Done()
		}()
		s.execute(ctx, task)
	}()
}

// execute runs a task, then records its state and result.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) {
	result := &domain.TaskResult{
		TaskID:    task.ID,
		StartedAt: s.now(),
	}
	logger.Info("scheduler: running %s", task.ID)

	var err error
	result.ItemsProcessed, err = s.dispatch(ctx, task.ID)
	result.EndedAt = s.now()

	switch {
	case err == nil:
		result.Success = true
	case errors.Is(err, domain.ErrNothingToReport):
		logger.Info("scheduler: %s had nothing to report", task.ID)
		result.Success = true
		result.Error = err.Error()
	default:
		logger.Warn("scheduler: %s failed: %v", task.ID, err)
		result.Error = err.Error()
	}

	if result.Success {
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	} else {
		task.LastError = result.Error
	}

	// Update task state
	task.LastRun = result.StartedAt
	if sched, parseErr := cron.ParseStandard(task.Schedule); parseErr == nil {
		task.NextRun = sched.Next(result.EndedAt)
	} else {
		logger.Error("scheduler: task %s has an invalid schedule %q: %v", task.ID, task.Schedule, parseErr)
		task.Enabled = false
	}

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Error("scheduler: failed to save task %s: %v", task.ID, saveErr)
	}

	// Record result for history
	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		logger.Error("scheduler: failed to record result for %s: %v", task.ID, recordErr)
	}

	if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
		logger.Error("scheduler: failed to prune history: %v", pruneErr)
	}
}

// dispatch maps a task ID to its digest and returns the digests written.
func (s *Scheduler) dispatch(ctx context.Context, taskID string) (int, error) {
	if s.digests == nil {
		return 0, nil
	}

	var err error
	switch taskID {
	case domain.TaskIDWeeklyDigest:
		_, err = s.digests.Weekly(ctx, s.now())
	case domain.TaskIDMonthlyDigest:
		prev := firstOfMonth(s.now()).AddDate(0, -1, 0)
		_, err = s.digests.Monthly(ctx, prev.Year(), prev.Month())
	case domain.TaskIDTaskList:
		_, err = s.digests.TaskList(ctx)
	case domain.TaskIDSuggestedReading:
		_, err = s.digests.SuggestedReading(ctx)
	default:
		return 0, fmt.Errorf("%w: unknown task %q", domain.ErrInvalidInput, taskID)
	}
	if err != nil {
		return 0, err
	}
	return 1, nil
}
