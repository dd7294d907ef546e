package domain

import (
	"fmt"
	"time"
)

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Schedule is a five-field cron expression.
	Schedule string

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// TaskID identifies which task was run.
	TaskID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is a count of items handled (e.g., digests written).
	ItemsProcessed int
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// TaskConfigs holds per-task configuration.
	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	// Enabled indicates whether this task should run.
	Enabled bool

	// Schedule is a five-field cron expression.
	Schedule string
}

// GetTaskConfig returns the configuration for a specific task.
// Returns a zero TaskConfig if the task is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// SchedulerConfigFrom derives digest schedules from settings.
func SchedulerConfigFrom(s ScheduleSettings) SchedulerConfig {
	return SchedulerConfig{
		Enabled: s.Weekly || s.Monthly || s.TaskList || s.SuggestedReading,
		TaskConfigs: map[string]TaskConfig{
			TaskIDWeeklyDigest: {
				Enabled:  s.Weekly,
				Schedule: fmt.Sprintf("0 0 * * %d", int(s.WeeklyDay)),
			},
			TaskIDMonthlyDigest: {
				Enabled:  s.Monthly,
				Schedule: fmt.Sprintf("0 0 %d * *", s.MonthlyDay),
			},
			TaskIDTaskList: {
				Enabled:  s.TaskList,
				Schedule: "0 8 * * *",
			},
			TaskIDSuggestedReading: {
				Enabled:  s.SuggestedReading,
				Schedule: "0 9 * * 5",
			},
		},
	}
}

// DefaultSchedulerConfig returns sensible defaults for the scheduler.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfigFrom(DefaultSettings().Schedule)
}

// Task IDs for built-in tasks.
const (
	TaskIDWeeklyDigest     = "weekly-digest"
	TaskIDMonthlyDigest    = "monthly-digest"
	TaskIDTaskList         = "task-list"
	TaskIDSuggestedReading = "suggested-reading"
)

// TaskIDs returns the built-in task IDs in a stable order.
func TaskIDs() []string {
	return []string{TaskIDWeeklyDigest, TaskIDMonthlyDigest, TaskIDTaskList, TaskIDSuggestedReading}
}
