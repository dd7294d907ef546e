package cli

import (
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect scheduled digests",
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled tasks with their next run",
	Args:  cobra.NoArgs,
	RunE:  runScheduleList,
}

func init() {
	scheduleListCmd.Flags().Bool("json", false, "Output as JSON")
	scheduleCmd.AddCommand(scheduleListCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleList(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return notConfigured("scheduler")
	}

	tasks, err := scheduler.Tasks(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, tasks)
	}

	rows := make([][]string, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		enabled := "yes"
		next := formatTime(task.NextRun)
		if !task.Enabled {
			enabled = "no"
			next = "-"
		}
		last := formatTime(task.LastRun)
		if task.LastError != "" {
			last += " " + errorStyle.Render("(failed)")
		}
		rows[i] = []string{task.ID, task.Schedule, enabled, next, last}
	}
	renderTable(cmd.OutOrStdout(), []string{"TASK", "SCHEDULE", "ENABLED", "NEXT RUN", "LAST RUN"}, rows)
	return nil
}
