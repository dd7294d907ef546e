package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/behole/scribble/internal/core/domain"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Browse stored content",
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored content, newest first",
	Args:  cobra.NoArgs,
	RunE:  runContentList,
}

var contentShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one content record",
	Args:  cobra.ExactArgs(1),
	RunE:  runContentShow,
}

var contentDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a content record with its tasks and tag links",
	Args:  cobra.ExactArgs(1),
	RunE:  runContentDelete,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage extracted tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, open ones first",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCompleted(true),
}

var tasksUndoCmd = &cobra.Command{
	Use:   "undo [id]",
	Short: "Reopen a completed task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskCompleted(false),
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show the most used tags",
	Args:  cobra.NoArgs,
	RunE:  runTags,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the store",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	contentListCmd.Flags().IntP("limit", "n", 20, "Maximum records to show")
	contentListCmd.Flags().Int("offset", 0, "Records to skip")
	contentListCmd.Flags().Bool("json", false, "Output as JSON")
	contentShowCmd.Flags().Bool("json", false, "Output as JSON")
	contentShowCmd.Flags().Bool("raw", false, "Show the raw extracted text")
	contentCmd.AddCommand(contentListCmd)
	contentCmd.AddCommand(contentShowCmd)
	contentCmd.AddCommand(contentDeleteCmd)
	rootCmd.AddCommand(contentCmd)

	tasksListCmd.Flags().BoolP("all", "a", false, "Include completed tasks")
	tasksListCmd.Flags().IntP("limit", "n", 0, "Maximum tasks to show (0 = all)")
	tasksListCmd.Flags().Bool("json", false, "Output as JSON")
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksUndoCmd)
	rootCmd.AddCommand(tasksCmd)

	tagsCmd.Flags().IntP("limit", "n", 20, "Maximum tags to show")
	tagsCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(tagsCmd)

	statsCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runContentList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return notConfigured("library service")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	asJSON, _ := cmd.Flags().GetBool("json")

	views, total, err := libraryService.ListContent(cmd.Context(), domain.Page{Offset: offset, Limit: limit})
	if err != nil {
		return fmt.Errorf("listing content: %w", err)
	}

	if asJSON {
		return printJSON(cmd, struct {
			Total   int                  `json:"total"`
			Content []domain.ContentView `json:"content"`
		}{total, views})
	}

	if len(views) == 0 {
		cmd.Println("No content stored yet.")
		return nil
	}

	rows := make([][]string, len(views))
	for i := range views {
		v := &views[i]
		rows[i] = []string{
			v.ID,
			string(v.Kind),
			v.Filename(),
			formatTime(v.ProcessedAt),
			strings.Join(v.Tags, " "),
		}
	}
	renderTable(cmd.OutOrStdout(), []string{"ID", "KIND", "FILE", "PROCESSED", "TAGS"}, rows)
	cmd.Printf("Showing %d of %d\n", len(views), total)
	return nil
}

func runContentShow(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return notConfigured("library service")
	}

	view, err := libraryService.GetContent(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting content: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, view)
	}

	out := cmd.OutOrStdout()
	heading(out, view.Filename())
	cmd.Printf("ID:        %s\n", view.ID)
	cmd.Printf("Path:      %s\n", view.Path)
	cmd.Printf("Kind:      %s\n", view.Kind)
	cmd.Printf("Processed: %s\n", formatTime(view.ProcessedAt))
	if len(view.Tags) > 0 {
		cmd.Printf("Tags:      %s\n", strings.Join(view.Tags, " "))
	}
	if len(view.Metadata) > 0 {
		keys := make([]string, 0, len(view.Metadata))
		for k := range view.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Println("Metadata:")
		for _, k := range keys {
			cmd.Printf("  %s: %v\n", k, view.Metadata[k])
		}
	}

	text := view.Text()
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		text = view.RawText
	}
	cmd.Println()
	cmd.Println(text)
	return nil
}

func runContentDelete(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return notConfigured("library service")
	}
	if err := libraryService.DeleteContent(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting content: %w", err)
	}
	cmd.Printf("Deleted content %s\n", args[0])
	return nil
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return notConfigured("library service")
	}

	all, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	tasks, err := libraryService.Tasks(cmd.Context(), domain.TaskFilter{IncludeCompleted: all, Limit: limit})
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	if asJSON {
		return printJSON(cmd, tasks)
	}
	if len(tasks) == 0 {
		cmd.Println("No tasks found.")
		return nil
	}

	rows := make([][]string, len(tasks))
	for i := range tasks {
		task := &tasks[i]
		status := "[ ]"
		if task.Completed {
			status = "[x]"
		}
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.Format("2006-01-02")
		}
		rows[i] = []string{task.ID, status, shorten(task.Text, 60), due}
	}
	renderTable(cmd.OutOrStdout(), []string{"ID", "DONE", "TASK", "DUE"}, rows)
	return nil
}

func runTaskCompleted(completed bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if libraryService == nil {
			return notConfigured("library service")
		}
		if err := libraryService.SetTaskCompleted(cmd.Context(), args[0], completed); err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		if completed {
			cmd.Printf("Completed task %s\n", args[0])
		} else {
			cmd.Printf("Reopened task %s\n", args[0])
		}
		return nil
	}
}

func runTags(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return notConfigured("library service")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	tags, err := libraryService.TopTags(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("listing tags: %w", err)
	}

	if asJSON {
		return printJSON(cmd, tags)
	}
	if len(tags) == 0 {
		cmd.Println("No tags yet.")
		return nil
	}

	rows := make([][]string, len(tags))
	for i, tag := range tags {
		rows[i] = []string{"#" + tag.Name, strconv.Itoa(tag.Count)}
	}
	renderTable(cmd.OutOrStdout(), []string{"TAG", "COUNT"}, rows)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return notConfigured("library service")
	}

	stats, err := libraryService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, stats)
	}

	heading(cmd.OutOrStdout(), "Store")
	cmd.Printf("Files:           %d\n", stats.Files)
	cmd.Printf("Content records: %d\n", stats.ContentRecords)
	cmd.Printf("Unprocessed:     %d\n", stats.Unprocessed)
	cmd.Printf("Tags:            %d\n", stats.Tags)
	cmd.Printf("Open tasks:      %d\n", stats.OpenTasks)
	cmd.Printf("Completed tasks: %d\n", stats.CompletedTasks)
	cmd.Printf("Digests:         %d\n", stats.Digests)

	if len(stats.ByKind) > 0 {
		cmd.Println()
		cmd.Println("By kind:")
		for _, kind := range domain.AllKinds() {
			if n := stats.ByKind[kind]; n > 0 {
				cmd.Printf("  %-10s %d\n", kind, n)
			}
		}
	}
	return nil
}
