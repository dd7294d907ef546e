package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/behole/scribble/internal/connectors/filesystem"
	"github.com/behole/scribble/internal/core/domain"
)

var processCmd = &cobra.Command{
	Use:   "process [path...]",
	Short: "Process files into the store",
	Long: `Extract, enrich and store the given files, one at a time.

With no arguments every file already in the notes folder is processed.
Files whose content was seen before are skipped. A bad file never stops
the rest of the batch; the command fails at the end if any file failed.

Examples:
  scribble process ~/Downloads/receipt.png notes.md
  scribble process file:///Users/me/notes/scan%201.pdf
  scribble process`,
	RunE: runProcess,
}

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Enrich stored content that was never processed by the LLM",
	Long: `Send stored content without processed text through the LLM, oldest
first, pausing between calls as set by processing.backlog_delay.

Requires a configured LLM provider.`,
	Args: cobra.NoArgs,
	RunE: runBacklog,
}

func init() {
	backlogCmd.Flags().IntP("limit", "n", 50, "Maximum records to reprocess")
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(backlogCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	var outcomes []domain.ProcessingOutcome
	if len(args) == 0 {
		if watchDaemon == nil {
			return notConfigured("watcher")
		}
		var err error
		outcomes, err = watchDaemon.Scan(cmd.Context())
		if err != nil {
			return err
		}
	} else {
		if dispatcher == nil {
			return notConfigured("dispatcher")
		}
		paths := make([]string, len(args))
		for i, arg := range args {
			paths[i] = filesystem.ResolvePath(arg)
		}
		outcomes = dispatcher.DispatchAll(cmd.Context(), paths)
	}

	return reportOutcomes(cmd.OutOrStdout(), outcomes)
}

// reportOutcomes prints one line per file and a summary. It returns an
// error when any file failed.
func reportOutcomes(w io.Writer, outcomes []domain.ProcessingOutcome) error {
	if len(outcomes) == 0 {
		fmt.Fprintln(w, "No files to process.")
		return nil
	}

	failed := 0
	for i := range outcomes {
		o := &outcomes[i]
		fmt.Fprintf(w, "%-9s %-9s %s\n", statusLabel(o.Status), o.Kind, o.Path)
		if len(o.Tags) > 0 {
			fmt.Fprintf(w, "          tags: %s\n", strings.Join(o.Tags, ", "))
		}
		for _, task := range o.Tasks {
			fmt.Fprintf(w, "          task: %s\n", task)
		}
		if o.Note != "" {
			fmt.Fprintf(w, "          %s\n", mutedStyle.Render(o.Note))
		}
		if o.Err != nil {
			fmt.Fprintf(w, "          %s\n", errorStyle.Render(o.Err.Error()))
		}
		if o.Status == domain.OutcomeFailed {
			failed++
		}
	}

	fmt.Fprintf(w, "\nProcessed %d file(s), %d failed.\n", len(outcomes), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}

func runBacklog(cmd *cobra.Command, _ []string) error {
	if backlogService == nil {
		return notConfigured("backlog service")
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}

	report, err := backlogService.Reprocess(cmd.Context(), limit)
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			return fmt.Errorf("%w\nRun 'scribble config set-key' to configure a provider", err)
		}
		return err
	}

	if report.Considered == 0 {
		cmd.Println("Nothing in the backlog.")
		return nil
	}
	cmd.Printf("Backlog: %d considered, %d processed, %d failed\n",
		report.Considered, report.Processed, report.Failed)
	return nil
}
