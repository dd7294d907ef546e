package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/behole/scribble/internal/core/domain"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Generate digests",
	Long: `Generate a digest now. Each digest is saved to the store and written
as Markdown and HTML into the output directory.

Without an LLM provider digests are built from the stored text.`,
}

var digestWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Digest the last seven days",
	Args:  cobra.NoArgs,
	RunE:  runDigestWeekly,
}

var digestMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Digest a calendar month (default: last month)",
	Args:  cobra.NoArgs,
	RunE:  runDigestMonthly,
}

var digestTasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List open and completed tasks",
	Args:  cobra.NoArgs,
	RunE:  runDigestKind(domain.DigestTaskList),
}

var digestTopicCmd = &cobra.Command{
	Use:   "topic [tag]",
	Short: "Report on one tag (default: the most used tag)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDigestTopic,
}

var digestReadingCmd = &cobra.Command{
	Use:   "reading",
	Short: "Suggest reading based on the last 30 days (requires an LLM)",
	Args:  cobra.NoArgs,
	RunE:  runDigestKind(domain.DigestSuggestedReading),
}

var digestFullCmd = &cobra.Command{
	Use:   "full",
	Short: "Combine every weekly digest into one document",
	Args:  cobra.NoArgs,
	RunE:  runDigestKind(domain.DigestFull),
}

func init() {
	digestCmd.PersistentFlags().Bool("print", false, "Print the digest body")
	digestWeeklyCmd.Flags().String("end", "", "End date of the week, YYYY-MM-DD (default: now)")
	digestMonthlyCmd.Flags().String("month", "", "Month to digest, YYYY-MM")

	digestCmd.AddCommand(digestWeeklyCmd)
	digestCmd.AddCommand(digestMonthlyCmd)
	digestCmd.AddCommand(digestTasksCmd)
	digestCmd.AddCommand(digestTopicCmd)
	digestCmd.AddCommand(digestReadingCmd)
	digestCmd.AddCommand(digestFullCmd)
	rootCmd.AddCommand(digestCmd)
}

func runDigestWeekly(cmd *cobra.Command, _ []string) error {
	var opts domain.DigestOptions
	end, err := cmd.Flags().GetString("end")
	if err != nil {
		return fmt.Errorf("getting end flag: %w", err)
	}
	if end != "" {
		t, err := time.ParseInLocation("2006-01-02", end, time.Local)
		if err != nil {
			return fmt.Errorf("%w: end date %q, want YYYY-MM-DD", domain.ErrInvalidInput, end)
		}
		// The whole end day is included.
		opts.End = t.AddDate(0, 0, 1)
	}
	return generateDigest(cmd, domain.DigestWeekly, opts)
}

func runDigestMonthly(cmd *cobra.Command, _ []string) error {
	var opts domain.DigestOptions
	month, err := cmd.Flags().GetString("month")
	if err != nil {
		return fmt.Errorf("getting month flag: %w", err)
	}
	if month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return fmt.Errorf("%w: month %q, want YYYY-MM", domain.ErrInvalidInput, month)
		}
		opts.Year, opts.Month = t.Year(), t.Month()
	}
	return generateDigest(cmd, domain.DigestMonthly, opts)
}

func runDigestTopic(cmd *cobra.Command, args []string) error {
	var opts domain.DigestOptions
	if len(args) == 1 {
		opts.Tag = args[0]
	}
	return generateDigest(cmd, domain.DigestTopic, opts)
}

func runDigestKind(kind domain.DigestKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return generateDigest(cmd, kind, domain.DigestOptions{})
	}
}

func generateDigest(cmd *cobra.Command, kind domain.DigestKind, opts domain.DigestOptions) error {
	if digestCompiler == nil {
		return notConfigured("digest service")
	}

	result, err := digestCompiler.Generate(cmd.Context(), kind, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNothingToReport) {
			cmd.Printf("Nothing to report: %s\n", strings.TrimPrefix(err.Error(), domain.ErrNothingToReport.Error()+": "))
			return nil
		}
		return fmt.Errorf("generating %s digest: %w", kind, err)
	}

	d := result.Digest
	cmd.Printf("Generated %s digest %s\n", d.Kind, d.ID)
	if !d.PeriodStart.IsZero() {
		cmd.Printf("  Period: %s to %s\n", d.PeriodStart.Format("2006-01-02"), d.PeriodEnd.Format("2006-01-02"))
	}
	for _, p := range result.Paths {
		cmd.Printf("  Wrote: %s\n", p)
	}

	printBody, _ := cmd.Flags().GetBool("print")
	if printBody {
		cmd.Println()
		cmd.Println(d.Body)
	}
	return nil
}
