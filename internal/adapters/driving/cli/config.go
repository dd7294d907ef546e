package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/behole/scribble/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change settings stored in the configuration file.

Environment variables override the file: SCRIBBLE_API_KEY, ANTHROPIC_API_KEY,
OPENAI_API_KEY, SCRIBBLE_NOTES_FOLDER, SCRIBBLE_DB_PATH and
SCRIBBLE_OUTPUT_DIR. A .env file in the working directory or the config
directory is loaded at startup.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set one configuration value. Run without arguments to list the keys.

For llm.provider and llm.analysis_depth the value may be omitted to pick
from a list.

Examples:
  scribble config set notes_folder ~/Notes
  scribble config set llm.provider ollama
  scribble config set schedule.weekly_digest_day friday
  scribble config set processing.backlog_delay 2s`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfigSet,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Store the LLM provider API key",
	Long: `Store the API key for the configured LLM provider.

When the key is not given as an argument it is read from the terminal
without echo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigSetKey,
}

// choices lists the values offered when a set command omits its value.
var choices = map[string][]string{
	"llm.provider": {
		string(domain.AIProviderAnthropic),
		string(domain.AIProviderOpenAI),
		string(domain.AIProviderOllama),
	},
	"llm.analysis_depth": {
		string(domain.AnalysisBasic),
		string(domain.AnalysisStandard),
		string(domain.AnalysisComprehensive),
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	heading(cmd.OutOrStdout(), "Current Settings")
	cmd.Printf("Config file:  %s\n", settingsService.ConfigPath())
	cmd.Printf("Notes folder: %s\n", settings.NotesFolder)
	cmd.Printf("Database:     %s\n", settings.DBPath)
	cmd.Printf("Output:       %s\n", settings.OutputDir)
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider)
	if settings.LLM.Model != "" {
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
	}
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Max tokens: %d (%s analysis)\n", settings.LLM.MaxTokens, settings.LLM.Depth)
	status := "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured, using heuristics"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Processing]")
	cmd.Printf("  OCR: %s\n", onOff(settings.Processing.EnableOCR))
	cmd.Printf("  Web fetching: %s\n", onOff(settings.Processing.EnableWebFetching))
	cmd.Printf("  Max text length: %d\n", settings.Processing.MaxTextLength)
	cmd.Printf("  Handwriting threshold: %d\n", settings.Processing.HandwritingThreshold)
	cmd.Printf("  Backlog delay: %s\n", settings.Processing.BacklogDelay)
	cmd.Println()

	sched := settings.Schedule
	cmd.Println("[Schedule]")
	cmd.Printf("  Weekly digest: %s (%s)\n", onOff(sched.Weekly), sched.WeeklyDay)
	cmd.Printf("  Monthly digest: %s (day %d)\n", onOff(sched.Monthly), sched.MonthlyDay)
	cmd.Printf("  Task list: %s\n", onOff(sched.TaskList))
	cmd.Printf("  Suggested reading: %s\n", onOff(sched.SuggestedReading))
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'scribble config set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}

	if len(args) == 0 {
		cmd.Println("Available keys:")
		for _, key := range settingsService.Keys() {
			cmd.Printf("  %s\n", key)
		}
		return nil
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		options, ok := choices[key]
		if !ok {
			return fmt.Errorf("%w: a value is required for %s", domain.ErrInvalidInput, key)
		}
		cmd.Printf("Select %s:\n", key)
		for i, opt := range options {
			cmd.Printf("  %d. %s\n", i+1, opt)
		}
		cmd.Print("\nEnter choice [1]: ")
		input := readLine(bufio.NewReader(cmd.InOrStdin()))
		value = options[parseChoice(input, len(options), 1)-1]
	}

	if err := settingsService.Set(key, value); err != nil {
		return err
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		cmd.Print("API key: ")
		key = readPassword(cmd.InOrStdin())
		cmd.Println()
	}

	if err := settingsService.SetAPIKey(key); err != nil {
		return err
	}
	cmd.Printf("API key saved: %s\n", maskAPIKey(strings.TrimSpace(key)))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads a secret without echo when in is a terminal.
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	return readLine(bufio.NewReader(in))
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
