package domain

import (
	"fmt"
	"strings"
	"time"
)

// Environment variables that override file configuration.
const (
	EnvAPIKey          = "SCRIBBLE_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvNotesFolder     = "SCRIBBLE_NOTES_FOLDER"
	EnvDBPath          = "SCRIBBLE_DB_PATH"
	EnvOutputDir       = "SCRIBBLE_OUTPUT_DIR"
)

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderOllama    AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderAnthropic, AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if the provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderAnthropic || p == AIProviderOpenAI
}

// AnalysisDepth scales how much the LLM is asked to write in digests.
type AnalysisDepth string

// Available analysis depths.
const (
	AnalysisBasic         AnalysisDepth = "basic"
	AnalysisStandard      AnalysisDepth = "standard"
	AnalysisComprehensive AnalysisDepth = "comprehensive"
)

// IsValid returns true if the depth is recognised.
func (d AnalysisDepth) IsValid() bool {
	switch d {
	case AnalysisBasic, AnalysisStandard, AnalysisComprehensive:
		return true
	default:
		return false
	}
}

// Scale applies the depth to a token budget.
func (d AnalysisDepth) Scale(tokens int) int {
	switch d {
	case AnalysisBasic:
		return tokens / 2
	case AnalysisComprehensive:
		return tokens * 3 / 2
	default:
		return tokens
	}
}

// Settings is the complete application configuration.
// It is built once at startup and passed to each component.
type Settings struct {
	// NotesFolder is the directory watched for new files.
	NotesFolder string

	// DBPath is the SQLite database file.
	DBPath string

	// OutputDir receives digest artifacts.
	OutputDir string

	LLM        LLMSettings
	Processing ProcessingSettings
	Schedule   ScheduleSettings
	Server     ServerSettings
}

// LLMSettings configures the LLM capability.
type LLMSettings struct {
	Provider    AIProvider
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Depth       AnalysisDepth
}

// IsConfigured returns true if the provider has what it needs to run.
func (s LLMSettings) IsConfigured() bool {
	if !s.Provider.IsValid() {
		return false
	}
	return !s.Provider.RequiresAPIKey() || s.APIKey != ""
}

// ProcessingSettings toggles pipeline features.
type ProcessingSettings struct {
	EnableOCR            bool
	EnableWebFetching    bool
	MaxTextLength        int
	HandwritingThreshold int

	// BacklogDelay spaces LLM calls when reprocessing a backlog.
	BacklogDelay time.Duration
}

// ScheduleSettings toggles scheduled digests.
type ScheduleSettings struct {
	Weekly           bool
	Monthly          bool
	TaskList         bool
	SuggestedReading bool

	// WeeklyDay is the weekday the weekly digest runs.
	WeeklyDay time.Weekday

	// MonthlyDay is the day of month the monthly digest runs.
	MonthlyDay int
}

// ServerSettings configures the HTTP dashboard.
type ServerSettings struct {
	Addr string
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		NotesFolder: "./notes_folder",
		OutputDir:   "digests",
		LLM: LLMSettings{
			Provider:    AIProviderAnthropic,
			Temperature: 0.7,
			MaxTokens:   4000,
			Depth:       AnalysisStandard,
		},
		Processing: ProcessingSettings{
			EnableOCR:            true,
			EnableWebFetching:    true,
			MaxTextLength:        10000,
			HandwritingThreshold: 20,
			BacklogDelay:         time.Second,
		},
		Schedule: ScheduleSettings{
			Weekly:           true,
			Monthly:          true,
			TaskList:         true,
			SuggestedReading: true,
			WeeklyDay:        time.Sunday,
			MonthlyDay:       1,
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8377",
		},
	}
}

// Validate checks settings for values the pipeline cannot run with.
func (s Settings) Validate() error {
	if s.NotesFolder == "" {
		return fmt.Errorf("%w: notes folder is required", ErrConfiguration)
	}
	if s.Processing.HandwritingThreshold < 0 {
		return fmt.Errorf("%w: handwriting threshold must not be negative", ErrConfiguration)
	}
	if s.Processing.MaxTextLength < 0 {
		return fmt.Errorf("%w: max text length must not be negative", ErrConfiguration)
	}
	if s.Schedule.MonthlyDay < 1 || s.Schedule.MonthlyDay > 28 {
		return fmt.Errorf("%w: monthly digest day must be between 1 and 28", ErrConfiguration)
	}
	if s.LLM.Depth != "" && !s.LLM.Depth.IsValid() {
		return fmt.Errorf("%w: unknown analysis depth %q", ErrConfiguration, s.LLM.Depth)
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 1 {
		return fmt.Errorf("%w: temperature must be between 0 and 1", ErrConfiguration)
	}
	return nil
}

// ParseWeekday parses an English weekday name, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: unknown weekday %q", ErrInvalidInput, s)
}
