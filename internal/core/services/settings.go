package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/behole/scribble/internal/core/domain"
	"github.com/behole/scribble/internal/core/ports/driven"
	"github.com/behole/scribble/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyNotesFolder          = "notes_folder"
	keyDBPath               = "db_path"
	keyOutputDir            = "output_dir"
	keyLLMProvider          = "llm.provider"
	keyLLMAPIKey            = "llm.api_key"
	keyLLMBaseURL           = "llm.base_url"
	keyLLMModel             = "llm.model"
	keyLLMTemperature       = "llm.temperature"
	keyLLMMaxTokens         = "llm.max_tokens"
	keyLLMDepth             = "llm.analysis_depth"
	keyEnableOCR            = "processing.enable_ocr"
	keyEnableWebFetching    = "processing.enable_web_fetching"
	keyMaxTextLength        = "processing.max_text_length"
	keyHandwritingThreshold = "processing.handwriting_threshold"
	keyBacklogDelay         = "processing.backlog_delay"
	keyWeeklyDigest         = "schedule.weekly_digest"
	keyMonthlyDigest        = "schedule.monthly_digest"
	keyTaskList             = "schedule.task_list"
	keySuggestedReading     = "schedule.suggested_reading"
	keyWeeklyDay            = "schedule.weekly_digest_day"
	keyMonthlyDay           = "schedule.monthly_digest_day"
	keyServerAddr           = "server.addr"
)

type valueKind int

const (
	kindString valueKind = iota
	kindPath
	kindBool
	kindInt
	kindFloat
	kindDuration
	kindWeekday
	kindProvider
	kindDepth
)

// settingKinds lists every recognised key with the type Set parses it as.
var settingKinds = map[string]valueKind{
	keyNotesFolder:          kindPath,
	keyDBPath:               kindPath,
	keyOutputDir:            kindPath,
	keyLLMProvider:          kindProvider,
	keyLLMAPIKey:            kindString,
	keyLLMBaseURL:           kindString,
	keyLLMModel:             kindString,
	keyLLMTemperature:       kindFloat,
	keyLLMMaxTokens:         kindInt,
	keyLLMDepth:             kindDepth,
	keyEnableOCR:            kindBool,
	keyEnableWebFetching:    kindBool,
	keyMaxTextLength:        kindInt,
	keyHandwritingThreshold: kindInt,
	keyBacklogDelay:         kindDuration,
	keyWeeklyDigest:         kindBool,
	keyMonthlyDigest:        kindBool,
	keyTaskList:             kindBool,
	keySuggestedReading:     kindBool,
	keyWeeklyDay:            kindWeekday,
	keyMonthlyDay:           kindInt,
	keyServerAddr:           kindString,
}

// SettingKeys returns every recognised configuration key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService builds domain.Settings from defaults, the config store
// and the environment, in increasing order of precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		NotesFolder: expandHome(s.getString(keyNotesFolder, d.NotesFolder)),
		DBPath:      expandHome(s.getString(keyDBPath, d.DBPath)),
		OutputDir:   expandHome(s.getString(keyOutputDir, d.OutputDir)),
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(d.LLM.Provider),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			Model:       s.configStore.GetString(keyLLMModel),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			Depth:       s.getDepth(d.LLM.Depth),
		},
		Processing: domain.ProcessingSettings{
			EnableOCR:            s.getBool(keyEnableOCR, d.Processing.EnableOCR),
			EnableWebFetching:    s.getBool(keyEnableWebFetching, d.Processing.EnableWebFetching),
			MaxTextLength:        s.getInt(keyMaxTextLength, d.Processing.MaxTextLength),
			HandwritingThreshold: s.getInt(keyHandwritingThreshold, d.Processing.HandwritingThreshold),
			BacklogDelay:         s.getDuration(keyBacklogDelay, d.Processing.BacklogDelay),
		},
		Schedule: domain.ScheduleSettings{
			Weekly:           s.getBool(keyWeeklyDigest, d.Schedule.Weekly),
			Monthly:          s.getBool(keyMonthlyDigest, d.Schedule.Monthly),
			TaskList:         s.getBool(keyTaskList, d.Schedule.TaskList),
			SuggestedReading: s.getBool(keySuggestedReading, d.Schedule.SuggestedReading),
			WeeklyDay:        s.getWeekday(d.Schedule.WeeklyDay),
			MonthlyDay:       s.getInt(keyMonthlyDay, d.Schedule.MonthlyDay),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
	}

	applyEnv(settings)
	return settings, nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(settings *domain.Settings) {
	if v := os.Getenv(domain.EnvNotesFolder); v != "" {
		settings.NotesFolder = expandHome(v)
	}
	if v := os.Getenv(domain.EnvDBPath); v != "" {
		settings.DBPath = expandHome(v)
	}
	if v := os.Getenv(domain.EnvOutputDir); v != "" {
		settings.OutputDir = expandHome(v)
	}

	providerKey := ""
	switch settings.LLM.Provider {
	case domain.AIProviderAnthropic:
		providerKey = os.Getenv(domain.EnvAnthropicAPIKey)
	case domain.AIProviderOpenAI:
		providerKey = os.Getenv(domain.EnvOpenAIAPIKey)
	}
	switch {
	case os.Getenv(domain.EnvAPIKey) != "":
		settings.LLM.APIKey = os.Getenv(domain.EnvAPIKey)
	case providerKey != "":
		settings.LLM.APIKey = providerKey
	}
}

// Set parses value according to key and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindString, kindPath:
		parsed = value
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		if n < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
		}
		if key == keyMonthlyDay && (n < 1 || n > 28) {
			return fmt.Errorf("%w: %s must be between 1 and 28", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		if f < 0 || f > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindDuration:
		d, err := parseDelay(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a duration such as 1s or 500ms", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	case kindWeekday:
		day, err := parseWeekday(value)
		if err != nil {
			return err
		}
		parsed = strings.ToLower(day.String())
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindDepth:
		if !domain.AnalysisDepth(value).IsValid() {
			return fmt.Errorf("%w: unknown analysis depth %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetAPIKey stores the LLM credential.
func (s *SettingsService) SetAPIKey(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: API key must not be empty", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(keyLLMAPIKey, apiKey); err != nil {
		return fmt.Errorf("save llm api_key: %w", err)
	}
	return nil
}

// Validate checks that the current settings can run the pipeline, then
// pings the LLM provider when one is configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if s.aiValidator == nil || !settings.LLM.IsConfigured() {
		return nil
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Keys returns every key Set accepts, sorted.
func (s *SettingsService) Keys() []string {
	return SettingKeys()
}

// ConfigPath returns where settings are persisted.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	switch v := raw.(type) {
	case string:
		if d, err := parseDelay(v); err == nil {
			return d
		}
	case int64:
		return time.Duration(v) * time.Second
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return defaultVal
}

func (s *SettingsService) getWeekday(defaultVal time.Weekday) time.Weekday {
	raw, exists := s.configStore.Get(keyWeeklyDay)
	if !exists {
		return defaultVal
	}
	day, err := parseWeekday(fmt.Sprint(raw))
	if err != nil {
		return defaultVal
	}
	return day
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(keyLLMProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getDepth(defaultVal domain.AnalysisDepth) domain.AnalysisDepth {
	depth := domain.AnalysisDepth(s.configStore.GetString(keyLLMDepth))
	if !depth.IsValid() {
		return defaultVal
	}
	return depth
}

// parseDelay accepts a Go duration or a number of seconds.
func parseDelay(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative duration %q", v)
		}
		return d, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// parseWeekday accepts a weekday name or a number with Sunday as 0.
func parseWeekday(v string) (time.Weekday, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return time.Sunday, fmt.Errorf("%w: weekday %d out of range", domain.ErrInvalidInput, n)
		}
		return time.Weekday(n), nil
	}
	return domain.ParseWeekday(v)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
