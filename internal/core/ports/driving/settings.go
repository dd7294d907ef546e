package driving

import "github.com/behole/scribble/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get builds the current settings from defaults, file and environment.
	Get() (*domain.Settings, error)

	// Set stores one configuration key after validating it.
	Set(key, value string) error

	// SetAPIKey stores the LLM credential.
	SetAPIKey(apiKey string) error

	// Validate checks the current settings.
	Validate() error

	// Keys returns every key Set accepts, sorted.
	Keys() []string

	// ConfigPath returns where settings are persisted.
	ConfigPath() string
}
