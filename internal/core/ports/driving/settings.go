package driving

import "github.com/custodia-labs/cloudmirror-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetValue sets a single dotted setting key from its string form.
	SetValue(key, value string) error

	// GetValue returns a single dotted setting key in string form.
	GetValue(key string) (string, error)

	// Keys lists the recognised setting keys.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
