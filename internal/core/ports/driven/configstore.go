package driven

import "github.com/custodia-labs/sales-support-ai/internal/core/domain"

// ConfigStore loads and persists application settings.
type ConfigStore interface {
	// Load returns the defaults overlaid with the settings file and the
	// environment. A missing settings file is not an error.
	Load() (domain.AppSettings, error)

	// Save writes settings to the file at Path.
	Save(settings domain.AppSettings) error

	// Path returns the settings file path.
	Path() string
}
