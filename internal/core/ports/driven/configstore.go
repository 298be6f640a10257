package driven

import "github.com/tisaac13/villagevote/internal/core/domain"

// SettingsStore loads and persists application settings.
// Implementations handle the file format and environment overlay.
type SettingsStore interface {
	// Load reads settings from storage, overlays credentials from the
	// environment and applies defaults to every unset field.
	Load() (domain.Settings, error)

	// Save persists settings to storage.
	Save(settings domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}
