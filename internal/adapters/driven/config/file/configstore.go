package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"

	"github.com/tisaac13/villagevote/internal/core/domain"
	"github.com/tisaac13/villagevote/internal/core/ports/driven"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "villagevote"

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is a TOML-file implementation of driven.SettingsStore.
// Credentials are read from the environment so they never need to live in
// the file.
type SettingsStore struct {
	mu        sync.Mutex
	configDir string
	filePath  string
}

// environment holds the variables overlaid on the file, e.g.
// VILLAGEVOTE_CONGRESS_API_KEY.
type environment struct {
	CongressAPIKey   string `envconfig:"CONGRESS_API_KEY"`
	OpenStatesAPIKey string `envconfig:"OPENSTATES_API_KEY"`
	DatabasePath     string `envconfig:"DATABASE_PATH"`
	LegistarClient   string `envconfig:"LEGISTAR_CLIENT"`
}

// NewSettingsStore creates a settings store.
// If configDir is empty, defaults to ~/.villagevote/config.toml.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".villagevote")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		configDir: configDir,
		filePath:  filepath.Join(configDir, "config.toml"),
	}, nil
}

// NewSettingsStoreForFile uses an explicit configuration file. The data
// directory defaults to the file's directory.
func NewSettingsStoreForFile(path string) *SettingsStore {
	return &SettingsStore{
		configDir: filepath.Dir(path),
		filePath:  path,
	}
}

// Load reads the file, overlays the environment and applies defaults.
// A missing file yields the defaults.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var settings domain.Settings
	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return domain.Settings{}, err
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&settings); err != nil {
			return domain.Settings{}, fmt.Errorf("%s: %w: %w", s.filePath, domain.ErrInvalidInput, err)
		}
	}

	var env environment
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return domain.Settings{}, fmt.Errorf("error processing environment: %w", err)
	}
	overlay(&settings.Congress.APIKey, env.CongressAPIKey)
	overlay(&settings.OpenStates.APIKey, env.OpenStatesAPIKey)
	overlay(&settings.Database.Path, env.DatabasePath)
	overlay(&settings.Legistar.Client, env.LegistarClient)

	if settings.Database.Path == "" {
		settings.Database.Path = s.configDir
	}
	settings.ApplyDefaults()
	return settings, nil
}

// Save writes settings to the file with restricted permissions.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(settings)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
