package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore reads settings from a TOML or YAML file. The format follows
// the file extension; anything other than .yaml/.yml is TOML.
type ConfigStore struct {
	filePath string
	explicit bool
	lookup   func(string) (string, bool)
}

// NewConfigStore creates a settings store for path.
// If path is empty, defaults to ~/.ssai/config.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	explicit := path != ""
	if !explicit {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.toml")
	}
	return &ConfigStore{filePath: path, explicit: explicit, lookup: os.LookupEnv}, nil
}

// DefaultDir returns ~/.ssai.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".ssai"), nil
}

// Load returns the defaults overlaid with the file and then the environment.
// An explicitly requested file must exist; the default one may not.
func (s *ConfigStore) Load() (domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	data, err := os.ReadFile(s.filePath)
	switch {
	case err == nil:
		if err := s.decode(data, &settings); err != nil {
			return settings, fmt.Errorf("parse %s: %w", s.filePath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !s.explicit:
	default:
		return settings, fmt.Errorf("read %s: %w", s.filePath, err)
	}

	ApplyEnv(&settings, s.lookup)
	if settings.Storage.DataDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return settings, err
		}
		settings.Storage.DataDir = filepath.Join(dir, "data")
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Save writes settings in the file's format with owner-only permissions.
func (s *ConfigStore) Save(settings domain.AppSettings) error {
	var (
		data []byte
		err  error
	)
	if s.isYAML() {
		data, err = yaml.Marshal(settings)
	} else {
		data, err = toml.Marshal(settings)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

func (s *ConfigStore) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(s.filePath))
	return ext == ".yaml" || ext == ".yml"
}

func (s *ConfigStore) decode(data []byte, settings *domain.AppSettings) error {
	if s.isYAML() {
		return yaml.Unmarshal(data, settings)
	}
	return toml.Unmarshal(data, settings)
}
