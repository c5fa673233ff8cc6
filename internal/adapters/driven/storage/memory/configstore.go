package memory

import (
	"sync"

	"github.com/custodia-labs/sales-support-ai/internal/core/domain"
	"github.com/custodia-labs/sales-support-ai/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is an in-memory implementation of driven.ConfigStore for testing.
type ConfigStore struct {
	mu       sync.RWMutex
	settings domain.AppSettings
	saves    int
}

// NewConfigStore creates a store holding the default settings.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{settings: domain.DefaultAppSettings()}
}

// Load returns the stored settings after validating them.
func (s *ConfigStore) Load() (domain.AppSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings := s.settings
	if err := settings.Validate(); err != nil {
		return domain.AppSettings{}, err
	}
	return settings, nil
}

// Save replaces the stored settings.
func (s *ConfigStore) Save(settings domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *ConfigStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Path returns a placeholder path since there's no file.
func (s *ConfigStore) Path() string {
	return "(memory)"
}
