// Package settings provides the key-value settings database consulted during
// technology resolution. Keys are dotted paths (e.g. "vlsi.inputs.supplies.VDD")
// and values come from the viper configuration stack: config files, environment,
// and per-run overrides.
package settings

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/cedard234/hammer/internal/log"
)

// ErrNotConfigured is returned when a requested key has no value anywhere in
// the configuration stack. Callers that treat a key as optional should test
// for it with errors.Is.
var ErrNotConfigured = errors.New("setting not configured")

// Store is a read-mostly view over a viper instance. It is safe for
// concurrent reads once populated; Set is intended for test setup and CLI
// flag binding, not for mid-run mutation.
type Store struct {
	v *viper.Viper
}

// NewStore wraps an existing viper instance.
func NewStore(v *viper.Viper) *Store {
	return &Store{v: v}
}

// NewStoreFromMap builds a store from a flat map of dotted keys to values.
// Primarily used by tests and by descriptor fixtures.
func NewStoreFromMap(values map[string]any) *Store {
	v := viper.New()
	for key, value := range values {
		v.Set(key, value)
	}
	return &Store{v: v}
}

// Has reports whether the key has a configured value.
func (s *Store) Has(key string) bool {
	return s.v.IsSet(key)
}

// Get returns the raw value for the key, or ErrNotConfigured when absent.
func (s *Store) Get(key string) (any, error) {
	if !s.v.IsSet(key) {
		log.Debug(log.CatSettings, "Key not configured", "key", key)
		return nil, fmt.Errorf("%q: %w", key, ErrNotConfigured)
	}
	return s.v.Get(key), nil
}

// GetString returns the value for the key as a string, or ErrNotConfigured
// when absent.
func (s *Store) GetString(key string) (string, error) {
	if !s.v.IsSet(key) {
		log.Debug(log.CatSettings, "Key not configured", "key", key)
		return "", fmt.Errorf("%q: %w", key, ErrNotConfigured)
	}
	return s.v.GetString(key), nil
}

// GetStringOr returns the value for the key, or the fallback when absent or
// empty.
func (s *Store) GetStringOr(key, fallback string) string {
	if !s.v.IsSet(key) {
		return fallback
	}
	if value := s.v.GetString(key); value != "" {
		return value
	}
	return fallback
}

// GetBool returns the value for the key interpreted as a bool. Absent keys
// are false.
func (s *Store) GetBool(key string) bool {
	return s.v.GetBool(key)
}

// GetSlice returns the value for the key as a []any, or ErrNotConfigured when
// absent. A scalar value is an error: the caller asked for a list.
func (s *Store) GetSlice(key string) ([]any, error) {
	raw, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	slice, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("setting %q is not a list (got %T)", key, raw)
	}
	return slice, nil
}

// Set writes a per-run override into the store.
func (s *Store) Set(key string, value any) {
	s.v.Set(key, value)
}
