package config

import (
	"errors"
	"fmt"
)

// SettingsSource supplies Settings. Sources are read at the start of every
// scan, so a source backed by files picks up edits between scans.
type SettingsSource interface {
	LoadSettings() (Settings, error)
}

// StaticSource always returns the same Settings.
type StaticSource Settings

func (s StaticSource) LoadSettings() (Settings, error) {
	st := Settings(s)
	return st, st.Validate()
}

// FileSource layers the global config, then the config found in Root, over
// the defaults.
type FileSource struct {
	Root       string
	SkipGlobal bool
}

func (s FileSource) LoadSettings() (Settings, error) {
	st := DefaultSettings()
	if !s.SkipGlobal {
		if fc, err := LoadGlobal(); err == nil {
			if st, err = st.Merge(fc); err != nil {
				return st, fmt.Errorf("global config: %w", err)
			}
		} else if !errors.Is(err, ErrNoConfig) {
			return st, fmt.Errorf("global config: %w", err)
		}
	}
	if s.Root != "" {
		if fc, err := LoadLocal(s.Root); err == nil {
			if st, err = st.Merge(fc); err != nil {
				return st, fmt.Errorf("local config: %w", err)
			}
		} else if !errors.Is(err, ErrNoConfig) {
			return st, fmt.Errorf("local config: %w", err)
		}
	}
	return st, st.Validate()
}
