// CareBridge - Healthcare Speech Translation
//
// Package: console
// Description: Terminal console for dual-language conversations
// License: MIT

package console

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/carebridge/carebridge/internal/langs"
)

// Settings are the console preferences that survive restarts.
// Transcript content is never part of them.
type Settings struct {
	SourceLang   string `yaml:"source_lang"`
	TargetLang   string `yaml:"target_lang"`
	CaptureMode  string `yaml:"capture_mode"`  // live or ptt
	PlaybackMode string `yaml:"playback_mode"` // native, relay or auto
	GatewayURL   string `yaml:"gateway_url,omitempty"`
}

// DefaultSettings returns the initial console preferences
func DefaultSettings() Settings {
	return Settings{
		SourceLang:   langs.DefaultSource(),
		TargetLang:   langs.DefaultTarget(),
		CaptureMode:  "ptt",
		PlaybackMode: "auto",
	}
}

// settingsPath returns the preferences file location
func settingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "carebridge", "settings.yaml"), nil
}

// LoadSettings reads saved preferences, falling back to defaults
func LoadSettings() Settings {
	s := DefaultSettings()

	path, err := settingsPath()
	if err != nil {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings()
	}

	if _, ok := langs.Lookup(s.SourceLang); !ok {
		s.SourceLang = langs.DefaultSource()
	}
	if _, ok := langs.Lookup(s.TargetLang); !ok || langs.IsAuto(s.TargetLang) {
		s.TargetLang = langs.DefaultTarget()
	}
	return s
}

// Save writes the preferences to disk
func (s Settings) Save() error {
	path, err := settingsPath()
	if err != nil {
		return fmt.Errorf("locating settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}
