package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Secret names looked up in a SecretSource.
const (
	SecretBotToken    = "bot_token"
	SecretSecretToken = "secret_token"
)

// ErrSecretNotFound is returned by a SecretSource that holds no value for a key.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource supplies credentials kept outside the config file.
type SecretSource interface {
	Get(key string) (string, error)
}

// Store owns the settings section of a config file. Reads return a snapshot
// with environment overrides and external secrets applied; updates persist
// only what the file itself held plus the change.
type Store struct {
	mu      sync.RWMutex
	cfg     *Config
	secrets SecretSource
}

// NewStore wraps a loaded config. secrets may be nil.
func NewStore(cfg *Config, secrets SecretSource) *Store {
	return &Store{cfg: cfg, secrets: secrets}
}

// Config returns the effective configuration.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Settings returns a snapshot of the effective settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	settings := s.cfg.Settings
	s.mu.RUnlock()

	settings.EnabledStatuses = append([]string(nil), settings.EnabledStatuses...)
	settings.CustomFields = append([]string(nil), settings.CustomFields...)

	if s.secrets == nil {
		return settings
	}
	if settings.BotToken == "" {
		settings.BotToken = s.lookup(SecretBotToken)
	}
	if settings.SecretToken == "" {
		settings.SecretToken = s.lookup(SecretSecretToken)
	}
	return settings
}

func (s *Store) lookup(key string) string {
	value, err := s.secrets.Get(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

// Update applies fn to the settings stored in the config file, writes the
// file atomically and reloads the effective config.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.cfg.path
	if path == "" {
		return errors.New("config was not loaded from a file")
	}

	fileCfg, err := readRawConfig(path)
	if err != nil {
		return err
	}

	var settings Settings
	if raw, ok := fileCfg["settings"]; ok {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return fmt.Errorf("parse settings: %w", err)
		}
	}
	fn(&settings)

	encoded, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	fileCfg["settings"] = encoded

	if err := writeFileAtomic(path, fileCfg); err != nil {
		return err
	}

	reloaded, err := LoadConfigFile(path)
	if err != nil {
		return err
	}
	s.cfg = reloaded
	return nil
}

// readRawConfig keeps unknown top-level sections intact across updates.
func readRawConfig(path string) (map[string]json.RawMessage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return raw, nil
}

func writeFileAtomic(path string, value any) error {
	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}
	content = append(content, '\n')

	info, err := os.Stat(path)
	mode := os.FileMode(0o600)
	if err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}
