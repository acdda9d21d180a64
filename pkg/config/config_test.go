package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "bot": {"api_root": "https://bot-api.example"},
  "settings": {
    "bot_token": "file-token",
    "chat_id": " 111, 222 ,,333 ",
    "secret_token": "file-secret",
    "message_template": "🔔 #{order_number}",
    "enabled_statuses": ["wc-processing", "completed", " "],
    "custom_fields": ["vat", ""],
    "enable_debug": true
  },
  "store": {"timezone": "Asia/Ho_Chi_Minh", "status_labels": {"processing": "Đang xử lý"}},
  "server": {"host": "127.0.0.1", "port": 9090},
  "cache": {"driver": "sqlite"},
  "logging": {"format": "json", "level": "debug", "add_source": true},
  "extra": {"kept": true}
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv(envConfigPath, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Logging.Format != "json" {
		t.Fatalf("logging.format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Logging.AddSource {
		t.Fatal("logging.add_source = false, want true")
	}

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, []string{"111", "222", "333"}, cfg.Settings.Recipients())
	assert.Equal(t, []string{"wc-processing", "completed"}, cfg.Settings.EnabledStatuses)
	assert.Equal(t, []string{"vat"}, cfg.Settings.CustomFields)
	assert.Equal(t, "https://bot-api.example", cfg.Bot.APIRoot)
	assert.Equal(t, 30*time.Second, cfg.BotTimeout())
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/zalo/webhook", cfg.Server.WebhookPath)
	assert.Equal(t, "/orders/events", cfg.Server.OrderEventsPath)
	assert.Equal(t, CacheDriverMemory, cfg.Cache.Driver)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data", "cache.db"), cfg.Cache.Path)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "debug.log"), cfg.Debug.LogPath)
	assert.Equal(t, 1, cfg.Dispatch.Parallelism)
	assert.Equal(t, "zalonotify", cfg.Secrets.Service)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("ZALO_BOT_TOKEN", "env-token")
	t.Setenv("ZALO_CHAT_ID", "9,8")
	t.Setenv("ZALONOTIFY_PORT", "7070")
	t.Setenv("ZALONOTIFY_ENABLED_STATUSES", "on-hold, cancelled")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Settings.BotToken)
	assert.Equal(t, []string{"9", "8"}, cfg.Settings.Recipients())
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"on-hold", "cancelled"}, cfg.Settings.EnabledStatuses)
	assert.Equal(t, "file-secret", cfg.Settings.SecretToken)
}

func TestEnvOverrideInvalidValue(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("ZALONOTIFY_PORT", "not-a-port")

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Timezone: "Asia/Ho_Chi_Minh"}}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())

	cfg.Store.Timezone = "Mars/Olympus"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestStatusEnabled(t *testing.T) {
	settings := Settings{EnabledStatuses: []string{"wc-processing", "Completed"}}

	assert.True(t, settings.StatusEnabled("processing"))
	assert.True(t, settings.StatusEnabled("wc-completed"))
	assert.False(t, settings.StatusEnabled("on-hold"))
	assert.False(t, settings.StatusEnabled(""))
	assert.False(t, Settings{}.StatusEnabled("processing"))
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseCSV(" a ,, b ,"))
	assert.Empty(t, parseCSV(""))
}

type mapSecrets map[string]string

func (m mapSecrets) Get(key string) (string, error) {
	value, ok := m[key]
	if !ok {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func TestStoreSettingsUsesSecretSource(t *testing.T) {
	path := writeConfig(t, `{"settings": {"chat_id": "1"}}`)
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	store := NewStore(cfg, mapSecrets{SecretBotToken: " kc-token ", SecretSecretToken: "kc-secret"})
	settings := store.Settings()
	assert.Equal(t, "kc-token", settings.BotToken)
	assert.Equal(t, "kc-secret", settings.SecretToken)

	plain := NewStore(cfg, mapSecrets{})
	assert.Empty(t, plain.Settings().BotToken)
}

func TestStoreSettingsFileValueWinsOverSecretSource(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	store := NewStore(cfg, mapSecrets{SecretBotToken: "kc-token"})
	assert.Equal(t, "file-token", store.Settings().BotToken)
}

func TestStoreUpdatePersistsWithoutEnvOverrides(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("ZALO_BOT_TOKEN", "env-token")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	store := NewStore(cfg, nil)

	err = store.Update(func(s *Settings) {
		s.SecretToken = "rotated"
		s.ChatID = "444"
	})
	require.NoError(t, err)

	assert.Equal(t, "rotated", store.Settings().SecretToken)
	assert.Equal(t, "env-token", store.Settings().BotToken)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var onDisk struct {
		Settings Settings        `json:"settings"`
		Extra    json.RawMessage `json:"extra"`
	}
	require.NoError(t, json.Unmarshal(content, &onDisk))
	assert.Equal(t, "rotated", onDisk.Settings.SecretToken)
	assert.Equal(t, "444", onDisk.Settings.ChatID)
	assert.Equal(t, "file-token", onDisk.Settings.BotToken)
	assert.JSONEq(t, `{"kept": true}`, string(onDisk.Extra))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreUpdateRequiresFile(t *testing.T) {
	store := NewStore(&Config{}, nil)
	err := store.Update(func(*Settings) {})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrSecretNotFound))
}
