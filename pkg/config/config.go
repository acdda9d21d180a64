package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"zalonotify/pkg/order"
)

const (
	envConfigPath = "ZALONOTIFY_CONFIG"

	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultWebhookPath     = "/zalo/webhook"
	defaultOrderEventsPath = "/orders/events"
	defaultCacheDriver     = CacheDriverMemory
	defaultCachePath       = "data/cache.db"
	defaultDebugLogPath    = "debug.log"
	defaultBotTimeout      = 30
	defaultKeychainService = "zalonotify"
)

// Cache drivers.
const (
	CacheDriverMemory = "memory"
	CacheDriverSQLite = "sqlite"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Bot      BotConfig      `json:"bot"`
	Settings Settings       `json:"settings"`
	Store    StoreConfig    `json:"store"`
	Server   ServerConfig   `json:"server"`
	Cache    CacheConfig    `json:"cache"`
	Dispatch DispatchConfig `json:"dispatch"`
	Debug    DebugConfig    `json:"debug"`
	Secrets  SecretsConfig  `json:"secrets"`
	Logging  LoggingConfig  `json:"logging,omitempty"`

	path string
}

// Settings are the operator-facing notification settings.
type Settings struct {
	BotToken    string `json:"bot_token" env:"ZALO_BOT_TOKEN"`
	ChatID      string `json:"chat_id" env:"ZALO_CHAT_ID"`
	SecretToken string `json:"secret_token" env:"ZALO_SECRET_TOKEN"`
	WebhookURL  string `json:"webhook_url,omitempty" env:"ZALO_WEBHOOK_URL"`
	// MessageTemplate uses {placeholder} tokens; blank selects the default template.
	MessageTemplate string   `json:"message_template"`
	EnabledStatuses []string `json:"enabled_statuses" env:"ZALONOTIFY_ENABLED_STATUSES"`
	CustomFields    []string `json:"custom_fields"`
	EnableDebug     bool     `json:"enable_debug" env:"ZALONOTIFY_DEBUG"`
}

// BotConfig configures the bot API client.
type BotConfig struct {
	APIRoot        string `json:"api_root,omitempty" env:"ZALO_API_ROOT"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// StoreConfig describes the storefront the orders come from.
type StoreConfig struct {
	Timezone     string            `json:"timezone,omitempty" env:"ZALONOTIFY_TIMEZONE"`
	StatusLabels map[string]string `json:"status_labels,omitempty"`
}

// ServerConfig configures HTTP bind settings and routes.
type ServerConfig struct {
	Host            string `json:"host" env:"ZALONOTIFY_HOST"`
	Port            int    `json:"port" env:"ZALONOTIFY_PORT"`
	PublicURL       string `json:"public_url,omitempty" env:"ZALONOTIFY_PUBLIC_URL"`
	WebhookPath     string `json:"webhook_path,omitempty"`
	OrderEventsPath string `json:"order_events_path,omitempty"`
}

// CacheConfig selects the latest-chat-id cache backend.
type CacheConfig struct {
	Driver string `json:"driver,omitempty" env:"ZALONOTIFY_CACHE_DRIVER"`
	Path   string `json:"path,omitempty" env:"ZALONOTIFY_CACHE_PATH"`
}

// DispatchConfig controls recipient fan-out.
type DispatchConfig struct {
	Parallelism int `json:"parallelism,omitempty"`
}

// DebugConfig locates the webhook payload debug log.
type DebugConfig struct {
	LogPath string `json:"log_path,omitempty"`
}

// SecretsConfig enables OS keychain storage for the bot and webhook secrets.
type SecretsConfig struct {
	Keychain bool   `json:"keychain,omitempty"`
	Service  string `json:"service,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// Recipients parses the comma-separated chat id field.
func (s Settings) Recipients() []string {
	return parseCSV(s.ChatID)
}

// StatusEnabled reports whether status is selected for notifications.
// Comparison ignores case and the "wc-" storage prefix.
func (s Settings) StatusEnabled(status string) bool {
	target := order.NormalizeStatus(status)
	if target == "" {
		return false
	}
	return slices.ContainsFunc(s.EnabledStatuses, func(enabled string) bool {
		return order.NormalizeStatus(enabled) == target
	})
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// Location returns the store timezone, falling back to the local zone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Store.Timezone)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load store timezone %q: %w", name, err)
	}
	return loc, nil
}

// BotTimeout returns the per-call bot API timeout.
func (c *Config) BotTimeout() time.Duration {
	return time.Duration(c.Bot.TimeoutSeconds) * time.Second
}

// LoadConfig resolves config.json, unmarshals it, and applies environment overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(configPath)
}

// LoadConfigFile loads the config at path and applies environment overrides.
func LoadConfigFile(path string) (*Config, error) {
	cfg, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func readConfigFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.path = path

	return &cfg, nil
}

// applyEnvOverrides injects env-driven settings declared with env tags on
// top of file config. Unset variables leave file values untouched.
func applyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("apply environment overrides: %w", err)
	}

	cfg.Settings.EnabledStatuses = compact(cfg.Settings.EnabledStatuses)
	cfg.Settings.CustomFields = compact(cfg.Settings.CustomFields)
	return nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Host) == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port <= 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.WebhookPath == "" {
		c.Server.WebhookPath = defaultWebhookPath
	}
	if c.Server.OrderEventsPath == "" {
		c.Server.OrderEventsPath = defaultOrderEventsPath
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = defaultCacheDriver
	}
	if c.Cache.Path == "" {
		c.Cache.Path = defaultCachePath
	}
	c.Cache.Path = c.resolve(c.Cache.Path)
	if c.Debug.LogPath == "" {
		c.Debug.LogPath = defaultDebugLogPath
	}
	c.Debug.LogPath = c.resolve(c.Debug.LogPath)
	if c.Dispatch.Parallelism < 1 {
		c.Dispatch.Parallelism = 1
	}
	if c.Bot.TimeoutSeconds <= 0 {
		c.Bot.TimeoutSeconds = defaultBotTimeout
	}
	if c.Secrets.Service == "" {
		c.Secrets.Service = defaultKeychainService
	}
}

// resolve makes relative paths relative to the config file directory.
func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.path == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.path), path)
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	return compact(strings.Split(input, ","))
}

func compact(values []string) []string {
	clean := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is ZALONOTIFY_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
