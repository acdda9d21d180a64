package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"zalonotify/pkg/cache"
	"zalonotify/pkg/config"
	"zalonotify/pkg/dispatch"
	"zalonotify/pkg/logger"
	"zalonotify/pkg/metrics"
	"zalonotify/pkg/notify"
	"zalonotify/pkg/secret"
	"zalonotify/pkg/template"
	"zalonotify/pkg/zalo"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg      *config.Config
	store    *config.Store
	keychain *secret.Keychain
	log      *slog.Logger
	metrics  *metrics.Metrics
	bot      *zalo.Client
}

func loadConfig() (*config.Config, error) {
	if path := strings.TrimSpace(configPath); path != "" {
		return config.LoadConfigFile(path)
	}
	return config.LoadConfig()
}

// newApp loads config, installs the process logger and builds the bot client.
// withMetrics is only set by long-running commands that expose /metrics.
func newApp(component string, withMetrics bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	a := &app{
		cfg: cfg,
		log: slog.Default().With("component", component),
	}

	var secrets config.SecretSource
	if cfg.Secrets.Keychain {
		keychain := secret.NewKeychain(cfg.Secrets.Service)
		a.keychain = &keychain
		secrets = keychain
	}
	a.store = config.NewStore(cfg, secrets)

	if withMetrics {
		a.metrics = metrics.New()
	}

	opts := []zalo.Option{
		zalo.WithAPIRoot(cfg.Bot.APIRoot),
		zalo.WithTimeout(cfg.BotTimeout()),
		zalo.WithLogger(appLogger),
	}
	if a.metrics != nil {
		opts = append(opts, zalo.WithObserver(a.metrics))
	}
	a.bot = zalo.NewClient(opts...)

	return a, nil
}

// openCache opens the configured latest-chat-id cache.
func openCache(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Driver {
	case config.CacheDriverMemory:
		return cache.NewMemory(), nil
	case config.CacheDriverSQLite:
		return cache.OpenSQLite(cfg.Cache.Path)
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Cache.Driver)
	}
}

func (a *app) newResolver() (*template.Resolver, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	return template.NewResolver(
		template.WithLocation(loc),
		template.WithStatusLabels(a.cfg.Store.StatusLabels),
	), nil
}

func (a *app) newNotifier() (*notify.Notifier, error) {
	resolver, err := a.newResolver()
	if err != nil {
		return nil, err
	}

	opts := []dispatch.Option{
		dispatch.WithParallelism(a.cfg.Dispatch.Parallelism),
		dispatch.WithLogger(slog.Default()),
	}
	if a.metrics != nil {
		opts = append(opts, dispatch.WithObserver(a.metrics))
	}

	return notify.New(dispatch.New(a.bot, opts...), resolver, slog.Default()), nil
}

// saveSecret stores a credential in the keychain when enabled, otherwise in
// the config file through apply. A keychain save clears the file copy, which
// would otherwise shadow it.
func (a *app) saveSecret(key, value string, apply func(*config.Settings, string)) error {
	if a.keychain != nil {
		if err := a.keychain.Set(key, value); err != nil {
			return err
		}
		value = ""
	}
	return a.store.Update(func(settings *config.Settings) {
		apply(settings, value)
	})
}
