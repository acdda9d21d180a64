package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zalonotify/pkg/server"
	"zalonotify/pkg/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook and order event server",
	Long:  "Serves the Zalo webhook, the order event intake, health and readiness probes and Prometheus metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		a, err := newApp("cmd.serve", true)
		if err != nil {
			return err
		}

		store, err := openCache(a.cfg)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				a.log.Warn("Failed to close cache", "error", err)
			}
		}()

		notifier, err := a.newNotifier()
		if err != nil {
			return err
		}

		ingestor := webhook.NewIngestor(
			a.webhookSettings,
			store,
			webhook.WithDebugSink(webhook.NewFileSink(a.cfg.Debug.LogPath)),
			webhook.WithLogger(slog.Default()),
			webhook.WithObserver(a.metrics),
		)

		svc, err := server.NewService(a.store, server.Deps{
			Bot:      a.bot,
			Notifier: notifier,
			Webhook:  ingestor,
			Metrics:  a.metrics,
		}, slog.Default())
		if err != nil {
			return fmt.Errorf("initialize server: %w", err)
		}

		runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a.log.Info("Relay started", "cache", a.cfg.Cache.Driver, "parallelism", a.cfg.Dispatch.Parallelism, "recipients", len(a.store.Settings().Recipients()))
		if err := svc.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server runtime failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// webhookSettings projects the current settings onto what the ingestor reads.
func (a *app) webhookSettings() webhook.Settings {
	settings := a.store.Settings()
	return webhook.Settings{
		SecretToken: settings.SecretToken,
		EnableDebug: settings.EnableDebug,
	}
}
