package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"git.skobk.in/skobkin/group-formation-bot/bot"
	"git.skobk.in/skobkin/group-formation-bot/config"
	"git.skobk.in/skobkin/group-formation-bot/lifecycle"
	"git.skobk.in/skobkin/group-formation-bot/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		slog.Debug("main: Initializing storage", "db_path", cfg.DatabasePath)
		store, err := storage.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("main: Failed to close storage", "error", err)
			}
		}()

		b, err := bot.New(cfg, store)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.MetricsAddr != "" {
			go serveMetrics(ctx, cfg.MetricsAddr)
		}

		slog.Info("main: Starting bot...")
		return b.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", lifecycle.MetricsHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("main: Serving metrics", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("main: Metrics server failed", "error", err)
	}
}
