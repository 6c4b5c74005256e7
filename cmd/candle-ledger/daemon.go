package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"CandleLedger/internal/scheduler"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the updater on a cron schedule",
	Long: `daemon keeps running and updates the ledger on schedule.daily_cron (UTC).
When Telegram is configured it also answers /run and /ledger. Set
RUN_ON_START=true to update once immediately, and metrics.addr to expose
Prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, a.updater, a.store)
	if err := sched.Register(a.cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if a.telegram != nil {
		go a.telegram.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	serverErr := make(chan error, 1)
	var server *http.Server
	if addr := a.cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		server = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("metrics", fmt.Sprintf("http://%s/metrics", addr)).Msg("metrics endpoint available")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing daily task now")
		go sched.RunNow()
	}

	log.Info().Str("cron", a.cfg.Schedule.DailyCron).Msg("candle-ledger daemon is running, press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping")
	case err := <-serverErr:
		return fmt.Errorf("metrics server: %w", err)
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown")
		}
	}
	return nil
}
