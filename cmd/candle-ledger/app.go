package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"CandleLedger/internal/collector"
	"CandleLedger/internal/config"
	"CandleLedger/internal/ledger"
	"CandleLedger/internal/logging"
	"CandleLedger/internal/metrics"
	"CandleLedger/internal/notifier"
	"CandleLedger/internal/recorder"
	"CandleLedger/internal/updater"
)

// app holds the wired components shared by all commands.
type app struct {
	cfg      *config.Config
	store    *ledger.Store
	metrics  *metrics.Registry
	telegram *notifier.TelegramNotifier
	recorder recorder.Recorder
	updater  *updater.Updater
	logs     io.Closer
}

func loadConfig(flag string) (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath(flag))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func newApp(flag string) (*app, error) {
	cfg, err := loadConfig(flag)
	if err != nil {
		return nil, err
	}

	logs, err := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}

	a := &app{
		cfg:     cfg,
		store:   ledger.NewStore(cfg.Ledger.Path, cfg.Ledger.MaxRecords),
		metrics: metrics.NewRegistry(),
		logs:    logs,
	}

	fetcher := collector.NewCoinGeckoFetcher(collector.CoinGeckoOptions{
		BaseURL:      cfg.Provider.BaseURL,
		CoinID:       cfg.Asset.CoinID,
		VsCurrency:   cfg.Asset.VsCurrency,
		Timeout:      cfg.Provider.Timeout,
		Proxy:        cfg.Proxy,
		CushionDelay: cfg.Provider.CushionDelay,
		Retry: collector.RetryPolicy{
			MaxAttempts:     cfg.Provider.Retry.MaxAttempts,
			InitialInterval: cfg.Provider.Retry.InitialInterval,
			MaxInterval:     cfg.Provider.Retry.MaxInterval,
		},
		Observer: a.metrics,
	})
	log.Info().Str("source", fetcher.Name()).Str("coin", cfg.Asset.CoinID).Str("ledger", cfg.Ledger.Path).Msg("data source ready")

	u := updater.New(collector.NewCollector(fetcher, cfg.Asset.CoinID, cfg.Asset.VsCurrency), a.store)
	u.Observer = a.metrics

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}
	u.Recorder = a.recorder

	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		u.Notifier = a.telegram
	}

	a.updater = u
	return a, nil
}

// Close releases the recorder and flushes the log file.
func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Error().Err(err).Msg("close recorder")
	}
	if err := a.logs.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
	}
}
