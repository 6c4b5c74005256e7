// Package updater runs the daily pipeline: resolve the target day, fetch
// provider data, derive the candle and merge it into the ledger.
package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CandleLedger/internal/calculator"
	"CandleLedger/internal/calendar"
	"CandleLedger/internal/collector"
	"CandleLedger/internal/ledger"
	"CandleLedger/internal/model"
	"CandleLedger/internal/notifier"
	"CandleLedger/internal/recorder"
)

// RunObserver receives finished runs, e.g. for metrics.
type RunObserver interface {
	ObserveRun(res *model.RunResult)
	SetLedgerSize(n int)
}

// Updater wires the pipeline stages together.
type Updater struct {
	Collector *collector.Collector
	Store     *ledger.Store
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier
	Observer  RunObserver
	Now       func() time.Time
}

// New creates an Updater with no-op recorder and notifier.
func New(col *collector.Collector, store *ledger.Store) *Updater {
	return &Updater{
		Collector: col,
		Store:     store,
		Recorder:  recorder.NewNoopRecorder(),
		Notifier:  notifier.NoopNotifier{},
		Now:       time.Now,
	}
}

// Run executes the pipeline once for yesterday (UTC). A duplicate date is a
// successful no-op. Any error aborts before the ledger is touched.
func (u *Updater) Run(ctx context.Context) (*model.RunResult, error) {
	return u.RunFor(ctx, calendar.Resolve(u.Now()))
}

// RunFor executes the pipeline for an explicit target day.
func (u *Updater) RunFor(ctx context.Context, target calendar.Target) (*model.RunResult, error) {
	res := &model.RunResult{
		RunID:     uuid.NewString(),
		CoinID:    u.Collector.CoinID,
		TargetDay: target.Day,
		Label:     target.Label,
		StartedAt: u.Now(),
	}
	logger := log.With().Str("run_id", res.RunID).Str("coin", res.CoinID).Str("date", target.Label).Logger()
	logger.Info().Msg("running daily updater")

	rec, outcome, err := u.run(ctx, logger, target)
	res.FinishedAt = u.Now()
	if err != nil {
		res.Outcome = model.OutcomeFailed
		res.Err = err
		if calculator.IsTransient(err) {
			logger.Warn().Err(err).Msg("close not published yet, retry later")
		} else {
			logger.Error().Err(err).Msg("update failed")
		}
	} else {
		res.Record = &rec
		res.Outcome = outcome
	}

	u.finish(ctx, logger, res)
	return res, err
}

func (u *Updater) run(ctx context.Context, logger zerolog.Logger, target calendar.Target) (model.DailyRecord, model.Outcome, error) {
	series, err := u.Collector.Collect(ctx, target)
	if err != nil {
		return model.DailyRecord{}, "", err
	}

	candle, err := calculator.DeriveOHLC(series.Points, target.Day, target.Next)
	if err != nil {
		return model.DailyRecord{}, "", fmt.Errorf("derive ohlc for %s: %w", target.Label, err)
	}

	rec := calculator.BuildRecord(target.Label, candle, series.Volume)
	if err := calculator.Validate(rec); err != nil {
		return model.DailyRecord{}, "", err
	}
	for _, a := range calculator.Anomalies(rec) {
		logger.Warn().Str("anomaly", a).Msg("candle flagged")
	}

	outcome, err := u.Store.Append(rec)
	if err != nil {
		return model.DailyRecord{}, "", fmt.Errorf("update ledger: %w", err)
	}
	if outcome == ledger.OutcomeDuplicate {
		logger.Info().Msg("entry for this date already exists, skipping")
		return rec, model.OutcomeDuplicate, nil
	}
	logger.Info().
		Float64("open", rec.Open).Float64("high", rec.High).
		Float64("low", rec.Low).Float64("close", rec.Close).
		Float64("volume_m", rec.Volume).
		Str("path", u.Store.Path()).
		Msg("record added")
	return rec, model.OutcomeWritten, nil
}

// finish records, observes and announces a run. Failures here are logged
// and never change the run's outcome.
func (u *Updater) finish(ctx context.Context, logger zerolog.Logger, res *model.RunResult) {
	evt := &recorder.RunEvent{
		RunID:     res.RunID,
		CoinID:    res.CoinID,
		TargetDay: res.TargetDay,
		Label:     res.Label,
		Outcome:   res.Outcome,
		StartedAt: res.StartedAt,
		Duration:  res.Duration(),
	}
	if res.Err != nil {
		evt.Error = res.Err.Error()
	}
	if err := u.Recorder.RecordRun(evt); err != nil {
		logger.Error().Err(err).Msg("record run")
	}
	if res.Outcome == model.OutcomeWritten {
		if err := u.Recorder.RecordDaily(&recorder.DailySnapshot{
			RunID: res.RunID, CoinID: res.CoinID, TargetDay: res.TargetDay, Record: res.Record,
		}); err != nil {
			logger.Error().Err(err).Msg("record daily snapshot")
		}
	}

	if u.Observer != nil {
		u.Observer.ObserveRun(res)
		if records, err := u.Store.Load(); err == nil {
			u.Observer.SetLedgerSize(len(records))
		}
	}

	if err := u.Notifier.SendWithRetry(ctx, notifier.FormatRunReport(res), 3); err != nil {
		logger.Error().Err(err).Msg("send notification")
	}
}
