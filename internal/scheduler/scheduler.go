package scheduler

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"CandleLedger/internal/ledger"
	"CandleLedger/internal/model"
	"CandleLedger/internal/notifier"
	"CandleLedger/internal/updater"
)

// ledgerPreview is how many records /ledger shows.
const ledgerPreview = 7

// Scheduler runs the daily updater on a cron schedule and answers chat
// commands.
type Scheduler struct {
	Cron    *cron.Cron
	Updater *updater.Updater
	Store   *ledger.Store
	Ctx     context.Context

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler. Schedules are evaluated in UTC.
func NewScheduler(ctx context.Context, u *updater.Updater, store *ledger.Store) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
		),
		Updater: u,
		Store:   store,
		Ctx:     ctx,
	}
}

// Register adds the daily update job.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, func() { s.dailyTask() }); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the daily task immediately (manual trigger / RUN_ON_START).
// It reports false when another run is still in progress.
func (s *Scheduler) RunNow() (*model.RunResult, bool) {
	return s.dailyTask()
}

func (s *Scheduler) dailyTask() (*model.RunResult, bool) {
	if !s.mu.TryLock() {
		log.Warn().Msg("daily update already running, skipping")
		return nil, false
	}
	defer s.mu.Unlock()

	log.Info().Msg("running daily task")
	// errors are logged and reported by the updater itself
	res, _ := s.Updater.Run(s.Ctx)
	return res, true
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		if _, ok := s.dailyTask(); !ok {
			return "An update is already running"
		}
		// the updater sends its own report
		return ""
	case "/ledger":
		records, err := s.Store.Last(ledgerPreview)
		if err != nil {
			return "Cannot read ledger: " + html.EscapeString(err.Error())
		}
		return notifier.FormatLedger(records)
	default:
		return "Available commands:\n• /run - update the ledger now\n• /ledger - show the latest records"
	}
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
