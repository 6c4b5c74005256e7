package recorder

import (
	"time"

	"CandleLedger/internal/model"
)

// RunEvent holds the outcome of one pipeline run.
type RunEvent struct {
	RunID     string
	CoinID    string
	TargetDay time.Time
	Label     string
	Outcome   model.Outcome
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// DailySnapshot is a written ledger record plus the context it came from.
type DailySnapshot struct {
	RunID     string
	CoinID    string
	TargetDay time.Time
	Record    *model.DailyRecord
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordDaily(snap *DailySnapshot) error
	Close() error
}
