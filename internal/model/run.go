package model

import "time"

// Outcome describes how a pipeline run ended.
type Outcome string

const (
	OutcomeWritten   Outcome = "WRITTEN"
	OutcomeDuplicate Outcome = "DUPLICATE"
	OutcomeFailed    Outcome = "FAILED"
)

// RunResult summarises one pipeline run.
type RunResult struct {
	RunID      string
	CoinID     string
	TargetDay  time.Time
	Label      string
	Record     *DailyRecord
	Outcome    Outcome
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
