package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

// SQLiteRecorder persists run history and written records to SQLite.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			coin_id     TEXT NOT NULL,
			target_day  TEXT NOT NULL,
			label       TEXT,
			outcome     TEXT NOT NULL,
			error       TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS daily_records (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			coin_id    TEXT NOT NULL,
			day        TEXT NOT NULL,
			label      TEXT NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL,
			volume     REAL,
			run_id     TEXT,
			updated_at INTEGER NOT NULL,
			UNIQUE(coin_id, day)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := evt.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO runs
		(run_id, timestamp, coin_id, target_day, label, outcome, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		evt.RunID, started.Unix(), evt.CoinID, evt.TargetDay.Format(dayLayout),
		evt.Label, string(evt.Outcome), evt.Error, evt.Duration.Milliseconds(),
	)
	return err
}

// RecordDaily upserts a record keyed by coin and calendar day.
func (r *SQLiteRecorder) RecordDaily(snap *DailySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := snap.Record
	_, err := r.db.Exec(`INSERT INTO daily_records
		(coin_id, day, label, open, high, low, close, volume, run_id, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(coin_id, day) DO UPDATE SET
			label=excluded.label, open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume, run_id=excluded.run_id,
			updated_at=excluded.updated_at`,
		snap.CoinID, snap.TargetDay.Format(dayLayout), rec.Date,
		rec.Open, rec.High, rec.Low, rec.Close, rec.Volume,
		snap.RunID, time.Now().Unix(),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
