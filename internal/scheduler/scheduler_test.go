package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleLedger/internal/collector"
	"CandleLedger/internal/ledger"
	"CandleLedger/internal/model"
	"CandleLedger/internal/updater"
)

func newTestScheduler(t *testing.T) (*Scheduler, *collector.MockFetcher) {
	t.Helper()
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	fetcher := &collector.MockFetcher{
		Points: collector.GenerateHourlySeries(day, 30, func(i int) float64 { return 1 + float64(i)/100 }),
		Volume: 5_000_000,
	}
	store := ledger.NewStore(filepath.Join(t.TempDir(), "daily.json"), 30)
	u := updater.New(collector.NewCollector(fetcher, "nillion", "usd"), store)
	u.Now = func() time.Time { return day.AddDate(0, 0, 1).Add(90 * time.Minute) }
	return NewScheduler(context.Background(), u, store), fetcher
}

func TestRegister(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.Register("0 30 1 * * *"))
	assert.Len(t, s.Cron.Entries(), 1)

	assert.Error(t, s.Register("not a cron"))
}

func TestRunNow(t *testing.T) {
	s, fetcher := newTestScheduler(t)

	res, ok := s.RunNow()
	require.True(t, ok)
	assert.Equal(t, model.OutcomeWritten, res.Outcome)
	assert.Equal(t, "Mar 07", res.Record.Date)
	assert.Equal(t, 1, fetcher.PriceCalls)

	res, ok = s.RunNow()
	require.True(t, ok)
	assert.Equal(t, model.OutcomeDuplicate, res.Outcome)
}

func TestRunNow_SkipsWhileBusy(t *testing.T) {
	s, fetcher := newTestScheduler(t)
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.RunNow()
	assert.False(t, ok)
	assert.Nil(t, res)
	assert.Zero(t, fetcher.PriceCalls)
	assert.Equal(t, "An update is already running", s.HandleCommand("/run"))
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t)

	assert.Equal(t, "Ledger is empty", s.HandleCommand("/ledger"))
	assert.Empty(t, s.HandleCommand("/run"))

	out := s.HandleCommand("/ledger")
	assert.Contains(t, out, "Mar 07")
	assert.Contains(t, out, "<pre>")

	assert.Contains(t, s.HandleCommand("hello"), "Available commands")
}

func TestStartStop(t *testing.T) {
	s, _ := newTestScheduler(t)
	require.NoError(t, s.Register("0 30 1 * * *"))
	s.Start()
	s.Stop()
}
