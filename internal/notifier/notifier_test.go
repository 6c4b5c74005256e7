package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleLedger/internal/model"
)

func TestSendWithRetry(t *testing.T) {
	var hits int32
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottok/sendMessage", r.URL.Path)
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTelegramNotifier(srv.URL, "tok", "42", "")
	n.Backoff = time.Millisecond
	require.NoError(t, n.SendWithRetry(context.Background(), "hello", 3))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := newTelegramNotifier(srv.URL, "tok", "42", "")
	n.Backoff = time.Millisecond
	err := n.SendWithRetry(context.Background(), "hello", 2)
	assert.Error(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestStartPolling_DispatchesCommands(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
		served  int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottok/getUpdates":
			if atomic.AddInt32(&served, 1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":10,"message":{"text":" /ledger ","chat":{"id":42}}},
					{"update_id":11,"message":{"text":"/run","chat":{"id":7}}}
				]}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/bottok/sendMessage":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			replies = append(replies, body["text"])
			mu.Unlock()
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := newTelegramNotifier(srv.URL, "tok", "42", "")
	ctx, cancel := context.WithCancel(context.Background())
	var commands []string
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(cmd string) string {
			commands = append(commands, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(replies) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []string{"/ledger"}, commands)
	assert.Equal(t, []string{"reply to /ledger"}, replies)
}

func TestStartPolling_BacksOffOnAPIError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	n := newTelegramNotifier(srv.URL, "tok", "42", "")
	n.PollRetry = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	n.StartPolling(ctx, func(string) string {
		t.Fatal("handler must not be called")
		return ""
	})
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestPoll_RejectsNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Conflict: terminated by other getUpdates request"}`))
	}))
	defer srv.Close()

	n := newTelegramNotifier(srv.URL, "tok", "42", "")
	_, err := n.poll(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Conflict")
}

func TestFormatRunReport(t *testing.T) {
	start := time.Date(2025, 3, 8, 1, 30, 0, 0, time.UTC)
	written := FormatRunReport(&model.RunResult{
		RunID: "abc", CoinID: "nillion", Label: "Mar 07", Outcome: model.OutcomeWritten,
		Record:    &model.DailyRecord{Date: "Mar 07", Open: 0.5, High: 0.6, Low: 0.4, Close: 0.55, Volume: 12.35},
		StartedAt: start, FinishedAt: start.Add(4 * time.Second),
	})
	assert.Contains(t, written, "Mar 07 added")
	assert.Contains(t, written, "Vol: 12.35M")
	assert.Contains(t, written, "run abc (4s)")

	dup := FormatRunReport(&model.RunResult{CoinID: "nillion", Label: "Mar 07", Outcome: model.OutcomeDuplicate})
	assert.Contains(t, dup, "skipped")

	failed := FormatRunReport(&model.RunResult{CoinID: "nillion", Label: "Mar 07", Outcome: model.OutcomeFailed, Err: errors.New("status 500 <html>")})
	assert.Contains(t, failed, "update failed")
	assert.Contains(t, failed, "&lt;html&gt;")
}

func TestFormatLedger(t *testing.T) {
	assert.Equal(t, "Ledger is empty", FormatLedger(nil))
	out := FormatLedger([]model.DailyRecord{{Date: "Mar 07", Open: 5, High: 8, Low: 3, Close: 7, Volume: 12.35}})
	assert.Contains(t, out, "Mar 07")
	assert.Contains(t, out, "8.000000")
	assert.Contains(t, out, "12.35")
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	assert.NoError(t, n.SendWithRetry(context.Background(), "x", 3))
}
