package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"CandleLedger/internal/model"
)

// DefaultMaxRecords is the retention cap used when none is configured.
const DefaultMaxRecords = 30

// ParseError means the ledger file exists but is not a JSON array of records.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse ledger %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Outcome reports what Append did.
type Outcome int

const (
	OutcomeWritten Outcome = iota
	OutcomeDuplicate
)

func (o Outcome) String() string {
	if o == OutcomeDuplicate {
		return "duplicate"
	}
	return "written"
}

// Store is a bounded, date-unique JSON array of daily records on disk.
// Writes replace the whole file atomically; a sibling .lock file serialises
// overlapping processes.
type Store struct {
	path       string
	maxRecords int
	lock       *flock.Flock
}

// NewStore returns a Store for path keeping at most maxRecords entries.
func NewStore(path string, maxRecords int) *Store {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &Store{
		path:       path,
		maxRecords: maxRecords,
		lock:       flock.New(path + ".lock"),
	}
}

// Path returns the ledger file location.
func (s *Store) Path() string { return s.path }

// MaxRecords returns the retention cap.
func (s *Store) MaxRecords() int { return s.maxRecords }

// Load reads the ledger. A missing file is an empty ledger; anything else
// that is not a JSON array of complete records is a *ParseError.
func (s *Store) Load() ([]model.DailyRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.DailyRecord{}, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}
	return records, nil
}

// storedRecord mirrors model.DailyRecord with every key required.
type storedRecord struct {
	Date   *string  `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

func decodeRecords(data []byte) ([]model.DailyRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw []*storedRecord
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after array")
	}
	if raw == nil {
		// "null" is valid JSON but not an array
		return nil, errors.New("expected a JSON array")
	}

	records := make([]model.DailyRecord, len(raw))
	for i, r := range raw {
		if r == nil || r.Date == nil || *r.Date == "" ||
			r.Open == nil || r.High == nil || r.Low == nil || r.Close == nil || r.Volume == nil {
			return nil, fmt.Errorf("record %d: missing or empty field", i)
		}
		records[i] = model.DailyRecord{
			Date:   *r.Date,
			Open:   *r.Open,
			High:   *r.High,
			Low:    *r.Low,
			Close:  *r.Close,
			Volume: *r.Volume,
		}
	}
	return records, nil
}

// Last returns up to n of the newest records, oldest first.
func (s *Store) Last(n int) ([]model.DailyRecord, error) {
	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Append merges rec into the ledger. A record whose date is already present
// leaves the file untouched and reports OutcomeDuplicate.
func (s *Store) Append(rec model.DailyRecord) (Outcome, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return 0, fmt.Errorf("create ledger dir: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return 0, fmt.Errorf("lock ledger: %w", err)
	}
	defer s.lock.Unlock()

	records, err := s.Load()
	if err != nil {
		return 0, err
	}
	merged, added := Merge(records, rec, s.maxRecords)
	if !added {
		return OutcomeDuplicate, nil
	}
	if err := s.write(merged); err != nil {
		return 0, err
	}
	return OutcomeWritten, nil
}

// write replaces the ledger via a temp file and rename so readers never see
// a partial array.
func (s *Store) write(records []model.DailyRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
