package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CandleLedger/internal/model"
)

// Fetcher defines the interface for fetching market data for one asset.
type Fetcher interface {
	// FetchHourlyPrices returns the hourly series covering today and yesterday.
	FetchHourlyPrices(ctx context.Context) ([]model.HourlyPricePoint, error)
	// FetchVolume returns the total traded volume, in quote currency units,
	// for the day given as DD-MM-YYYY.
	FetchVolume(ctx context.Context, dateQuery string) (float64, error)
	Name() string
}

// ErrDataMissing means the provider answered but omitted an expected field.
var ErrDataMissing = errors.New("provider response missing data")

// FetchError is a transport failure or a non-success provider response.
type FetchError struct {
	Endpoint   string
	StatusCode int // 0 for transport failures
	Body       string
	// RetryAfter is the server's wait hint on 429, capped by the retry policy.
	RetryAfter time.Duration
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("fetch %s: status %d, body: %s", e.Endpoint, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d", e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Observer receives the latency and result of every provider call.
type Observer interface {
	ObserveFetch(endpoint string, took time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, time.Duration, error) {}
