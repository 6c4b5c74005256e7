package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"CandleLedger/internal/calendar"
	"CandleLedger/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Points    []model.HourlyPricePoint
	Volume    float64
	PriceErr  error
	VolumeErr error

	PriceCalls  int
	VolumeCalls int
	LastQuery   string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHourlyPrices(_ context.Context) ([]model.HourlyPricePoint, error) {
	m.PriceCalls++
	if m.PriceErr != nil {
		return nil, m.PriceErr
	}
	return m.Points, nil
}

func (m *MockFetcher) FetchVolume(_ context.Context, dateQuery string) (float64, error) {
	m.VolumeCalls++
	m.LastQuery = dateQuery
	if m.VolumeErr != nil {
		return 0, m.VolumeErr
	}
	return m.Volume, nil
}

// GenerateHourlySeries builds an hourly series of the given length starting
// at UTC midnight of day, priced by fn(hourIndex).
func GenerateHourlySeries(day time.Time, hours int, fn func(i int) float64) []model.HourlyPricePoint {
	start := calendar.TruncateDay(day)
	points := make([]model.HourlyPricePoint, hours)
	for i := 0; i < hours; i++ {
		points[i] = model.HourlyPricePoint{Time: start.Add(time.Duration(i) * time.Hour), Price: fn(i)}
	}
	return points
}

// Collector gathers the raw provider data for one target day.
type Collector struct {
	Fetcher    Fetcher
	CoinID     string
	VsCurrency string
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, coinID, vsCurrency string) *Collector {
	return &Collector{Fetcher: fetcher, CoinID: coinID, VsCurrency: vsCurrency}
}

// Collect fetches the hourly price series, then the volume for target.
// Any failure aborts; nothing is returned partially.
func (c *Collector) Collect(ctx context.Context, target calendar.Target) (*model.PriceSeries, error) {
	points, err := c.Fetcher.FetchHourlyPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch hourly prices: %w", err)
	}
	log.Info().Str("source", c.Fetcher.Name()).Int("samples", len(points)).Msg("hourly prices fetched")

	volume, err := c.Fetcher.FetchVolume(ctx, target.Query)
	if err != nil {
		return nil, fmt.Errorf("fetch volume for %s: %w", target.Query, err)
	}
	log.Info().Str("source", c.Fetcher.Name()).Float64("volume", volume).Str("date", target.Query).Msg("volume fetched")

	return &model.PriceSeries{
		CoinID:     c.CoinID,
		VsCurrency: c.VsCurrency,
		Points:     points,
		Volume:     volume,
		FetchedAt:  time.Now().UTC(),
	}, nil
}
