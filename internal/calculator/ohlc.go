package calculator

import (
	"errors"
	"sort"
	"time"

	"CandleLedger/internal/calendar"
	"CandleLedger/internal/model"
)

var (
	// ErrNoData means no hourly sample falls on the target day.
	ErrNoData = errors.New("no price data for target day")
	// ErrCloseUnavailable means the next day's first sample has not been
	// published yet. Running again later is expected to succeed.
	ErrCloseUnavailable = errors.New("close price unavailable: next day has no samples yet")
)

// OHLC holds the four summary prices of a day, rounded to PricePlaces.
type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// IsTransient reports whether err is expected to clear on a later run.
func IsTransient(err error) bool {
	return errors.Is(err, ErrCloseUnavailable)
}

// DeriveOHLC bins an hourly series by UTC calendar date and builds the candle
// for day. The close is the first sample of next. Input order is not trusted.
func DeriveOHLC(points []model.HourlyPricePoint, day, next time.Time) (OHLC, error) {
	sorted := make([]model.HourlyPricePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	var (
		dayPrices []float64
		closeSet  bool
		closeP    float64
	)
	for _, p := range sorted {
		switch {
		case calendar.SameDay(p.Time, day):
			dayPrices = append(dayPrices, p.Price)
		case !closeSet && calendar.SameDay(p.Time, next):
			closeP = p.Price
			closeSet = true
		}
	}

	if len(dayPrices) == 0 {
		return OHLC{}, ErrNoData
	}
	if !closeSet {
		return OHLC{}, ErrCloseUnavailable
	}

	high, low := priceRange(dayPrices)
	return OHLC{
		Open:  RoundPrice(dayPrices[0]),
		High:  RoundPrice(high),
		Low:   RoundPrice(low),
		Close: RoundPrice(closeP),
	}, nil
}

// BuildRecord combines a candle and a raw volume figure into a ledger entry.
func BuildRecord(label string, c OHLC, rawVolume float64) model.DailyRecord {
	return model.DailyRecord{
		Date:   label,
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: VolumeMillions(rawVolume),
	}
}
