package calculator

import (
	"errors"
	"fmt"
	"math"

	"CandleLedger/internal/model"
)

// ErrInvalidCandle marks a record that must not be persisted.
var ErrInvalidCandle = errors.New("invalid candle")

// Validate rejects records with non-finite or negative values, low > high,
// or an open outside [low, high].
func Validate(rec model.DailyRecord) error {
	if rec.Date == "" {
		return fmt.Errorf("%w: empty date", ErrInvalidCandle)
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"open", rec.Open}, {"high", rec.High}, {"low", rec.Low}, {"close", rec.Close}, {"volume", rec.Volume},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%w: %s=%v on %s", ErrInvalidCandle, f.name, f.v, rec.Date)
		}
	}
	if rec.Low > rec.High {
		return fmt.Errorf("%w: low %v > high %v on %s", ErrInvalidCandle, rec.Low, rec.High, rec.Date)
	}
	if rec.Open < rec.Low || rec.Open > rec.High {
		return fmt.Errorf("%w: open %v outside [%v, %v] on %s", ErrInvalidCandle, rec.Open, rec.Low, rec.High, rec.Date)
	}
	return nil
}

// Anomalies lists soft violations that are logged but still persisted.
// The close comes from the next day's first sample, so it can legitimately
// sit outside the target day's range.
func Anomalies(rec model.DailyRecord) []string {
	var out []string
	if rec.Close > rec.High {
		out = append(out, fmt.Sprintf("close %v above high %v", rec.Close, rec.High))
	}
	if rec.Close < rec.Low {
		out = append(out, fmt.Sprintf("close %v below low %v", rec.Close, rec.Low))
	}
	if rec.Volume == 0 {
		out = append(out, "zero volume")
	}
	return out
}
