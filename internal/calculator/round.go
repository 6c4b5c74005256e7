package calculator

import "github.com/shopspring/decimal"

const (
	PricePlaces  = 6
	VolumePlaces = 2
)

var million = decimal.NewFromInt(1_000_000)

// RoundPrice rounds a price to PricePlaces decimals, half away from zero.
func RoundPrice(p float64) float64 {
	return decimal.NewFromFloat(p).Round(PricePlaces).InexactFloat64()
}

// VolumeMillions converts a base-unit volume into millions rounded to
// VolumePlaces decimals: 12345678.9 -> 12.35.
func VolumeMillions(v float64) float64 {
	return decimal.NewFromFloat(v).Div(million).Round(VolumePlaces).InexactFloat64()
}
