package model

import "time"

// HourlyPricePoint is a single sample of the provider's hourly price series.
type HourlyPricePoint struct {
	Time  time.Time
	Price float64
}

// DailyRecord is one persisted ledger entry.
type DailyRecord struct {
	Date   string  `json:"date"` // "Jan 02", unique key
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"` // millions of quote currency
}

// PriceSeries holds the raw provider data gathered for one run.
type PriceSeries struct {
	CoinID     string
	VsCurrency string
	Points     []HourlyPricePoint
	Volume     float64
	FetchedAt  time.Time
}
