package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		now   time.Time
		day   time.Time
		label string
		query string
	}{
		{
			name:  "mid day",
			now:   time.Date(2025, 3, 8, 14, 30, 0, 0, time.UTC),
			day:   time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
			label: "Mar 07",
			query: "07-03-2025",
		},
		{
			name:  "year boundary",
			now:   time.Date(2025, 1, 1, 0, 5, 0, 0, time.UTC),
			day:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			label: "Dec 31",
			query: "31-12-2024",
		},
		{
			name:  "leap day",
			now:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			day:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			label: "Feb 29",
			query: "29-02-2024",
		},
		{
			name:  "non UTC input uses UTC date",
			now:   time.Date(2025, 6, 10, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)),
			day:   time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
			label: "Jun 08",
			query: "08-06-2025",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.now)
			assert.True(t, got.Day.Equal(tt.day), "day: got %s", got.Day)
			assert.True(t, got.Next.Equal(tt.day.AddDate(0, 0, 1)), "next: got %s", got.Next)
			assert.Equal(t, tt.label, got.Label)
			assert.Equal(t, tt.query, got.Query)
		})
	}
}

func TestSameDay(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.True(t, SameDay(day, day))
	assert.True(t, SameDay(day.Add(23*time.Hour+59*time.Minute), day))
	assert.False(t, SameDay(day.Add(24*time.Hour), day))
	assert.False(t, SameDay(day.Add(-time.Second), day))
}
