package services_test

import (
	"testing"
	"time"

	"github.com/finbeat/marketdata/internal/core/services"
	"github.com/stretchr/testify/assert"
)

func TestClassifyDate_Boundaries(t *testing.T) {
	today := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want services.TTLCategory
	}{
		{"today", today, services.TTLCurrent},
		{"future date", today.AddDate(0, 0, 3), services.TTLCurrent},
		{"one day old", today.AddDate(0, 0, -1), services.TTLRecent},
		{"seven days old is still recent", today.AddDate(0, 0, -7), services.TTLRecent},
		{"eight days old is historical", today.AddDate(0, 0, -8), services.TTLHistorical},
		{"years old", today.AddDate(-3, 0, 0), services.TTLHistorical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.ClassifyDate(tt.date, today))
		})
	}
}

func TestClassifyDate_IgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2025, 6, 16, 23, 59, 0, 0, time.UTC)
	sameDayMorning := time.Date(2025, 6, 16, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, services.TTLCurrent, services.ClassifyDate(sameDayMorning, today))
}

func TestPriceTTLFor(t *testing.T) {
	today := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, services.CurrentPriceTTL, services.PriceTTLFor(today, today))
	assert.Equal(t, services.RecentPriceTTL, services.PriceTTLFor(today.AddDate(0, 0, -7), today))
	assert.Equal(t, services.HistoricalPriceTTL, services.PriceTTLFor(today.AddDate(0, 0, -8), today))
}

func TestRateTTLFor_FlatRegardlessOfAge(t *testing.T) {
	today := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, services.RateTTL, services.RateTTLFor(today, today))
	assert.Equal(t, services.RateTTL, services.RateTTLFor(today.AddDate(0, 0, -7), today))
	assert.Equal(t, services.RateTTL, services.RateTTLFor(today.AddDate(-5, 0, 0), today))
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 6, 16, 14, 30, 45, 123, time.FixedZone("IST", 5*3600+1800))
	got := services.DateOnly(in)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, 16, got.Day())
}
