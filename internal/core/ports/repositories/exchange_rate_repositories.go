package repositories

import (
	"context"
	"time"

	"github.com/finbeat/marketdata/internal/core/domain"
)

// ExchangeRateReader defines read operations for stored exchange rates
type ExchangeRateReader interface {
	// FindExchangeRate retrieves the rate for one (from, to, date) identity.
	// Returns apperrors.ErrNotFound when no row exists.
	FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, rateDate time.Time) (*domain.ExchangeRate, error)
	// ListExchangeRatesBefore lists stored rates for a pair with rate_date
	// strictly before the cursor, newest first, at most limit rows.
	ListExchangeRatesBefore(ctx context.Context, fromCurrencyCode, toCurrencyCode string, before time.Time, limit int) ([]domain.ExchangeRate, error)
	// CountExchangeRates reports the number of stored rate rows.
	CountExchangeRates(ctx context.Context) (int64, error)
}

// ExchangeRateWriter defines write operations for stored exchange rates
type ExchangeRateWriter interface {
	// FindOrCreateExchangeRate persists the rate unless a row with the same
	// identity already exists, and returns the surviving row. Concurrent
	// identical calls yield one logical record.
	FindOrCreateExchangeRate(ctx context.Context, rate domain.ExchangeRate) (*domain.ExchangeRate, error)
}

// ExchangeRateRepository combines all exchange rate repository interfaces
type ExchangeRateRepository interface {
	ExchangeRateReader
	ExchangeRateWriter
}
