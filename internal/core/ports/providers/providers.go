package providers

import (
	"context"
	"time"

	"github.com/finbeat/marketdata/internal/core/domain"
)

// RateProvider is one external source of exchange rates. Implementations own
// their HTTP transport, retries and parsing; the core only sees values or
// errors it collapses into misses.
type RateProvider interface {
	// Name identifies the adapter in logs, stats and record provenance.
	Name() string
	// IsConfigured reports whether the adapter holds the credentials it
	// needs (or permits unauthenticated use).
	IsConfigured() bool
	// SupportsHistoricalRange reports whether FetchRange can serve spans of
	// past dates. Adapters limited to a "latest" endpoint return false.
	SupportsHistoricalRange() bool
	// FetchRate fetches the rate for one (from, to, date) identity.
	FetchRate(ctx context.Context, from, to string, date time.Time) (*domain.ExchangeRate, error)
	// FetchRateRange fetches rates for every available date in [start, end].
	FetchRateRange(ctx context.Context, from, to string, start, end time.Time) ([]domain.ExchangeRate, error)
	// Usage reports quota consumption, best effort.
	Usage(ctx context.Context) (*domain.ProviderUsage, error)
}

// PriceProvider is one external source of security prices.
type PriceProvider interface {
	Name() string
	IsConfigured() bool
	SupportsHistoricalRange() bool
	// FetchPrice fetches the price for one (symbol, exchange, date) identity.
	FetchPrice(ctx context.Context, symbol, exchange string, date time.Time) (*domain.SecurityPrice, error)
	// FetchPriceRange fetches prices for every available date in [start, end].
	FetchPriceRange(ctx context.Context, symbol, exchange string, start, end time.Time) ([]domain.SecurityPrice, error)
	Usage(ctx context.Context) (*domain.ProviderUsage, error)
}
