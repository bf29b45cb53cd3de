package services

import (
	"context"
	"time"

	"github.com/finbeat/marketdata/internal/core/domain"
	"github.com/finbeat/marketdata/internal/dto"
)

// RateResolverSvc is the read-through resolution surface for exchange rates.
type RateResolverSvc interface {
	// ResolveRate answers one (from, to, date) lookup through the cache,
	// store and provider tiers. Returns apperrors.ErrNotFound when no tier
	// has the value; never surfaces provider failures.
	ResolveRate(ctx context.Context, from, to string, date time.Time, useCache bool) (*domain.ExchangeRate, error)
	// ResolveRateRange answers a set of dates with at most one provider
	// range fetch; output is ascending by date, dates with no data dropped.
	ResolveRateRange(ctx context.Context, from, to string, dates []time.Time, useCache bool) ([]domain.ExchangeRate, error)
}

// RateAdminSvc is the operational surface for the rates concept.
type RateAdminSvc interface {
	// CreateExchangeRate inserts a manually sourced rate and invalidates the
	// matching cache entry.
	CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest) (*domain.ExchangeRate, error)
	// ListRateHistory pages through stored rates for a pair, newest first.
	ListRateHistory(ctx context.Context, from, to string, nextToken string, limit int) ([]domain.ExchangeRate, string, error)
	// InvalidateRate removes one ephemeral entry; the durable row stays.
	InvalidateRate(ctx context.Context, from, to string, date time.Time) error
	// InvalidateRatesForPair removes every ephemeral entry for one currency
	// pair across all dates and reports how many were dropped.
	InvalidateRatesForPair(ctx context.Context, from, to string) (int64, error)
	// InvalidateAllRates removes every ephemeral rate entry and reports how
	// many were dropped.
	InvalidateAllRates(ctx context.Context) (int64, error)
	// CacheStats reports tier counts and configured provider names.
	CacheStats(ctx context.Context) (*domain.CacheStats, error)
	// ProviderUsage reports quota usage for every configured adapter.
	ProviderUsage(ctx context.Context) ([]domain.ProviderUsage, error)
}

// RateSvcFacade combines all exchange-rate service interfaces
type RateSvcFacade interface {
	RateResolverSvc
	RateAdminSvc
}
