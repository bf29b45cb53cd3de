package services

import (
	"context"
	"time"

	"github.com/finbeat/marketdata/internal/core/domain"
	"github.com/finbeat/marketdata/internal/dto"
)

// PriceResolverSvc is the read-through resolution surface for security prices.
type PriceResolverSvc interface {
	ResolvePrice(ctx context.Context, symbol, exchange string, date time.Time, useCache bool) (*domain.SecurityPrice, error)
	ResolvePriceRange(ctx context.Context, symbol, exchange string, dates []time.Time, useCache bool) ([]domain.SecurityPrice, error)
}

// PriceAdminSvc is the operational surface for the prices concept.
type PriceAdminSvc interface {
	CreateSecurityPrice(ctx context.Context, req dto.CreateSecurityPriceRequest) (*domain.SecurityPrice, error)
	ListPriceHistory(ctx context.Context, symbol, exchange string, nextToken string, limit int) ([]domain.SecurityPrice, string, error)
	InvalidatePrice(ctx context.Context, symbol, exchange string, date time.Time) error
	InvalidatePricesForSymbol(ctx context.Context, symbol, exchange string) (int64, error)
	InvalidateAllPrices(ctx context.Context) (int64, error)
	CacheStats(ctx context.Context) (*domain.CacheStats, error)
	ProviderUsage(ctx context.Context) ([]domain.ProviderUsage, error)
}

// PriceSvcFacade combines all security-price service interfaces
type PriceSvcFacade interface {
	PriceResolverSvc
	PriceAdminSvc
}
