package services

import (
	"log/slog"

	cacheport "github.com/finbeat/marketdata/internal/core/ports/cache"
	providerport "github.com/finbeat/marketdata/internal/core/ports/providers"
	portsrepo "github.com/finbeat/marketdata/internal/core/ports/repositories"
	portssvc "github.com/finbeat/marketdata/internal/core/ports/services"
)

// NewServiceContainer creates the service container with properly initialized
// dependencies. The cache store and provider chains come from the
// composition root; nothing in here reaches for globals.
func NewServiceContainer(repos portsrepo.RepositoryProvider, cache cacheport.Store, rateProviders []providerport.RateProvider, priceProviders []providerport.PriceProvider, logger *slog.Logger) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Rate:  NewRateService(repos.ExchangeRateRepo, cache, rateProviders, logger),
		Price: NewPriceService(repos.SecurityPriceRepo, cache, priceProviders, logger),
	}
}

// Compile-time interface checks
var (
	_ portssvc.RateSvcFacade  = (*RateService)(nil)
	_ portssvc.PriceSvcFacade = (*PriceService)(nil)
)
