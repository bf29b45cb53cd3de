package repositories

// RepositoryProvider bundles every repository the service container needs.
type RepositoryProvider struct {
	ExchangeRateRepo  ExchangeRateRepository
	SecurityPriceRepo SecurityPriceRepository
}
