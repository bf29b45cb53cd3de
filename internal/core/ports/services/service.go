package services

// ServiceContainer holds every service the handlers depend on.
type ServiceContainer struct {
	Rate  RateSvcFacade
	Price PriceSvcFacade
}
