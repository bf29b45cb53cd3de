package dto

import "github.com/finbeat/marketdata/internal/core/domain"

// CacheStatsResponse reports tier counts per concept.
type CacheStatsResponse struct {
	Rates  domain.CacheStats `json:"rates"`
	Prices domain.CacheStats `json:"prices"`
}

// ClearCacheResponse reports how many ephemeral entries were dropped.
type ClearCacheResponse struct {
	Concept string `json:"concept"`
	Cleared int64  `json:"cleared"`
}

// WarmCachePair names one currency pair to pre-populate.
type WarmCachePair struct {
	From string `json:"from" binding:"required,currencycode"`
	To   string `json:"to" binding:"required,currencycode"`
}

// WarmCacheSymbol names one security to pre-populate.
type WarmCacheSymbol struct {
	Symbol   string `json:"symbol" binding:"required,max=12"`
	Exchange string `json:"exchange"`
}

// WarmCacheRequest pre-populates the trailing Days days for each identity.
type WarmCacheRequest struct {
	Pairs   []WarmCachePair   `json:"pairs" binding:"dive"`
	Symbols []WarmCacheSymbol `json:"symbols" binding:"dive"`
	Days    int               `json:"days" binding:"required,min=1,max=366"`
}

// WarmCacheResponse reports how many values each pipeline resolved.
type WarmCacheResponse struct {
	RatesWarmed  int `json:"ratesWarmed"`
	PricesWarmed int `json:"pricesWarmed"`
}

// ProviderUsageResponse lists usage per configured adapter, per concept.
type ProviderUsageResponse struct {
	Rates  []domain.ProviderUsage `json:"rates"`
	Prices []domain.ProviderUsage `json:"prices"`
}
