package domain

// ProviderUsage reports quota consumption for one external data provider.
// Providers without a usage endpoint report zeros with Plan "unknown".
type ProviderUsage struct {
	Provider    string  `json:"provider"`
	Used        int     `json:"used"`
	Limit       int     `json:"limit"`
	Utilization float64 `json:"utilization"` // Used/Limit, 0 when Limit is 0
	Plan        string  `json:"plan"`
}

// CacheStats summarizes one concept's tiers for the operational surface.
type CacheStats struct {
	Concept       string   `json:"concept"`
	CachedEntries int64    `json:"cachedEntries"`
	StoredRecords int64    `json:"storedRecords"`
	Providers     []string `json:"providers"` // configured adapters, in fallback order
}
