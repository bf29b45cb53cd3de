package services

import "time"

// TTLCategory classifies a requested date by its distance from today.
type TTLCategory int

const (
	TTLCurrent TTLCategory = iota
	TTLRecent
	TTLHistorical
)

// Cache lifetimes per category. Prices are tiered because intraday equity
// data churns; exchange rates get a flat day regardless of recency since a
// daily reference rate is stable enough for personal-finance valuation.
const (
	CurrentPriceTTL    = 15 * time.Minute
	RecentPriceTTL     = time.Hour
	HistoricalPriceTTL = 24 * time.Hour
	RateTTL            = 24 * time.Hour

	recentWindowDays = 7
)

// ClassifyDate maps the requested date to a TTL category. Today and future
// dates are current; up to recentWindowDays back is recent; older is
// historical.
func ClassifyDate(date, today time.Time) TTLCategory {
	d := DateOnly(date)
	t := DateOnly(today)
	if !d.Before(t) {
		return TTLCurrent
	}
	days := int(t.Sub(d).Hours() / 24)
	if days <= recentWindowDays {
		return TTLRecent
	}
	return TTLHistorical
}

// PriceTTLFor returns the cache lifetime for a price dated date.
func PriceTTLFor(date, today time.Time) time.Duration {
	switch ClassifyDate(date, today) {
	case TTLCurrent:
		return CurrentPriceTTL
	case TTLRecent:
		return RecentPriceTTL
	default:
		return HistoricalPriceTTL
	}
}

// RateTTLFor returns the cache lifetime for an exchange rate dated date.
// Flat on purpose; see the constant block above.
func RateTTLFor(date, today time.Time) time.Duration {
	return RateTTL
}

// DateOnly truncates t to its UTC calendar day. All identities are keyed by
// day, so every date entering the core passes through here first.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
