package services

import (
	"fmt"
	"time"
)

// Cache key prefixes, one per data concept. Every key for a concept shares
// its prefix so the whole concept can be dropped with one prefix deletion.
const (
	RateKeyPrefix  = "rates:"
	PriceKeyPrefix = "prices:"
)

const keyDateFormat = "2006-01-02"

// RateKey derives the cache key for one (from, to, date) identity.
// Codes are expected pre-normalized (uppercase, dates truncated to UTC days).
func RateKey(from, to string, date time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", RateKeyPrefix, from, to, date.Format(keyDateFormat))
}

// RatePairPrefix is the shared prefix of every date for one currency pair,
// usable for pair-scoped invalidation.
func RatePairPrefix(from, to string) string {
	return fmt.Sprintf("%s%s:%s:", RateKeyPrefix, from, to)
}

// PriceKey derives the cache key for one (symbol, exchange, date) identity.
// An absent exchange is encoded as "-" so the key arity stays fixed.
func PriceKey(symbol, exchange string, date time.Time) string {
	if exchange == "" {
		exchange = "-"
	}
	return fmt.Sprintf("%s%s:%s:%s", PriceKeyPrefix, symbol, exchange, date.Format(keyDateFormat))
}

// PriceSymbolPrefix is the shared prefix of every date for one security.
func PriceSymbolPrefix(symbol, exchange string) string {
	if exchange == "" {
		exchange = "-"
	}
	return fmt.Sprintf("%s%s:%s:", PriceKeyPrefix, symbol, exchange)
}
