package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/finbeat/marketdata/internal/core/services"
	"github.com/stretchr/testify/assert"
)

func TestRateKey(t *testing.T) {
	d := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	key := services.RateKey("USD", "EUR", d)

	assert.Equal(t, "rates:USD:EUR:2025-06-16", key)
	assert.True(t, strings.HasPrefix(key, services.RateKeyPrefix))
	assert.True(t, strings.HasPrefix(key, services.RatePairPrefix("USD", "EUR")))
}

func TestPriceKey(t *testing.T) {
	d := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "prices:AAPL:NASDAQ:2025-06-16", services.PriceKey("AAPL", "NASDAQ", d))
	// An absent exchange keeps the key arity stable.
	assert.Equal(t, "prices:AAPL:-:2025-06-16", services.PriceKey("AAPL", "", d))
	assert.True(t, strings.HasPrefix(services.PriceKey("AAPL", "", d), services.PriceSymbolPrefix("AAPL", "")))
}

func TestKeyPrefixesAreDisjoint(t *testing.T) {
	assert.False(t, strings.HasPrefix(services.RateKeyPrefix, services.PriceKeyPrefix))
	assert.False(t, strings.HasPrefix(services.PriceKeyPrefix, services.RateKeyPrefix))
}
