package repositories

import (
	"context"
	"time"

	"github.com/finbeat/marketdata/internal/core/domain"
)

// SecurityPriceReader defines read operations for stored security prices
type SecurityPriceReader interface {
	// FindSecurityPrice retrieves the price for one (symbol, exchange, date)
	// identity. Returns apperrors.ErrNotFound when no row exists.
	FindSecurityPrice(ctx context.Context, symbol, exchange string, priceDate time.Time) (*domain.SecurityPrice, error)
	// ListSecurityPricesBefore lists stored prices for a symbol with
	// price_date strictly before the cursor, newest first, at most limit rows.
	ListSecurityPricesBefore(ctx context.Context, symbol, exchange string, before time.Time, limit int) ([]domain.SecurityPrice, error)
	// CountSecurityPrices reports the number of stored price rows.
	CountSecurityPrices(ctx context.Context) (int64, error)
}

// SecurityPriceWriter defines write operations for stored security prices
type SecurityPriceWriter interface {
	// FindOrCreateSecurityPrice persists the price unless a row with the same
	// identity already exists, and returns the surviving row.
	FindOrCreateSecurityPrice(ctx context.Context, price domain.SecurityPrice) (*domain.SecurityPrice, error)
}

// SecurityPriceRepository combines all security price repository interfaces
type SecurityPriceRepository interface {
	SecurityPriceReader
	SecurityPriceWriter
}
