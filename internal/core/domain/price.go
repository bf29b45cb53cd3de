package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SecurityPrice is the price of one security on a specific date.
// Identity is (Symbol, Exchange, PriceDate); Exchange may be empty when the
// symbol is unambiguous for the provider.
type SecurityPrice struct {
	SecurityPriceID string          `json:"securityPriceID"` // Primary Key (UUID)
	Symbol          string          `json:"symbol"`
	Exchange        string          `json:"exchange,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	PriceDate       time.Time       `json:"priceDate"` // date only, truncated to UTC midnight
	Source          string          `json:"source"`
	CreatedAt       time.Time       `json:"createdAt"`
}
