package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SecurityPrice is the persistence shape of a stored security price row.
// Exchange is nullable in the table; an empty string maps to NULL.
type SecurityPrice struct {
	SecurityPriceID string          `json:"securityPriceID"`
	Symbol          string          `json:"symbol"`
	Exchange        string          `json:"exchange"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	PriceDate       time.Time       `json:"priceDate"`
	Source          string          `json:"source"`
	CreatedAt       time.Time       `json:"createdAt"`
}
