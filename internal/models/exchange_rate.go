package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the persistence shape of a stored exchange rate row.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	RateDate         time.Time       `json:"rateDate"`
	Source           string          `json:"source"`
	CreatedAt        time.Time       `json:"createdAt"`
}
