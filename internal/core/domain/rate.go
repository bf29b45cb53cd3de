package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the conversion rate between two currencies on a specific date.
// Identity is the triple (FromCurrencyCode, ToCurrencyCode, RateDate); values are
// immutable once constructed.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"` // Primary Key (UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	RateDate         time.Time       `json:"rateDate"` // date only, truncated to UTC midnight
	Source           string          `json:"source"`   // provider name or "manual"
	CreatedAt        time.Time       `json:"createdAt"`
}

// IdentityRate is exactly 1.0 and is returned for same-currency conversions
// without touching any tier.
func IdentityRate(code string, date time.Time) ExchangeRate {
	return ExchangeRate{
		FromCurrencyCode: code,
		ToCurrencyCode:   code,
		Rate:             decimal.NewFromInt(1),
		RateDate:         date,
	}
}
