package dto

import (
	"time"

	"github.com/finbeat/marketdata/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExchangeRateRequest defines the structure for manually adding a rate.
type CreateExchangeRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode" binding:"required,currencycode"`
	ToCurrencyCode   string          `json:"toCurrencyCode" binding:"required,currencycode"`
	Rate             decimal.Decimal `json:"rate" binding:"required"`
	RateDate         time.Time       `json:"rateDate" binding:"required"`
}

// ExchangeRateResponse defines the structure for API responses containing a rate.
type ExchangeRateResponse struct {
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	RateDate         string          `json:"rateDate"` // YYYY-MM-DD
	Source           string          `json:"source,omitempty"`
}

// ToExchangeRateResponse converts a domain.ExchangeRate to ExchangeRateResponse DTO
func ToExchangeRateResponse(rate *domain.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		FromCurrencyCode: rate.FromCurrencyCode,
		ToCurrencyCode:   rate.ToCurrencyCode,
		Rate:             rate.Rate,
		RateDate:         rate.RateDate.Format("2006-01-02"),
		Source:           rate.Source,
	}
}

// ToListExchangeRateResponse converts a slice of domain rates to response DTOs.
func ToListExchangeRateResponse(rates []domain.ExchangeRate) []ExchangeRateResponse {
	responses := make([]ExchangeRateResponse, len(rates))
	for i := range rates {
		responses[i] = ToExchangeRateResponse(&rates[i])
	}
	return responses
}

// RateHistoryResponse is one page of stored rates plus the cursor for the next.
type RateHistoryResponse struct {
	Rates     []ExchangeRateResponse `json:"rates"`
	NextToken string                 `json:"nextToken,omitempty"`
}
