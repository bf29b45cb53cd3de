package dto

import (
	"time"

	"github.com/finbeat/marketdata/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateSecurityPriceRequest defines the structure for manually adding a price.
type CreateSecurityPriceRequest struct {
	Symbol    string          `json:"symbol" binding:"required,max=12"`
	Exchange  string          `json:"exchange"`
	Price     decimal.Decimal `json:"price" binding:"required"`
	Currency  string          `json:"currency" binding:"required,currencycode"`
	PriceDate time.Time       `json:"priceDate" binding:"required"`
}

// SecurityPriceResponse defines the structure for API responses containing a price.
type SecurityPriceResponse struct {
	Symbol    string          `json:"symbol"`
	Exchange  string          `json:"exchange,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	PriceDate string          `json:"priceDate"` // YYYY-MM-DD
	Source    string          `json:"source,omitempty"`
}

// ToSecurityPriceResponse converts a domain.SecurityPrice to SecurityPriceResponse DTO
func ToSecurityPriceResponse(price *domain.SecurityPrice) SecurityPriceResponse {
	return SecurityPriceResponse{
		Symbol:    price.Symbol,
		Exchange:  price.Exchange,
		Price:     price.Price,
		Currency:  price.Currency,
		PriceDate: price.PriceDate.Format("2006-01-02"),
		Source:    price.Source,
	}
}

// ToListSecurityPriceResponse converts a slice of domain prices to response DTOs.
func ToListSecurityPriceResponse(prices []domain.SecurityPrice) []SecurityPriceResponse {
	responses := make([]SecurityPriceResponse, len(prices))
	for i := range prices {
		responses[i] = ToSecurityPriceResponse(&prices[i])
	}
	return responses
}

// PriceHistoryResponse is one page of stored prices plus the cursor for the next.
type PriceHistoryResponse struct {
	Prices    []SecurityPriceResponse `json:"prices"`
	NextToken string                  `json:"nextToken,omitempty"`
}
