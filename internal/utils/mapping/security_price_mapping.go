package mapping

import (
	"github.com/finbeat/marketdata/internal/core/domain"
	"github.com/finbeat/marketdata/internal/models"
)

// ToModelSecurityPrice converts a domain SecurityPrice to a model SecurityPrice
func ToModelSecurityPrice(d domain.SecurityPrice) models.SecurityPrice {
	return models.SecurityPrice{
		SecurityPriceID: d.SecurityPriceID,
		Symbol:          d.Symbol,
		Exchange:        d.Exchange,
		Price:           d.Price,
		Currency:        d.Currency,
		PriceDate:       d.PriceDate,
		Source:          d.Source,
		CreatedAt:       d.CreatedAt,
	}
}

// ToDomainSecurityPrice converts a model SecurityPrice to a domain SecurityPrice
func ToDomainSecurityPrice(m models.SecurityPrice) domain.SecurityPrice {
	return domain.SecurityPrice{
		SecurityPriceID: m.SecurityPriceID,
		Symbol:          m.Symbol,
		Exchange:        m.Exchange,
		Price:           m.Price,
		Currency:        m.Currency,
		PriceDate:       m.PriceDate,
		Source:          m.Source,
		CreatedAt:       m.CreatedAt,
	}
}
