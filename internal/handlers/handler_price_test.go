package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finbeat/marketdata/internal/apperrors"
	"github.com/finbeat/marketdata/internal/core/domain"
	"github.com/finbeat/marketdata/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// PriceHandlerTestSuite reuses the router wiring from the rate handler suite;
// only the expectations differ.
type PriceHandlerTestSuite struct {
	RateHandlerTestSuite
}

func (suite *PriceHandlerTestSuite) samplePrice(date time.Time) domain.SecurityPrice {
	return domain.SecurityPrice{
		SecurityPriceID: uuid.NewString(),
		Symbol:          "AAPL",
		Exchange:        "NASDAQ",
		Price:           decimal.NewFromFloat(189.50),
		Currency:        "USD",
		PriceDate:       date,
		Source:          "alphavantage",
	}
}

func (suite *PriceHandlerTestSuite) TestGetPrice_Success() {
	date := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	expected := suite.samplePrice(date)

	suite.mockPriceSvc.On("ResolvePrice", mock.Anything, "AAPL", "NASDAQ", date, true).
		Return(&expected, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/AAPL?exchange=NASDAQ&date=2025-06-16", nil)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	suite.Equal(http.StatusOK, rec.Code)
	var resp dto.SecurityPriceResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.Equal("AAPL", resp.Symbol)
	suite.Equal("2025-06-16", resp.PriceDate)
	suite.mockPriceSvc.AssertExpectations(suite.T())
}

func (suite *PriceHandlerTestSuite) TestGetPrice_NoExchangeParam() {
	date := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	expected := suite.samplePrice(date)
	expected.Exchange = ""

	suite.mockPriceSvc.On("ResolvePrice", mock.Anything, "AAPL", "", date, true).
		Return(&expected, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/AAPL?date=2025-06-16", nil)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	suite.Equal(http.StatusOK, rec.Code)
	suite.mockPriceSvc.AssertExpectations(suite.T())
}

func (suite *PriceHandlerTestSuite) TestGetPrice_NotFound() {
	suite.mockPriceSvc.On("ResolvePrice", mock.Anything, "ZZZZ", "", mock.AnythingOfType("time.Time"), true).
		Return(nil, apperrors.NewNotFoundError("no price for ZZZZ")).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/ZZZZ", nil)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *PriceHandlerTestSuite) TestGetPriceRange_Success() {
	d1 := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	prices := []domain.SecurityPrice{suite.samplePrice(d1), suite.samplePrice(d2)}

	suite.mockPriceSvc.On("ResolvePriceRange", mock.Anything, "AAPL", "", []time.Time{d1, d2}, true).
		Return(prices, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prices/AAPL/range?start=2025-06-15&end=2025-06-16", nil)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	suite.Equal(http.StatusOK, rec.Code)
	var resp []dto.SecurityPriceResponse
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	suite.Len(resp, 2)
}

func (suite *PriceHandlerTestSuite) TestCreatePrice_RequiresAuth() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prices", nil)
	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)

	suite.Equal(http.StatusUnauthorized, rec.Code)
	suite.mockPriceSvc.AssertNotCalled(suite.T(), "CreateSecurityPrice", mock.Anything, mock.Anything)
}

func TestPriceHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(PriceHandlerTestSuite))
}
