package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/finbeat/marketdata/internal/apperrors"
	"github.com/finbeat/marketdata/internal/core/domain"
	providerport "github.com/finbeat/marketdata/internal/core/ports/providers"
	"github.com/finbeat/marketdata/internal/core/services"
	"github.com/finbeat/marketdata/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock SecurityPriceRepository ---
type MockSecurityPriceRepository struct {
	mock.Mock
}

func (m *MockSecurityPriceRepository) FindSecurityPrice(ctx context.Context, symbol, exchange string, priceDate time.Time) (*domain.SecurityPrice, error) {
	args := m.Called(ctx, symbol, exchange, priceDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SecurityPrice), args.Error(1)
}

func (m *MockSecurityPriceRepository) ListSecurityPricesBefore(ctx context.Context, symbol, exchange string, before time.Time, limit int) ([]domain.SecurityPrice, error) {
	args := m.Called(ctx, symbol, exchange, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SecurityPrice), args.Error(1)
}

func (m *MockSecurityPriceRepository) CountSecurityPrices(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSecurityPriceRepository) FindOrCreateSecurityPrice(ctx context.Context, price domain.SecurityPrice) (*domain.SecurityPrice, error) {
	args := m.Called(ctx, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SecurityPrice), args.Error(1)
}

// --- Mock PriceProvider ---
type MockPriceProvider struct {
	mock.Mock
}

func (m *MockPriceProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPriceProvider) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPriceProvider) SupportsHistoricalRange() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockPriceProvider) FetchPrice(ctx context.Context, symbol, exchange string, date time.Time) (*domain.SecurityPrice, error) {
	args := m.Called(ctx, symbol, exchange, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SecurityPrice), args.Error(1)
}

func (m *MockPriceProvider) FetchPriceRange(ctx context.Context, symbol, exchange string, start, end time.Time) ([]domain.SecurityPrice, error) {
	args := m.Called(ctx, symbol, exchange, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SecurityPrice), args.Error(1)
}

func (m *MockPriceProvider) Usage(ctx context.Context) (*domain.ProviderUsage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderUsage), args.Error(1)
}

// --- Test Suite ---
type PriceServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockSecurityPriceRepository
	mockCache    *MockCacheStore
	mockProvider *MockPriceProvider
	service      *services.PriceService
	today        time.Time
}

func (suite *PriceServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockSecurityPriceRepository)
	suite.mockCache = new(MockCacheStore)
	suite.mockProvider = new(MockPriceProvider)
	suite.today = time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.service = services.NewPriceService(
		suite.mockRepo,
		suite.mockCache,
		[]providerport.PriceProvider{suite.mockProvider},
		logger,
		services.WithPriceClock(func() time.Time { return suite.today }),
	)
}

func (suite *PriceServiceTestSuite) samplePrice(date time.Time) domain.SecurityPrice {
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

// --- ResolvePrice ---

func (suite *PriceServiceTestSuite) TestResolvePrice_CacheHit() {
	ctx := context.Background()
	expected := suite.samplePrice(suite.today)
	payload, err := json.Marshal(&expected)
	suite.Require().NoError(err)

	key := services.PriceKey("AAPL", "NASDAQ", suite.today)
	suite.mockCache.On("Read", ctx, key).Return(payload, nil).Once()

	price, err := suite.service.ResolvePrice(ctx, "aapl", "nasdaq", suite.today, true)

	suite.Require().NoError(err)
	suite.True(price.Price.Equal(expected.Price))
	suite.mockRepo.AssertNotCalled(suite.T(), "FindSecurityPrice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PriceServiceTestSuite) TestResolvePrice_EmptySymbolRejected() {
	ctx := context.Background()

	_, err := suite.service.ResolvePrice(ctx, "  ", "", suite.today, true)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PriceServiceTestSuite) TestResolvePrice_ProviderFetchPersistsAndCaches() {
	ctx := context.Background()
	key := services.PriceKey("AAPL", "", suite.today)
	fetched := domain.SecurityPrice{
		Symbol:    "AAPL",
		Price:     decimal.NewFromFloat(190.10),
		Currency:  "USD",
		PriceDate: suite.today,
	}
	saved := fetched
	saved.SecurityPriceID = uuid.NewString()
	saved.Source = "alphavantage"

	suite.mockCache.On("Read", ctx, key).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindSecurityPrice", ctx, "AAPL", "", suite.today).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockProvider.On("IsConfigured").Return(true)
	suite.mockProvider.On("Name").Return("alphavantage")
	suite.mockProvider.On("FetchPrice", ctx, "AAPL", "", suite.today).Return(&fetched, nil).Once()
	suite.mockRepo.On("FindOrCreateSecurityPrice", ctx, mock.MatchedBy(func(p domain.SecurityPrice) bool {
		return p.Symbol == "AAPL" && p.PriceDate.Equal(suite.today) && p.Source == "alphavantage"
	})).Return(&saved, nil).Once()
	suite.mockCache.On("Write", ctx, key, mock.Anything, services.CurrentPriceTTL).Return(nil).Once()

	price, err := suite.service.ResolvePrice(ctx, "AAPL", "", suite.today, true)

	suite.Require().NoError(err)
	suite.Equal("alphavantage", price.Source)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *PriceServiceTestSuite) TestResolvePrice_ProviderFailureCollapsesToNotFound() {
	ctx := context.Background()
	key := services.PriceKey("AAPL", "", suite.today)

	suite.mockCache.On("Read", ctx, key).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindSecurityPrice", ctx, "AAPL", "", suite.today).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockProvider.On("IsConfigured").Return(true)
	suite.mockProvider.On("Name").Return("alphavantage")
	suite.mockProvider.On("FetchPrice", ctx, "AAPL", "", suite.today).Return(nil, errors.New("rate limited")).Once()

	_, err := suite.service.ResolvePrice(ctx, "AAPL", "", suite.today, true)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- TTL tiering observed through cache writes ---

func (suite *PriceServiceTestSuite) storeHitWithTTL(date time.Time, wantTTL time.Duration) {
	ctx := context.Background()
	expected := suite.samplePrice(date)
	key := services.PriceKey("AAPL", "NASDAQ", date)

	suite.mockCache.On("Read", ctx, key).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindSecurityPrice", ctx, "AAPL", "NASDAQ", date).Return(&expected, nil).Once()
	suite.mockCache.On("Write", ctx, key, mock.Anything, wantTTL).Return(nil).Once()

	_, err := suite.service.ResolvePrice(ctx, "AAPL", "NASDAQ", date, true)

	suite.Require().NoError(err)
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *PriceServiceTestSuite) TestResolvePrice_TodayGetsCurrentTTL() {
	suite.storeHitWithTTL(suite.today, services.CurrentPriceTTL)
}

func (suite *PriceServiceTestSuite) TestResolvePrice_SevenDaysOldGetsRecentTTL() {
	suite.storeHitWithTTL(suite.today.AddDate(0, 0, -7), services.RecentPriceTTL)
}

func (suite *PriceServiceTestSuite) TestResolvePrice_EightDaysOldGetsHistoricalTTL() {
	suite.storeHitWithTTL(suite.today.AddDate(0, 0, -8), services.HistoricalPriceTTL)
}

// --- ResolvePriceRange ---

func (suite *PriceServiceTestSuite) TestResolvePriceRange_SingleRangeFetchForMissing() {
	ctx := context.Background()
	dOld := suite.today.AddDate(0, 0, -4)
	dNew := suite.today.AddDate(0, 0, -2)

	fetchedOld := suite.samplePrice(dOld)
	fetchedNew := suite.samplePrice(dNew)

	suite.mockCache.On("Read", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)
	suite.mockCache.On("Write", ctx, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("time.Duration")).Return(nil)
	suite.mockRepo.On("FindSecurityPrice", ctx, "AAPL", "NASDAQ", mock.AnythingOfType("time.Time")).Return(nil, apperrors.ErrNotFound)

	suite.mockProvider.On("IsConfigured").Return(true)
	suite.mockProvider.On("Name").Return("alphavantage")
	suite.mockProvider.On("SupportsHistoricalRange").Return(true)
	suite.mockProvider.On("FetchPriceRange", ctx, "AAPL", "NASDAQ", dOld, dNew).
		Return([]domain.SecurityPrice{fetchedNew, fetchedOld}, nil).Once()

	suite.mockRepo.On("FindOrCreateSecurityPrice", ctx, mock.MatchedBy(func(p domain.SecurityPrice) bool {
		return p.PriceDate.Equal(dOld)
	})).Return(&fetchedOld, nil).Once()
	suite.mockRepo.On("FindOrCreateSecurityPrice", ctx, mock.MatchedBy(func(p domain.SecurityPrice) bool {
		return p.PriceDate.Equal(dNew)
	})).Return(&fetchedNew, nil).Once()

	prices, err := suite.service.ResolvePriceRange(ctx, "AAPL", "NASDAQ", []time.Time{dNew, dOld}, true)

	suite.Require().NoError(err)
	suite.Require().Len(prices, 2)
	suite.True(prices[0].PriceDate.Equal(dOld))
	suite.True(prices[1].PriceDate.Equal(dNew))
	suite.mockProvider.AssertNumberOfCalls(suite.T(), "FetchPriceRange", 1)
}

func (suite *PriceServiceTestSuite) TestResolvePriceRange_MismatchedSymbolRowsDropped() {
	ctx := context.Background()
	d := suite.today.AddDate(0, 0, -1)
	wrong := suite.samplePrice(d)
	wrong.Symbol = "MSFT"

	suite.mockCache.On("Read", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)
	suite.mockRepo.On("FindSecurityPrice", ctx, "AAPL", "NASDAQ", d).Return(nil, apperrors.ErrNotFound).Once()

	suite.mockProvider.On("IsConfigured").Return(true)
	suite.mockProvider.On("Name").Return("alphavantage")
	suite.mockProvider.On("SupportsHistoricalRange").Return(true)
	suite.mockProvider.On("FetchPriceRange", ctx, "AAPL", "NASDAQ", d, d).
		Return([]domain.SecurityPrice{wrong}, nil).Once()

	prices, err := suite.service.ResolvePriceRange(ctx, "AAPL", "NASDAQ", []time.Time{d}, true)

	suite.Require().NoError(err)
	suite.Empty(prices)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindOrCreateSecurityPrice", mock.Anything, mock.Anything)
}

func (suite *PriceServiceTestSuite) TestResolvePriceRange_EmptyDates() {
	ctx := context.Background()

	prices, err := suite.service.ResolvePriceRange(ctx, "AAPL", "", nil, true)

	suite.Require().NoError(err)
	suite.Empty(prices)
}

// --- CreateSecurityPrice ---

func (suite *PriceServiceTestSuite) TestCreateSecurityPrice_Success() {
	ctx := context.Background()
	req := dto.CreateSecurityPriceRequest{
		Symbol:    "vwce",
		Exchange:  "xetra",
		Price:     decimal.NewFromFloat(112.34),
		Currency:  "eur",
		PriceDate: suite.today,
	}
	saved := domain.SecurityPrice{
		SecurityPriceID: uuid.NewString(),
		Symbol:          "VWCE",
		Exchange:        "XETRA",
		Price:           req.Price,
		Currency:        "EUR",
		PriceDate:       suite.today,
		Source:          services.ManualSource,
	}

	suite.mockRepo.On("FindOrCreateSecurityPrice", ctx, mock.MatchedBy(func(p domain.SecurityPrice) bool {
		return p.Symbol == "VWCE" && p.Exchange == "XETRA" && p.Currency == "EUR" && p.Source == services.ManualSource
	})).Return(&saved, nil).Once()
	suite.mockCache.On("Delete", ctx, services.PriceKey("VWCE", "XETRA", suite.today)).Return(nil).Once()

	price, err := suite.service.CreateSecurityPrice(ctx, req)

	suite.Require().NoError(err)
	suite.Equal(services.ManualSource, price.Source)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PriceServiceTestSuite) TestCreateSecurityPrice_NonPositivePriceRejected() {
	ctx := context.Background()
	req := dto.CreateSecurityPriceRequest{
		Symbol:    "AAPL",
		Price:     decimal.Zero,
		Currency:  "USD",
		PriceDate: suite.today,
	}

	_, err := suite.service.CreateSecurityPrice(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *PriceServiceTestSuite) TestCreateSecurityPrice_BadCurrencyRejected() {
	ctx := context.Background()
	req := dto.CreateSecurityPriceRequest{
		Symbol:    "AAPL",
		Price:     decimal.NewFromInt(10),
		Currency:  "US",
		PriceDate: suite.today,
	}

	_, err := suite.service.CreateSecurityPrice(ctx, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- Admin operations ---

func (suite *PriceServiceTestSuite) TestInvalidateAllPrices_DeletesByPrefix() {
	ctx := context.Background()
	suite.mockCache.On("DeleteByPrefix", ctx, services.PriceKeyPrefix).Return(int64(7), nil).Once()

	cleared, err := suite.service.InvalidateAllPrices(ctx)

	suite.Require().NoError(err)
	suite.Equal(int64(7), cleared)
}

func (suite *PriceServiceTestSuite) TestInvalidatePricesForSymbol_DeletesBySymbolPrefix() {
	ctx := context.Background()
	suite.mockCache.On("DeleteByPrefix", ctx, "prices:AAPL:-:").Return(int64(4), nil).Once()

	cleared, err := suite.service.InvalidatePricesForSymbol(ctx, "aapl", "")

	suite.Require().NoError(err)
	suite.Equal(int64(4), cleared)
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *PriceServiceTestSuite) TestInvalidatePrice_DeletesExactKey() {
	ctx := context.Background()
	date := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	suite.mockCache.On("Delete", ctx, "prices:AAPL:NASDAQ:2025-06-16").Return(nil).Once()

	err := suite.service.InvalidatePrice(ctx, "aapl", "nasdaq", date)

	suite.Require().NoError(err)
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *PriceServiceTestSuite) TestCacheStats() {
	ctx := context.Background()
	suite.mockCache.On("CountByPrefix", ctx, services.PriceKeyPrefix).Return(int64(2), nil).Once()
	suite.mockRepo.On("CountSecurityPrices", ctx).Return(int64(9), nil).Once()
	suite.mockProvider.On("IsConfigured").Return(true)
	suite.mockProvider.On("Name").Return("alphavantage")

	stats, err := suite.service.CacheStats(ctx)

	suite.Require().NoError(err)
	suite.Equal("prices", stats.Concept)
	suite.Equal(int64(2), stats.CachedEntries)
	suite.Equal(int64(9), stats.StoredRecords)
}

func TestPriceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PriceServiceTestSuite))
}
