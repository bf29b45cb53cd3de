package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/finbeat/marketdata/internal/apperrors"
	"github.com/finbeat/marketdata/internal/core/domain"
	cacheport "github.com/finbeat/marketdata/internal/core/ports/cache"
	providerport "github.com/finbeat/marketdata/internal/core/ports/providers"
	portsrepo "github.com/finbeat/marketdata/internal/core/ports/repositories"
	"github.com/finbeat/marketdata/internal/dto"
	"github.com/finbeat/marketdata/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceService resolves security prices through the same three tiers as
// RateService, with the tiered TTL policy prices require.
type PriceService struct {
	priceRepo portsrepo.SecurityPriceRepository
	cache     cacheport.Store
	providers []providerport.PriceProvider
	logger    *slog.Logger
	now       func() time.Time
}

// PriceServiceOption customizes a PriceService.
type PriceServiceOption func(*PriceService)

// WithPriceClock overrides the service clock, used by tests to pin "today".
func WithPriceClock(now func() time.Time) PriceServiceOption {
	return func(s *PriceService) {
		s.now = now
	}
}

// NewPriceService creates a new PriceService.
func NewPriceService(priceRepo portsrepo.SecurityPriceRepository, cache cacheport.Store, providers []providerport.PriceProvider, logger *slog.Logger, opts ...PriceServiceOption) *PriceService {
	s := &PriceService{
		priceRepo: priceRepo,
		cache:     cache,
		providers: providers,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolvePrice answers one (symbol, exchange, date) lookup through the
// cache, store and provider tiers.
func (s *PriceService) ResolvePrice(ctx context.Context, symbol, exchange string, date time.Time, useCache bool) (*domain.SecurityPrice, error) {
	symbol, exchange, err := normalizeSecurity(symbol, exchange)
	if err != nil {
		return nil, err
	}
	date = DateOnly(date)

	key := PriceKey(symbol, exchange, date)
	if useCache {
		if cached := s.readCachedPrice(ctx, key); cached != nil {
			return cached, nil
		}
	}

	stored, err := s.priceRepo.FindSecurityPrice(ctx, symbol, exchange, date)
	if err == nil {
		if useCache {
			s.writeCachedPrice(ctx, key, stored, PriceTTLFor(date, s.now()))
		}
		return stored, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("price store lookup failed, treating as miss",
			slog.String("symbol", symbol), slog.String("error", err.Error()))
	}

	provider := s.activeProvider()
	if provider == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no price for %s and no provider configured", symbol))
	}

	fetched, err := provider.FetchPrice(ctx, symbol, exchange, date)
	if err != nil || fetched == nil {
		if err != nil {
			s.logger.Warn("price provider fetch failed",
				slog.String("provider", provider.Name()),
				slog.String("symbol", symbol),
				slog.String("error", err.Error()))
		}
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no price for %s on %s", symbol, date.Format(keyDateFormat)))
	}

	saved := s.persistPrice(ctx, provider.Name(), *fetched, symbol, exchange, date)
	if saved == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no price for %s on %s", symbol, date.Format(keyDateFormat)))
	}
	if useCache {
		s.writeCachedPrice(ctx, key, saved, PriceTTLFor(date, s.now()))
	}
	return saved, nil
}

// ResolvePriceRange answers a set of dates for one security with at most one
// provider range fetch. Output ascending by date; unsatisfiable dates are
// silently absent.
func (s *PriceService) ResolvePriceRange(ctx context.Context, symbol, exchange string, dates []time.Time, useCache bool) ([]domain.SecurityPrice, error) {
	symbol, exchange, err := normalizeSecurity(symbol, exchange)
	if err != nil {
		return nil, err
	}
	requested := uniqueDates(dates)
	if len(requested) == 0 {
		return nil, nil
	}

	today := s.now()
	resolved := make(map[time.Time]domain.SecurityPrice, len(requested))
	var missing []time.Time

	for d := range requested {
		key := PriceKey(symbol, exchange, d)
		if useCache {
			if cached := s.readCachedPrice(ctx, key); cached != nil {
				resolved[d] = *cached
				continue
			}
		}
		stored, err := s.priceRepo.FindSecurityPrice(ctx, symbol, exchange, d)
		if err == nil {
			if useCache {
				s.writeCachedPrice(ctx, key, stored, PriceTTLFor(d, today))
			}
			resolved[d] = *stored
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("price store lookup failed, treating as miss",
				slog.String("symbol", symbol), slog.String("error", err.Error()))
		}
		missing = append(missing, d)
	}

	if len(missing) > 0 {
		s.fetchMissingPrices(ctx, symbol, exchange, missing, requested, resolved, useCache, today)
	}

	out := make([]domain.SecurityPrice, 0, len(resolved))
	for _, p := range resolved {
		out = append(out, p)
	}
	sortPricesByDate(out)
	return out, nil
}

func (s *PriceService) fetchMissingPrices(ctx context.Context, symbol, exchange string, missing []time.Time, requested map[time.Time]struct{}, resolved map[time.Time]domain.SecurityPrice, useCache bool, today time.Time) {
	provider := s.activeProvider()
	if provider == nil {
		return
	}
	start, end := dateSpan(missing)
	if !provider.SupportsHistoricalRange() && !(start.Equal(end) && start.Equal(DateOnly(today))) {
		s.logger.Debug("provider cannot serve historical ranges, skipping range fetch",
			slog.String("provider", provider.Name()),
			slog.Time("start", start), slog.Time("end", end))
		return
	}

	rows, err := provider.FetchPriceRange(ctx, symbol, exchange, start, end)
	if err != nil {
		s.logger.Warn("price provider range fetch failed",
			slog.String("provider", provider.Name()),
			slog.String("symbol", symbol),
			slog.String("error", err.Error()))
		return
	}

	for i := range rows {
		row := rows[i]
		if !strings.EqualFold(row.Symbol, symbol) {
			continue
		}
		d := DateOnly(row.PriceDate)
		saved := s.persistPrice(ctx, provider.Name(), row, symbol, exchange, d)
		if saved == nil {
			continue
		}
		if useCache {
			s.writeCachedPrice(ctx, PriceKey(symbol, exchange, d), saved, PriceTTLFor(d, today))
		}
		if _, ok := requested[d]; ok {
			resolved[d] = *saved
		}
	}
}

func (s *PriceService) persistPrice(ctx context.Context, providerName string, row domain.SecurityPrice, symbol, exchange string, date time.Time) *domain.SecurityPrice {
	row.Symbol = symbol
	row.Exchange = exchange
	row.PriceDate = date
	if row.SecurityPriceID == "" {
		row.SecurityPriceID = uuid.NewString()
	}
	if row.Source == "" {
		row.Source = providerName
	}
	row.CreatedAt = s.now()

	saved, err := s.priceRepo.FindOrCreateSecurityPrice(ctx, row)
	if err != nil {
		s.logger.Error("failed to persist fetched security price",
			slog.String("symbol", symbol), slog.Time("date", date),
			slog.String("error", err.Error()))
		return nil
	}
	return saved
}

// CreateSecurityPrice inserts a manually sourced price and drops the
// matching ephemeral entry.
func (s *PriceService) CreateSecurityPrice(ctx context.Context, req dto.CreateSecurityPriceRequest) (*domain.SecurityPrice, error) {
	symbol, exchange, err := normalizeSecurity(req.Symbol, req.Exchange)
	if err != nil {
		return nil, err
	}
	if req.Price.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidationError("price must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, apperrors.NewValidationError("currency code must be 3 letters")
	}
	date := DateOnly(req.PriceDate)

	price := domain.SecurityPrice{
		SecurityPriceID: uuid.NewString(),
		Symbol:          symbol,
		Exchange:        exchange,
		Price:           req.Price,
		Currency:        currency,
		PriceDate:       date,
		Source:          ManualSource,
		CreatedAt:       s.now(),
	}
	saved, err := s.priceRepo.FindOrCreateSecurityPrice(ctx, price)
	if err != nil {
		return nil, fmt.Errorf("failed to create security price: %w", err)
	}
	if err := s.InvalidatePrice(ctx, symbol, exchange, date); err != nil {
		s.logger.Warn("failed to invalidate price cache entry", slog.String("error", err.Error()))
	}
	return saved, nil
}

// ListPriceHistory pages through stored prices for a security, newest first.
func (s *PriceService) ListPriceHistory(ctx context.Context, symbol, exchange string, nextToken string, limit int) ([]domain.SecurityPrice, string, error) {
	symbol, exchange, err := normalizeSecurity(symbol, exchange)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	before := DateOnly(s.now()).AddDate(0, 0, 1)
	if nextToken != "" {
		before, err = pagination.DecodeDateBasedToken(nextToken)
		if err != nil {
			return nil, "", apperrors.NewValidationError("invalid pagination token")
		}
	}

	prices, err := s.priceRepo.ListSecurityPricesBefore(ctx, symbol, exchange, before, limit)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list security prices: %w", err)
	}
	token := ""
	if len(prices) == limit {
		token = pagination.EncodeDateBasedToken(prices[len(prices)-1].PriceDate)
	}
	return prices, token, nil
}

// InvalidatePrice removes one ephemeral entry; the durable row is untouched.
func (s *PriceService) InvalidatePrice(ctx context.Context, symbol, exchange string, date time.Time) error {
	symbol, exchange, err := normalizeSecurity(symbol, exchange)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, PriceKey(symbol, exchange, DateOnly(date)))
}

// InvalidatePricesForSymbol removes every ephemeral entry for one security
// across all dates via prefix deletion.
func (s *PriceService) InvalidatePricesForSymbol(ctx context.Context, symbol, exchange string) (int64, error) {
	symbol, exchange, err := normalizeSecurity(symbol, exchange)
	if err != nil {
		return 0, err
	}
	return s.cache.DeleteByPrefix(ctx, PriceSymbolPrefix(symbol, exchange))
}

// InvalidateAllPrices removes every ephemeral price entry via prefix deletion.
func (s *PriceService) InvalidateAllPrices(ctx context.Context) (int64, error) {
	return s.cache.DeleteByPrefix(ctx, PriceKeyPrefix)
}

// CacheStats reports tier counts and configured provider names for prices.
func (s *PriceService) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	cached, err := s.cache.CountByPrefix(ctx, PriceKeyPrefix)
	if err != nil {
		s.logger.Warn("failed to count cached price entries", slog.String("error", err.Error()))
		cached = 0
	}
	stored, err := s.priceRepo.CountSecurityPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored security prices: %w", err)
	}
	names := []string{}
	for _, p := range s.providers {
		if p.IsConfigured() {
			names = append(names, p.Name())
		}
	}
	return &domain.CacheStats{
		Concept:       "prices",
		CachedEntries: cached,
		StoredRecords: stored,
		Providers:     names,
	}, nil
}

// ProviderUsage reports quota usage for every configured price provider.
func (s *PriceService) ProviderUsage(ctx context.Context) ([]domain.ProviderUsage, error) {
	var usages []domain.ProviderUsage
	for _, p := range s.providers {
		if !p.IsConfigured() {
			continue
		}
		u, err := p.Usage(ctx)
		if err != nil || u == nil {
			if err != nil {
				s.logger.Warn("provider usage lookup failed",
					slog.String("provider", p.Name()), slog.String("error", err.Error()))
			}
			usages = append(usages, domain.ProviderUsage{Provider: p.Name(), Plan: "unknown"})
			continue
		}
		usages = append(usages, *u)
	}
	return usages, nil
}

func (s *PriceService) activeProvider() providerport.PriceProvider {
	for _, p := range s.providers {
		if p.IsConfigured() {
			return p
		}
	}
	return nil
}

func (s *PriceService) readCachedPrice(ctx context.Context, key string) *domain.SecurityPrice {
	payload, err := s.cache.Read(ctx, key)
	if err != nil {
		return nil
	}
	var price domain.SecurityPrice
	if err := json.Unmarshal(payload, &price); err != nil {
		_ = s.cache.Delete(ctx, key)
		return nil
	}
	return &price
}

func (s *PriceService) writeCachedPrice(ctx context.Context, key string, price *domain.SecurityPrice, ttl time.Duration) {
	payload, err := json.Marshal(price)
	if err != nil {
		return
	}
	if err := s.cache.Write(ctx, key, payload, ttl); err != nil {
		s.logger.Warn("price cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// normalizeSecurity uppercases the symbol and exchange and rejects empty or
// oversized symbols.
func normalizeSecurity(symbol, exchange string) (string, string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if symbol == "" || len(symbol) > 12 {
		return "", "", apperrors.NewValidationError("symbol must be 1-12 characters")
	}
	return symbol, exchange, nil
}

func sortPricesByDate(prices []domain.SecurityPrice) {
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].PriceDate.Before(prices[j].PriceDate)
	})
}
