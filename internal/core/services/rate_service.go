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

// ManualSource marks records entered through the API rather than fetched
// from a provider.
const ManualSource = "manual"

const defaultHistoryLimit = 20
const maxHistoryLimit = 100

// RateService resolves exchange rates through the three tiers: ephemeral
// cache, durable store, then the first configured provider in the chain.
type RateService struct {
	rateRepo  portsrepo.ExchangeRateRepository
	cache     cacheport.Store
	providers []providerport.RateProvider
	logger    *slog.Logger
	now       func() time.Time
}

// RateServiceOption customizes a RateService.
type RateServiceOption func(*RateService)

// WithRateClock overrides the service clock, used by tests to pin "today".
func WithRateClock(now func() time.Time) RateServiceOption {
	return func(s *RateService) {
		s.now = now
	}
}

// NewRateService creates a new RateService. The provider slice is the
// fallback chain in priority order; it may be empty (degraded mode).
func NewRateService(rateRepo portsrepo.ExchangeRateRepository, cache cacheport.Store, providers []providerport.RateProvider, logger *slog.Logger, opts ...RateServiceOption) *RateService {
	s := &RateService{
		rateRepo:  rateRepo,
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

// ResolveRate answers one (from, to, date) lookup. Same-currency pairs are a
// degenerate case answered as 1.0 without touching any tier. Every failure
// below the validation layer collapses to ErrNotFound.
func (s *RateService) ResolveRate(ctx context.Context, from, to string, date time.Time, useCache bool) (*domain.ExchangeRate, error) {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return nil, err
	}
	date = DateOnly(date)

	if from == to {
		rate := domain.IdentityRate(from, date)
		return &rate, nil
	}

	key := RateKey(from, to, date)
	if useCache {
		if cached := s.readCachedRate(ctx, key); cached != nil {
			return cached, nil
		}
	}

	stored, err := s.rateRepo.FindExchangeRate(ctx, from, to, date)
	if err == nil {
		if useCache {
			s.writeCachedRate(ctx, key, stored, RateTTLFor(date, s.now()))
		}
		return stored, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("rate store lookup failed, treating as miss",
			slog.String("from", from), slog.String("to", to), slog.String("error", err.Error()))
	}

	provider := s.activeProvider()
	if provider == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no exchange rate for %s/%s and no provider configured", from, to))
	}

	fetched, err := provider.FetchRate(ctx, from, to, date)
	if err != nil || fetched == nil {
		if err != nil {
			s.logger.Warn("rate provider fetch failed",
				slog.String("provider", provider.Name()),
				slog.String("from", from), slog.String("to", to),
				slog.String("error", err.Error()))
		}
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no exchange rate for %s/%s on %s", from, to, date.Format(keyDateFormat)))
	}

	saved := s.persistRate(ctx, provider.Name(), *fetched, from, to, date)
	if saved == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no exchange rate for %s/%s on %s", from, to, date.Format(keyDateFormat)))
	}
	if useCache {
		s.writeCachedRate(ctx, key, saved, RateTTLFor(date, s.now()))
	}
	return saved, nil
}

// ResolveRateRange answers a set of dates for one pair with at most one
// provider range fetch covering the missing span. Output is ascending by
// date; dates no tier could satisfy are absent, not errors.
func (s *RateService) ResolveRateRange(ctx context.Context, from, to string, dates []time.Time, useCache bool) ([]domain.ExchangeRate, error) {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return nil, err
	}
	requested := uniqueDates(dates)
	if len(requested) == 0 {
		return nil, nil
	}

	if from == to {
		out := make([]domain.ExchangeRate, 0, len(requested))
		for d := range requested {
			out = append(out, domain.IdentityRate(from, d))
		}
		sortRatesByDate(out)
		return out, nil
	}

	today := s.now()
	resolved := make(map[time.Time]domain.ExchangeRate, len(requested))
	var missing []time.Time

	for d := range requested {
		key := RateKey(from, to, d)
		if useCache {
			if cached := s.readCachedRate(ctx, key); cached != nil {
				resolved[d] = *cached
				continue
			}
		}
		stored, err := s.rateRepo.FindExchangeRate(ctx, from, to, d)
		if err == nil {
			if useCache {
				s.writeCachedRate(ctx, key, stored, RateTTLFor(d, today))
			}
			resolved[d] = *stored
			continue
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("rate store lookup failed, treating as miss",
				slog.String("from", from), slog.String("to", to), slog.String("error", err.Error()))
		}
		missing = append(missing, d)
	}

	if len(missing) > 0 {
		s.fetchMissingRates(ctx, from, to, missing, requested, resolved, useCache, today)
	}

	out := make([]domain.ExchangeRate, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, r)
	}
	sortRatesByDate(out)
	return out, nil
}

// fetchMissingRates issues the single range fetch of the batch coalescer and
// folds matching results into resolved. Rows for dates nobody asked about
// are persisted and cached anyway (opportunistic backfill) but stay out of
// the output.
func (s *RateService) fetchMissingRates(ctx context.Context, from, to string, missing []time.Time, requested map[time.Time]struct{}, resolved map[time.Time]domain.ExchangeRate, useCache bool, today time.Time) {
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

	rows, err := provider.FetchRateRange(ctx, from, to, start, end)
	if err != nil {
		s.logger.Warn("rate provider range fetch failed",
			slog.String("provider", provider.Name()),
			slog.String("from", from), slog.String("to", to),
			slog.String("error", err.Error()))
		return
	}

	for i := range rows {
		row := rows[i]
		if !strings.EqualFold(row.FromCurrencyCode, from) || !strings.EqualFold(row.ToCurrencyCode, to) {
			continue
		}
		d := DateOnly(row.RateDate)
		saved := s.persistRate(ctx, provider.Name(), row, from, to, d)
		if saved == nil {
			continue
		}
		if useCache {
			s.writeCachedRate(ctx, RateKey(from, to, d), saved, RateTTLFor(d, today))
		}
		if _, ok := requested[d]; ok {
			resolved[d] = *saved
		}
	}
}

// persistRate normalizes a provider row onto the requested identity and
// upserts it. Returns nil when persistence fails; the caller treats that as
// a miss for the affected date.
func (s *RateService) persistRate(ctx context.Context, providerName string, row domain.ExchangeRate, from, to string, date time.Time) *domain.ExchangeRate {
	row.FromCurrencyCode = from
	row.ToCurrencyCode = to
	row.RateDate = date
	if row.ExchangeRateID == "" {
		row.ExchangeRateID = uuid.NewString()
	}
	if row.Source == "" {
		row.Source = providerName
	}
	row.CreatedAt = s.now()

	saved, err := s.rateRepo.FindOrCreateExchangeRate(ctx, row)
	if err != nil {
		s.logger.Error("failed to persist fetched exchange rate",
			slog.String("from", from), slog.String("to", to),
			slog.Time("date", date), slog.String("error", err.Error()))
		return nil
	}
	return saved
}

// CreateExchangeRate inserts a manually sourced rate and drops the matching
// ephemeral entry so the next read reflects it.
func (s *RateService) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest) (*domain.ExchangeRate, error) {
	from, to, err := normalizePair(req.FromCurrencyCode, req.ToCurrencyCode)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, apperrors.NewValidationError("from and to currency codes cannot be the same")
	}
	if req.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidationError("exchange rate must be positive")
	}
	date := DateOnly(req.RateDate)

	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Rate:             req.Rate,
		RateDate:         date,
		Source:           ManualSource,
		CreatedAt:        s.now(),
	}
	saved, err := s.rateRepo.FindOrCreateExchangeRate(ctx, rate)
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange rate: %w", err)
	}
	if err := s.InvalidateRate(ctx, from, to, date); err != nil {
		s.logger.Warn("failed to invalidate rate cache entry", slog.String("error", err.Error()))
	}
	return saved, nil
}

// ListRateHistory pages through stored rates for a pair, newest first, using
// a date-based cursor token.
func (s *RateService) ListRateHistory(ctx context.Context, from, to string, nextToken string, limit int) ([]domain.ExchangeRate, string, error) {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	// Default cursor sits just past today so today's row is included.
	before := DateOnly(s.now()).AddDate(0, 0, 1)
	if nextToken != "" {
		before, err = pagination.DecodeDateBasedToken(nextToken)
		if err != nil {
			return nil, "", apperrors.NewValidationError("invalid pagination token")
		}
	}

	rates, err := s.rateRepo.ListExchangeRatesBefore(ctx, from, to, before, limit)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list exchange rates: %w", err)
	}
	token := ""
	if len(rates) == limit {
		token = pagination.EncodeDateBasedToken(rates[len(rates)-1].RateDate)
	}
	return rates, token, nil
}

// InvalidateRate removes one ephemeral entry; the durable row is untouched.
func (s *RateService) InvalidateRate(ctx context.Context, from, to string, date time.Time) error {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, RateKey(from, to, DateOnly(date)))
}

// InvalidateRatesForPair removes every ephemeral entry for one currency pair
// across all dates via prefix deletion.
func (s *RateService) InvalidateRatesForPair(ctx context.Context, from, to string) (int64, error) {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return 0, err
	}
	return s.cache.DeleteByPrefix(ctx, RatePairPrefix(from, to))
}

// InvalidateAllRates removes every ephemeral rate entry via prefix deletion.
func (s *RateService) InvalidateAllRates(ctx context.Context) (int64, error) {
	return s.cache.DeleteByPrefix(ctx, RateKeyPrefix)
}

// CacheStats reports tier counts and configured provider names for rates.
func (s *RateService) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	cached, err := s.cache.CountByPrefix(ctx, RateKeyPrefix)
	if err != nil {
		s.logger.Warn("failed to count cached rate entries", slog.String("error", err.Error()))
		cached = 0
	}
	stored, err := s.rateRepo.CountExchangeRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored exchange rates: %w", err)
	}
	return &domain.CacheStats{
		Concept:       "rates",
		CachedEntries: cached,
		StoredRecords: stored,
		Providers:     s.configuredProviderNames(),
	}, nil
}

// ProviderUsage reports quota usage for every configured rate provider.
// Adapters without a usage endpoint contribute a zeroed placeholder.
func (s *RateService) ProviderUsage(ctx context.Context) ([]domain.ProviderUsage, error) {
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

// activeProvider returns the first configured adapter of the chain, or nil.
func (s *RateService) activeProvider() providerport.RateProvider {
	for _, p := range s.providers {
		if p.IsConfigured() {
			return p
		}
	}
	return nil
}

func (s *RateService) configuredProviderNames() []string {
	names := []string{}
	for _, p := range s.providers {
		if p.IsConfigured() {
			names = append(names, p.Name())
		}
	}
	return names
}

func (s *RateService) readCachedRate(ctx context.Context, key string) *domain.ExchangeRate {
	payload, err := s.cache.Read(ctx, key)
	if err != nil {
		return nil
	}
	var rate domain.ExchangeRate
	if err := json.Unmarshal(payload, &rate); err != nil {
		// Corrupt entries are dropped, not surfaced.
		_ = s.cache.Delete(ctx, key)
		return nil
	}
	return &rate
}

func (s *RateService) writeCachedRate(ctx context.Context, key string, rate *domain.ExchangeRate, ttl time.Duration) {
	payload, err := json.Marshal(rate)
	if err != nil {
		return
	}
	if err := s.cache.Write(ctx, key, payload, ttl); err != nil {
		s.logger.Warn("rate cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// normalizePair uppercases both ISO codes and rejects malformed ones.
func normalizePair(from, to string) (string, string, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if len(from) != 3 || len(to) != 3 {
		return "", "", apperrors.NewValidationError("currency codes must be 3 letters")
	}
	return from, to, nil
}

func uniqueDates(dates []time.Time) map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		set[DateOnly(d)] = struct{}{}
	}
	return set
}

func dateSpan(dates []time.Time) (time.Time, time.Time) {
	start, end := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	return start, end
}

func sortRatesByDate(rates []domain.ExchangeRate) {
	sort.Slice(rates, func(i, j int) bool {
		return rates[i].RateDate.Before(rates[j].RateDate)
	})
}
