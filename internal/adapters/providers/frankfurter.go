package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/finbeat/marketdata/internal/core/domain"
	providerport "github.com/finbeat/marketdata/internal/core/ports/providers"
	"github.com/shopspring/decimal"
)

const frankfurterBaseURL = "https://api.frankfurter.dev/v1"

// FrankfurterProvider serves ECB reference rates through the Frankfurter
// API. It needs no credentials and supports historical date ranges, which
// makes it the default head of the rate fallback chain.
type FrankfurterProvider struct {
	baseURL string
	enabled bool
	client  *http.Client
}

// NewFrankfurterProvider creates a FrankfurterProvider. baseURL may be empty
// (production endpoint); enabled=false removes it from the chain.
func NewFrankfurterProvider(baseURL string, enabled bool, timeout time.Duration) *FrankfurterProvider {
	if baseURL == "" {
		baseURL = frankfurterBaseURL
	}
	return &FrankfurterProvider{
		baseURL: baseURL,
		enabled: enabled,
		client:  newHTTPClient(timeout),
	}
}

func (p *FrankfurterProvider) Name() string { return "frankfurter" }

func (p *FrankfurterProvider) IsConfigured() bool { return p.enabled }

func (p *FrankfurterProvider) SupportsHistoricalRange() bool { return true }

type frankfurterSingleResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

type frankfurterRangeResponse struct {
	Base  string                        `json:"base"`
	Rates map[string]map[string]float64 `json:"rates"`
}

// FetchRate fetches the rate for one date. Frankfurter answers weekend and
// holiday dates with the preceding business day's rate under that day's key,
// so the caller's requested date always gets a value when the pair exists.
func (p *FrankfurterProvider) FetchRate(ctx context.Context, from, to string, date time.Time) (*domain.ExchangeRate, error) {
	u := fmt.Sprintf("%s/%s?base=%s&symbols=%s",
		p.baseURL, date.Format(apiDateFormat), url.QueryEscape(from), url.QueryEscape(to))

	var resp frankfurterSingleResponse
	if err := getJSON(ctx, p.client, u, &resp); err != nil {
		return nil, fmt.Errorf("frankfurter: %w", err)
	}
	value, ok := resp.Rates[to]
	if !ok {
		return nil, fmt.Errorf("frankfurter: no rate for %s in response", to)
	}

	return &domain.ExchangeRate{
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Rate:             decimal.NewFromFloat(value),
		RateDate:         date,
		Source:           p.Name(),
	}, nil
}

// FetchRateRange fetches every available business day in [start, end].
func (p *FrankfurterProvider) FetchRateRange(ctx context.Context, from, to string, start, end time.Time) ([]domain.ExchangeRate, error) {
	u := fmt.Sprintf("%s/%s..%s?base=%s&symbols=%s",
		p.baseURL, start.Format(apiDateFormat), end.Format(apiDateFormat),
		url.QueryEscape(from), url.QueryEscape(to))

	var resp frankfurterRangeResponse
	if err := getJSON(ctx, p.client, u, &resp); err != nil {
		return nil, fmt.Errorf("frankfurter: %w", err)
	}

	rates := make([]domain.ExchangeRate, 0, len(resp.Rates))
	for day, byCurrency := range resp.Rates {
		value, ok := byCurrency[to]
		if !ok {
			continue
		}
		d, err := time.Parse(apiDateFormat, day)
		if err != nil {
			continue
		}
		rates = append(rates, domain.ExchangeRate{
			FromCurrencyCode: from,
			ToCurrencyCode:   to,
			Rate:             decimal.NewFromFloat(value),
			RateDate:         d,
			Source:           p.Name(),
		})
	}
	return rates, nil
}

// Usage reports a zeroed placeholder; Frankfurter has no usage endpoint.
func (p *FrankfurterProvider) Usage(ctx context.Context) (*domain.ProviderUsage, error) {
	return &domain.ProviderUsage{Provider: p.Name(), Plan: "free"}, nil
}

var _ providerport.RateProvider = (*FrankfurterProvider)(nil)
