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

const alphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageProvider serves equity closing prices from the Alpha Vantage
// daily time series. One series call covers any historical range, so both
// single and range fetches map onto the same endpoint.
type AlphaVantageProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAlphaVantageProvider creates an AlphaVantageProvider; an empty apiKey
// leaves it unconfigured.
func NewAlphaVantageProvider(baseURL, apiKey string, timeout time.Duration) *AlphaVantageProvider {
	if baseURL == "" {
		baseURL = alphaVantageBaseURL
	}
	return &AlphaVantageProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
	}
}

func (p *AlphaVantageProvider) Name() string { return "alphavantage" }

func (p *AlphaVantageProvider) IsConfigured() bool { return p.apiKey != "" }

func (p *AlphaVantageProvider) SupportsHistoricalRange() bool { return true }

type alphaVantageDailyResponse struct {
	Series map[string]struct {
		Close string `json:"4. close"`
	} `json:"Time Series (Daily)"`
	Note  string `json:"Note"`
	Error string `json:"Error Message"`
}

func (p *AlphaVantageProvider) fetchSeries(ctx context.Context, symbol string, full bool) (*alphaVantageDailyResponse, error) {
	size := "compact"
	if full {
		size = "full"
	}
	u := fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&outputsize=%s&apikey=%s",
		p.baseURL, url.QueryEscape(symbol), size, url.QueryEscape(p.apiKey))

	var resp alphaVantageDailyResponse
	if err := getJSON(ctx, p.client, u, &resp); err != nil {
		return nil, fmt.Errorf("alphavantage: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("alphavantage: %s", resp.Error)
	}
	// A Note without data means the minute quota is exhausted.
	if len(resp.Series) == 0 {
		if resp.Note != "" {
			return nil, fmt.Errorf("alphavantage: rate limited: %s", resp.Note)
		}
		return nil, fmt.Errorf("alphavantage: empty series for %s", symbol)
	}
	return &resp, nil
}

// FetchPrice fetches the closing price of one security on one date.
func (p *AlphaVantageProvider) FetchPrice(ctx context.Context, symbol, exchange string, date time.Time) (*domain.SecurityPrice, error) {
	// Compact covers ~100 sessions; older dates need the full series.
	full := time.Since(date) > 120*24*time.Hour
	resp, err := p.fetchSeries(ctx, symbol, full)
	if err != nil {
		return nil, err
	}

	day, ok := resp.Series[date.Format(apiDateFormat)]
	if !ok {
		return nil, fmt.Errorf("alphavantage: no price for %s on %s", symbol, date.Format(apiDateFormat))
	}
	close, err := decimal.NewFromString(day.Close)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: bad close %q: %w", day.Close, err)
	}

	return &domain.SecurityPrice{
		Symbol:    symbol,
		Exchange:  exchange,
		Price:     close,
		Currency:  "USD", // the daily series quotes US listings in USD
		PriceDate: date,
		Source:    p.Name(),
	}, nil
}

// FetchPriceRange fetches closing prices for every session in [start, end].
func (p *AlphaVantageProvider) FetchPriceRange(ctx context.Context, symbol, exchange string, start, end time.Time) ([]domain.SecurityPrice, error) {
	full := time.Since(start) > 120*24*time.Hour
	resp, err := p.fetchSeries(ctx, symbol, full)
	if err != nil {
		return nil, err
	}

	var prices []domain.SecurityPrice
	for day, v := range resp.Series {
		d, err := time.Parse(apiDateFormat, day)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		close, err := decimal.NewFromString(v.Close)
		if err != nil {
			continue
		}
		prices = append(prices, domain.SecurityPrice{
			Symbol:    symbol,
			Exchange:  exchange,
			Price:     close,
			Currency:  "USD",
			PriceDate: d,
			Source:    p.Name(),
		})
	}
	return prices, nil
}

// Usage reports a zeroed placeholder; Alpha Vantage has no usage endpoint.
func (p *AlphaVantageProvider) Usage(ctx context.Context) (*domain.ProviderUsage, error) {
	return &domain.ProviderUsage{Provider: p.Name(), Plan: "free"}, nil
}

var _ providerport.PriceProvider = (*AlphaVantageProvider)(nil)
