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

const twelveDataBaseURL = "https://api.twelvedata.com"

// TwelveDataProvider serves security prices from the Twelve Data time_series
// endpoint. It carries the exchange hint through to the API, which Alpha
// Vantage cannot, so it backs up the chain for non-US listings.
type TwelveDataProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewTwelveDataProvider creates a TwelveDataProvider; an empty apiKey leaves
// it unconfigured.
func NewTwelveDataProvider(baseURL, apiKey string, timeout time.Duration) *TwelveDataProvider {
	if baseURL == "" {
		baseURL = twelveDataBaseURL
	}
	return &TwelveDataProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
	}
}

func (p *TwelveDataProvider) Name() string { return "twelvedata" }

func (p *TwelveDataProvider) IsConfigured() bool { return p.apiKey != "" }

func (p *TwelveDataProvider) SupportsHistoricalRange() bool { return true }

type twelveDataSeriesResponse struct {
	Meta struct {
		Currency string `json:"currency"`
		Exchange string `json:"exchange"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (p *TwelveDataProvider) fetchSeries(ctx context.Context, symbol, exchange string, start, end time.Time) (*twelveDataSeriesResponse, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1day")
	q.Set("start_date", start.Format(apiDateFormat))
	q.Set("end_date", end.Format(apiDateFormat))
	q.Set("apikey", p.apiKey)
	if exchange != "" {
		q.Set("exchange", exchange)
	}

	var resp twelveDataSeriesResponse
	if err := getJSON(ctx, p.client, p.baseURL+"/time_series?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("twelvedata: %w", err)
	}
	if resp.Status != "" && resp.Status != "ok" {
		return nil, fmt.Errorf("twelvedata: %s", resp.Message)
	}
	return &resp, nil
}

// FetchPrice fetches the closing price of one security on one date.
func (p *TwelveDataProvider) FetchPrice(ctx context.Context, symbol, exchange string, date time.Time) (*domain.SecurityPrice, error) {
	prices, err := p.FetchPriceRange(ctx, symbol, exchange, date, date)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("twelvedata: no price for %s on %s", symbol, date.Format(apiDateFormat))
	}
	return &prices[0], nil
}

// FetchPriceRange fetches closing prices for every session in [start, end].
func (p *TwelveDataProvider) FetchPriceRange(ctx context.Context, symbol, exchange string, start, end time.Time) ([]domain.SecurityPrice, error) {
	resp, err := p.fetchSeries(ctx, symbol, exchange, start, end)
	if err != nil {
		return nil, err
	}

	currency := resp.Meta.Currency
	if currency == "" {
		currency = "USD"
	}

	var prices []domain.SecurityPrice
	for _, v := range resp.Values {
		d, err := time.Parse(apiDateFormat, v.Datetime)
		if err != nil {
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
			Currency:  currency,
			PriceDate: d,
			Source:    p.Name(),
		})
	}
	return prices, nil
}

type twelveDataUsageResponse struct {
	CurrentUsage int `json:"current_usage"`
	PlanLimit    int `json:"plan_limit"`
}

// Usage reports daily API credit consumption.
func (p *TwelveDataProvider) Usage(ctx context.Context) (*domain.ProviderUsage, error) {
	u := fmt.Sprintf("%s/api_usage?apikey=%s", p.baseURL, url.QueryEscape(p.apiKey))

	var resp twelveDataUsageResponse
	if err := getJSON(ctx, p.client, u, &resp); err != nil {
		return nil, fmt.Errorf("twelvedata: %w", err)
	}

	usage := &domain.ProviderUsage{
		Provider: p.Name(),
		Used:     resp.CurrentUsage,
		Limit:    resp.PlanLimit,
		Plan:     "basic",
	}
	if usage.Limit > 0 {
		usage.Utilization = float64(usage.Used) / float64(usage.Limit)
	}
	return usage, nil
}

var _ providerport.PriceProvider = (*TwelveDataProvider)(nil)
