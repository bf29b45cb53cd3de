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

const openExchangeRatesBaseURL = "https://openexchangerates.org/api"

// OpenExchangeRatesProvider serves rates from openexchangerates.org. The
// free plan has single-date endpoints but no time-series endpoint, so the
// historical-range capability is off and the batch coalescer will not send
// range fetches here.
type OpenExchangeRatesProvider struct {
	baseURL string
	appID   string
	client  *http.Client
}

// NewOpenExchangeRatesProvider creates an OpenExchangeRatesProvider; an
// empty appID leaves it unconfigured.
func NewOpenExchangeRatesProvider(baseURL, appID string, timeout time.Duration) *OpenExchangeRatesProvider {
	if baseURL == "" {
		baseURL = openExchangeRatesBaseURL
	}
	return &OpenExchangeRatesProvider{
		baseURL: baseURL,
		appID:   appID,
		client:  newHTTPClient(timeout),
	}
}

func (p *OpenExchangeRatesProvider) Name() string { return "openexchangerates" }

func (p *OpenExchangeRatesProvider) IsConfigured() bool { return p.appID != "" }

func (p *OpenExchangeRatesProvider) SupportsHistoricalRange() bool { return false }

type oxrRatesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// FetchRate fetches one date via the historical endpoint (or latest for
// today). Cross rates are derived through the USD base the free plan pins.
func (p *OpenExchangeRatesProvider) FetchRate(ctx context.Context, from, to string, date time.Time) (*domain.ExchangeRate, error) {
	endpoint := fmt.Sprintf("historical/%s.json", date.Format(apiDateFormat))
	if isToday(date) {
		endpoint = "latest.json"
	}
	u := fmt.Sprintf("%s/%s?app_id=%s&symbols=%s,%s",
		p.baseURL, endpoint, url.QueryEscape(p.appID), url.QueryEscape(from), url.QueryEscape(to))

	var resp oxrRatesResponse
	if err := getJSON(ctx, p.client, u, &resp); err != nil {
		return nil, fmt.Errorf("openexchangerates: %w", err)
	}

	fromUSD, okFrom := resp.Rates[from]
	toUSD, okTo := resp.Rates[to]
	if !okFrom || !okTo || fromUSD == 0 {
		return nil, fmt.Errorf("openexchangerates: missing %s or %s in response", from, to)
	}
	rate := decimal.NewFromFloat(toUSD).Div(decimal.NewFromFloat(fromUSD))

	return &domain.ExchangeRate{
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Rate:             rate,
		RateDate:         date,
		Source:           p.Name(),
	}, nil
}

// FetchRateRange only serves single-day spans; the core checks the
// capability flag before issuing wider ranges.
func (p *OpenExchangeRatesProvider) FetchRateRange(ctx context.Context, from, to string, start, end time.Time) ([]domain.ExchangeRate, error) {
	if !start.Equal(end) {
		return nil, fmt.Errorf("openexchangerates: historical ranges are not available on this plan")
	}
	rate, err := p.FetchRate(ctx, from, to, start)
	if err != nil {
		return nil, err
	}
	return []domain.ExchangeRate{*rate}, nil
}

type oxrUsageResponse struct {
	Data struct {
		Plan struct {
			Name string `json:"name"`
		} `json:"plan"`
		Usage struct {
			Requests      int `json:"requests"`
			RequestsQuota int `json:"requests_quota"`
		} `json:"usage"`
	} `json:"data"`
}

// Usage reports request quota consumption from the usage endpoint.
func (p *OpenExchangeRatesProvider) Usage(ctx context.Context) (*domain.ProviderUsage, error) {
	u := fmt.Sprintf("%s/usage.json?app_id=%s", p.baseURL, url.QueryEscape(p.appID))

	var resp oxrUsageResponse
	if err := getJSON(ctx, p.client, u, &resp); err != nil {
		return nil, fmt.Errorf("openexchangerates: %w", err)
	}

	usage := &domain.ProviderUsage{
		Provider: p.Name(),
		Used:     resp.Data.Usage.Requests,
		Limit:    resp.Data.Usage.RequestsQuota,
		Plan:     resp.Data.Plan.Name,
	}
	if usage.Limit > 0 {
		usage.Utilization = float64(usage.Used) / float64(usage.Limit)
	}
	return usage, nil
}

func isToday(date time.Time) bool {
	y1, m1, d1 := date.UTC().Date()
	y2, m2, d2 := time.Now().UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

var _ providerport.RateProvider = (*OpenExchangeRatesProvider)(nil)
