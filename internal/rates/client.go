package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	convertPath = "/convert"
	isoDate     = "2006-01-02"
)

// RateSource retrieves one currency conversion from the external
// rate-provider service.
type RateSource interface {
	FetchConversion(ctx context.Context, currency string, amount decimal.Decimal, date time.Time) (converted, rate decimal.Decimal, err error)
}

// ClientOptions parameterise the rate-provider client.
type ClientOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Client calls the rate-provider HTTP API.
type Client struct {
	opts   ClientOptions
	http   *resty.Client
	logger zerolog.Logger
}

// NewClient constructs a rate-provider client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "watch-catalog/1.0"
	}

	http := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &Client{
		opts:   opts,
		http:   http,
		logger: logger.With().Str("component", "rate_client").Logger(),
	}
}

type conversionResponse struct {
	Success bool `json:"success"`
	Info    *struct {
		Rate *float64 `json:"rate"`
	} `json:"info"`
	Result *float64 `json:"result"`
}

// FetchConversion asks the provider to convert amount from currency to
// USD at a historical date, returning both the converted amount and the
// unit rate used.
func (c *Client) FetchConversion(ctx context.Context, currency string, amount decimal.Decimal, date time.Time) (decimal.Decimal, decimal.Decimal, error) {
	if c.opts.BaseURL == "" {
		return decimal.Decimal{}, decimal.Decimal{}, errors.New("rate provider base url not configured")
	}

	var payload conversionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from":    currency,
			"to":      "USD",
			"amount":  amount.String(),
			"date":    date.Format(isoDate),
			"format":  "json",
			"api_key": c.opts.APIKey,
		}).
		SetResult(&payload).
		Get(convertPath)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("rate provider request: %w", err)
	}

	if resp.IsError() {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("rate provider status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	if !payload.Success || payload.Info == nil || payload.Info.Rate == nil || payload.Result == nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("rate provider returned no usable rate for %s on %s", currency, date.Format(isoDate))
	}

	return decimal.NewFromFloat(*payload.Result), decimal.NewFromFloat(*payload.Info.Rate), nil
}

var _ RateSource = (*Client)(nil)
