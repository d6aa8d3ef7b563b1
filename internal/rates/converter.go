package rates

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CurrencyConverter normalizes amounts to the reference currency. It
// never fails: conversion trouble degrades to the unconverted amount.
type CurrencyConverter interface {
	ToUSD(ctx context.Context, currency string, amount decimal.Decimal, date time.Time) decimal.Decimal
}

// Converter backs currency normalization with a rate source and a
// process-local TTL cache.
type Converter struct {
	source RateSource
	cache  *Cache
	logger zerolog.Logger
}

// NewConverter wires a rate source and cache into a Converter.
func NewConverter(source RateSource, cache *Cache, logger zerolog.Logger) *Converter {
	if cache == nil {
		cache = NewCache(DefaultTTL)
	}
	return &Converter{
		source: source,
		cache:  cache,
		logger: logger.With().Str("component", "currency_converter").Logger(),
	}
}

// ToUSD converts amount from currency to USD at a historical date. USD
// and USDT amounts pass through untouched with no external call. Any
// provider failure is logged and the original amount returned; a failed
// conversion must never fail the surrounding request.
func (c *Converter) ToUSD(ctx context.Context, currency string, amount decimal.Decimal, date time.Time) decimal.Decimal {
	code := normalizeCurrency(currency)
	if code == "USD" || code == "USDT" {
		return amount
	}

	key := code + "|" + date.Format(isoDate)
	if rate, ok := c.cache.Get(key); ok {
		return amount.Mul(rate)
	}

	converted, rate, err := c.source.FetchConversion(ctx, code, amount, date)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("currency", code).
			Str("date", date.Format(isoDate)).
			Msg("conversion failed, returning unconverted amount")
		return amount
	}

	c.cache.Put(key, rate)
	return converted
}

// normalizeCurrency uppercases the code. The bare "hk" code appears in
// some ingested feeds and means Hong Kong dollars.
func normalizeCurrency(currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "HK" {
		return "HKD"
	}
	return code
}

var _ CurrencyConverter = (*Converter)(nil)
