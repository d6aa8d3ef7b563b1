package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AvgMode selects how a group of prices is averaged: the whole group, or
// one tercile of the ascending-sorted values.
type AvgMode string

const (
	AvgAll  AvgMode = "all"
	AvgLow  AvgMode = "low"
	AvgMid  AvgMode = "mid"
	AvgHigh AvgMode = "high"
)

// ParseAvgMode maps a raw parameter to a mode, defaulting to AvgAll.
func ParseAvgMode(raw string) AvgMode {
	switch AvgMode(strings.ToLower(strings.TrimSpace(raw))) {
	case AvgLow:
		return AvgLow
	case AvgMid:
		return AvgMid
	case AvgHigh:
		return AvgHigh
	default:
		return AvgAll
	}
}

// Average computes the mode's average over values sorted ascending.
// Tercile size is t = max(1, n/3): LOW averages [0,t), HIGH averages
// [n-t,n), MID averages the band between them and falls back to the full
// mean when that band is empty (n < 3). Returns zero for an empty input.
func Average(sorted []decimal.Decimal, mode AvgMode) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}

	if mode == AvgAll {
		return mean(sorted)
	}

	t := n / 3
	if t < 1 {
		t = 1
	}

	switch mode {
	case AvgLow:
		return mean(sorted[:t])
	case AvgHigh:
		return mean(sorted[n-t:])
	case AvgMid:
		hi := 2 * t
		if hi > n-t {
			hi = n - t
		}
		if hi <= t {
			return mean(sorted)
		}
		return mean(sorted[t:hi])
	default:
		return mean(sorted)
	}
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}
