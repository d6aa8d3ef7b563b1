package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"watch-catalog/internal/catalog"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 15
)

// SummarizeReference rolls up every snapshot of one reference at its
// latest as-of date. Returns nil when the reference has no snapshots at
// all; prices are normalized to USD without markup.
func (e *Engine) SummarizeReference(ctx context.Context, reference string) (*catalog.ReferenceSummary, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}

	anchor, ok, err := e.snapshots.LatestAsOfDateForReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", reference, err)
	}
	if !ok {
		return nil, nil
	}

	snaps, err := e.snapshots.ListByReferenceAt(ctx, reference, anchor)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", reference, err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}

	prices := e.normalizeAll(ctx, snaps)

	summary := catalog.ReferenceSummary{
		ReferenceCode: snaps[0].ReferenceCode,
		Brand:         snaps[0].Brand,
		MinPriceUSD:   prices[0],
		MaxPriceUSD:   prices[0],
		LastAsOfDate:  anchor,
	}

	var (
		sum        decimal.Decimal
		conditions = map[string]struct{}{}
		colors     = map[string]struct{}{}
		years      = map[int]struct{}{}
		currencies = map[string]struct{}{}
		extras     = map[string]struct{}{}
	)
	for i, s := range snaps {
		p := prices[i]
		sum = sum.Add(p)
		if p.LessThan(summary.MinPriceUSD) {
			summary.MinPriceUSD = p
		}
		if summary.MaxPriceUSD.LessThan(p) {
			summary.MaxPriceUSD = p
		}
		if s.CreatedAt.After(summary.LastCreatedAt) {
			summary.LastCreatedAt = s.CreatedAt
		}
		if s.Condition != "" {
			conditions[s.Condition] = struct{}{}
		}
		if s.Color != "" {
			colors[s.Color] = struct{}{}
		}
		if s.ProductionYear != nil {
			years[*s.ProductionYear] = struct{}{}
		}
		if s.Currency != "" {
			currencies[strings.ToUpper(s.Currency)] = struct{}{}
		}
		if s.CleanText != "" {
			extras[s.CleanText] = struct{}{}
		}
	}

	summary.AvgPriceUSD = sum.Div(decimal.NewFromInt(int64(len(snaps))))
	summary.Conditions = sortedKeys(conditions)
	summary.Colors = sortedKeys(colors)
	summary.Currencies = sortedKeys(currencies)
	summary.ExtraInfo = sortedKeys(extras)
	summary.Years = sortedInts(years)

	return &summary, nil
}

// BrandDashboard combines the all-time snapshot count for a brand with
// price figures from the latest ingestion date.
func (e *Engine) BrandDashboard(ctx context.Context, brand string) (*catalog.BrandDashboard, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, nil
	}
	f := catalog.FilterSpec{Brand: brand}

	total, err := e.snapshots.CountSnapshots(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("brand dashboard %s: %w", brand, err)
	}
	if total == 0 {
		return nil, nil
	}

	anchor, ok, err := e.snapshots.LatestAsOfDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("brand dashboard %s: %w", brand, err)
	}

	dash := catalog.BrandDashboard{Brand: brand, TotalSnapshots: total}
	if !ok {
		return &dash, nil
	}
	dash.LastAsOfDate = anchor

	snaps, err := e.snapshots.ListWindowSnapshots(ctx, f, anchor, anchor)
	if err != nil {
		return nil, fmt.Errorf("brand dashboard %s: %w", brand, err)
	}
	if len(snaps) == 0 {
		return &dash, nil
	}

	prices := e.normalizeAll(ctx, snaps)
	models := map[string]struct{}{}
	sum := decimal.Zero
	dash.MinUSD = prices[0]
	dash.MaxUSD = prices[0]
	for i, s := range snaps {
		models[s.Model] = struct{}{}
		sum = sum.Add(prices[i])
		if prices[i].LessThan(dash.MinUSD) {
			dash.MinUSD = prices[i]
		}
		if dash.MaxUSD.LessThan(prices[i]) {
			dash.MaxUSD = prices[i]
		}
	}
	dash.DistinctModels = int64(len(models))
	dash.AvgUSD = sum.Div(decimal.NewFromInt(int64(len(snaps))))

	return &dash, nil
}

// PriceHistory returns the normalized USD price series of one reference
// since a point in time, ordered oldest first.
func (e *Engine) PriceHistory(ctx context.Context, reference string, since time.Time) ([]catalog.PricePoint, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return []catalog.PricePoint{}, nil
	}

	snaps, err := e.snapshots.PriceHistory(ctx, reference, since)
	if err != nil {
		return nil, fmt.Errorf("price history %s: %w", reference, err)
	}

	prices := e.normalizeAll(ctx, snaps)
	points := make([]catalog.PricePoint, len(snaps))
	for i, s := range snaps {
		points[i] = catalog.PricePoint{Date: s.ConversionDate(), Price: prices[i]}
	}
	return points, nil
}

// SuggestReferences completes a reference-code prefix for typeahead use.
func (e *Engine) SuggestReferences(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	if limit > maxSuggestLimit {
		limit = maxSuggestLimit
	}

	refs, err := e.snapshots.SuggestReferences(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest references: %w", err)
	}
	if refs == nil {
		refs = []string{}
	}
	return refs, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedInts(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
