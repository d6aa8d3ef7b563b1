package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"watch-catalog/internal/catalog"
)

// WindowAverage aggregates matching snapshots over a trailing window
// ending at the relevant anchor date, producing one synthetic row per
// catalog line with a tercile-aware average in USD.
//
// A request that pins a catalog line (reference or model) anchors on
// the latest date among its own matching rows; a brand-only request
// anchors on the latest ingestion date. When no anchor exists the
// result is an empty page, not an error.
func (e *Engine) WindowAverage(ctx context.Context, f catalog.FilterSpec, window catalog.Window, mode catalog.AvgMode, req catalog.PageRequest) (catalog.PageResult[catalog.AggregateRow], error) {
	if !f.HasBrand() && !f.HasModelOrReference() {
		return catalog.PageResult[catalog.AggregateRow]{}, ErrMissingBrandOrModel
	}
	req = req.Clamp()

	anchor, ok, err := e.anchorDate(ctx, f)
	if err != nil {
		return catalog.PageResult[catalog.AggregateRow]{}, fmt.Errorf("window average: %w", err)
	}
	if !ok {
		return catalog.NewPageResult[catalog.AggregateRow](nil, 0, req.Page, req.Size), nil
	}

	from, to := window.Range(anchor)
	snaps, err := e.snapshots.ListWindowSnapshots(ctx, f, from, to)
	if err != nil {
		return catalog.PageResult[catalog.AggregateRow]{}, fmt.Errorf("window average: %w", err)
	}

	markup, err := e.markupMultiplier(ctx)
	if err != nil {
		return catalog.PageResult[catalog.AggregateRow]{}, fmt.Errorf("window average: %w", err)
	}

	prices := e.normalizeAll(ctx, snaps)

	groups := make(map[string][]int)
	order := make([]string, 0)
	for i, s := range snaps {
		key := s.GroupKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	rows := make([]catalog.AggregateRow, 0, len(order))
	for _, key := range order {
		idxs := groups[key]
		groupPrices := make([]decimal.Decimal, 0, len(idxs))
		row := catalog.AggregateRow{Currency: "USD", Count: len(idxs)}
		for _, i := range idxs {
			s := snaps[i]
			groupPrices = append(groupPrices, prices[i])
			if row.ReferenceCode == "" {
				row.ReferenceCode = s.ReferenceCode
			}
			if row.Brand == "" {
				row.Brand = s.Brand
			}
			if row.Model == "" {
				row.Model = s.Model
			}
			if s.AsOfDate.After(row.AsOfDate) {
				row.AsOfDate = s.AsOfDate
			}
			if s.CreatedAt.After(row.CreatedAt) {
				row.CreatedAt = s.CreatedAt
			}
		}
		sort.Slice(groupPrices, func(a, b int) bool { return groupPrices[a].LessThan(groupPrices[b]) })
		row.AvgUSD = catalog.Average(groupPrices, mode).Mul(markup)
		rows = append(rows, row)
	}

	sortAggregateRows(rows, req.Sort)
	return catalog.PaginateSlice(rows, req), nil
}

func (e *Engine) anchorDate(ctx context.Context, f catalog.FilterSpec) (time.Time, bool, error) {
	if f.HasModelOrReference() {
		return e.snapshots.LatestAsOfDateMatching(ctx, f)
	}
	return e.snapshots.LatestAsOfDate(ctx)
}

// sortAggregateRows orders synthetic rows in memory with the same keys
// the store applies to raw snapshots: the catalog line identity is the
// tie-break and follows the sort direction, mirroring the id tie-break
// of the SQL orderings.
func sortAggregateRows(rows []catalog.AggregateRow, key catalog.SortKey) {
	identity := func(r catalog.AggregateRow) string {
		if r.ReferenceCode != "" {
			return r.ReferenceCode
		}
		return r.Brand + "|" + r.Model
	}

	descending := key == catalog.SortPriceDesc || key == catalog.SortBrandDesc ||
		!(key == catalog.SortPriceAsc || key == catalog.SortBrandAsc || key == catalog.SortDateAsc)

	sort.SliceStable(rows, func(a, b int) bool {
		x, y := rows[a], rows[b]
		switch key {
		case catalog.SortPriceAsc:
			if !x.AvgUSD.Equal(y.AvgUSD) {
				return x.AvgUSD.LessThan(y.AvgUSD)
			}
		case catalog.SortPriceDesc:
			if !x.AvgUSD.Equal(y.AvgUSD) {
				return y.AvgUSD.LessThan(x.AvgUSD)
			}
		case catalog.SortBrandAsc:
			if x.Brand != y.Brand {
				return x.Brand < y.Brand
			}
			if x.Model != y.Model {
				return x.Model < y.Model
			}
		case catalog.SortBrandDesc:
			if x.Brand != y.Brand {
				return x.Brand > y.Brand
			}
			if x.Model != y.Model {
				return x.Model > y.Model
			}
		case catalog.SortDateAsc:
			if !x.CreatedAt.Equal(y.CreatedAt) {
				return x.CreatedAt.Before(y.CreatedAt)
			}
		default:
			if !x.CreatedAt.Equal(y.CreatedAt) {
				return y.CreatedAt.Before(x.CreatedAt)
			}
		}
		if descending {
			return identity(y) < identity(x)
		}
		return identity(x) < identity(y)
	})
}
