package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"watch-catalog/internal/catalog"
	"watch-catalog/internal/rates"
	"watch-catalog/internal/storage"
)

// conversionWorkers bounds the per-request currency conversion fan-out.
// Most conversions hit the rate cache; the bound only matters on a cold
// cache with many distinct (currency, date) pairs.
const conversionWorkers = 16

// ErrMissingBrandOrModel rejects windowed aggregation requests that
// would otherwise average the entire catalog into one meaningless row.
var ErrMissingBrandOrModel = errors.New("engine: aggregation requires a brand, model or reference filter")

// Engine answers catalog queries. It owns no state beyond its
// collaborators and is safe for concurrent use.
type Engine struct {
	snapshots storage.SnapshotStore
	config    storage.ConfigStore
	converter rates.CurrencyConverter
	logger    zerolog.Logger
}

// New wires the store, config source and currency converter into an Engine.
func New(snapshots storage.SnapshotStore, config storage.ConfigStore, converter rates.CurrencyConverter, logger zerolog.Logger) *Engine {
	return &Engine{
		snapshots: snapshots,
		config:    config,
		converter: converter,
		logger:    logger.With().Str("component", "engine").Logger(),
	}
}

// Search returns one page of snapshots matching the filter, with final
// amounts normalized to USD and the configured markup applied. Count and
// items are fetched concurrently over the same predicate set.
func (e *Engine) Search(ctx context.Context, f catalog.FilterSpec, req catalog.PageRequest) (catalog.PageResult[catalog.Snapshot], error) {
	req = req.Clamp()

	var (
		items  []catalog.Snapshot
		total  int64
		markup decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = e.snapshots.SearchSnapshots(gctx, f, req.Sort, req.Size, req.Offset())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = e.snapshots.CountSnapshots(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		markup, err = e.markupMultiplier(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return catalog.PageResult[catalog.Snapshot]{}, fmt.Errorf("search: %w", err)
	}

	ng, nctx := errgroup.WithContext(ctx)
	ng.SetLimit(conversionWorkers)
	for i := range items {
		i := i
		ng.Go(func() error {
			s := items[i]
			items[i].FinalAmount = e.converter.ToUSD(nctx, s.Currency, s.FinalAmount, s.ConversionDate()).Mul(markup)
			items[i].Amount = e.converter.ToUSD(nctx, s.Currency, s.Amount, s.ConversionDate())
			// Discount is the source listing's figure and is not converted.
			items[i].Currency = "USD"
			return nil
		})
	}
	_ = ng.Wait()

	return catalog.NewPageResult(items, total, req.Page, req.Size), nil
}

// markupMultiplier resolves the configured markup percentage into a
// multiplier. A missing or unparsable value means no markup; a storage
// failure is a real error.
func (e *Engine) markupMultiplier(ctx context.Context) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)

	raw, ok, err := e.config.MarkupValue(ctx)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("markup lookup: %w", err)
	}
	if !ok {
		return one, nil
	}

	pct, parseErr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if parseErr != nil {
		e.logger.Warn().Str("value", raw).Msg("unparsable markup percentage, applying none")
		return one, nil
	}

	return one.Add(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100))), nil
}

// normalizeAll converts every snapshot's final amount to USD with a
// bounded fan-out. Conversion never fails, so neither does this.
func (e *Engine) normalizeAll(ctx context.Context, snaps []catalog.Snapshot) []decimal.Decimal {
	out := make([]decimal.Decimal, len(snaps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conversionWorkers)
	for i, s := range snaps {
		i, s := i, s
		g.Go(func() error {
			out[i] = e.converter.ToUSD(gctx, s.Currency, s.FinalAmount, s.ConversionDate())
			return nil
		})
	}
	_ = g.Wait()
	return out
}
