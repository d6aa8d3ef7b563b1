package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"watch-catalog/internal/catalog"
)

// FacetCounts holds the distinct-value tallies for each drill-down
// dimension of a result set.
type FacetCounts struct {
	Brands     map[string]int64 `json:"brands"`
	Colors     map[string]int64 `json:"colors"`
	Conditions map[string]int64 `json:"conditions"`
	Bracelets  map[string]int64 `json:"bracelets"`
	Years      map[int]int64    `json:"years"`
}

// Facets counts the matching rows per facet value, one concurrent query
// per dimension over the shared predicate set.
func (e *Engine) Facets(ctx context.Context, f catalog.FilterSpec) (FacetCounts, error) {
	var out FacetCounts

	g, gctx := errgroup.WithContext(ctx)
	for _, dim := range []struct {
		name string
		dst  *map[string]int64
	}{
		{"brand", &out.Brands},
		{"color", &out.Colors},
		{"condition", &out.Conditions},
		{"bracelet", &out.Bracelets},
	} {
		dim := dim
		g.Go(func() error {
			counts, err := e.snapshots.FacetCounts(gctx, f, dim.name)
			if err != nil {
				return fmt.Errorf("%s facet: %w", dim.name, err)
			}
			*dim.dst = counts
			return nil
		})
	}
	g.Go(func() error {
		counts, err := e.snapshots.YearFacetCounts(gctx, f)
		if err != nil {
			return fmt.Errorf("year facet: %w", err)
		}
		out.Years = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return FacetCounts{}, err
	}
	return out, nil
}
