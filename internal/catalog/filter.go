package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FilterSpec is a sparse set of independent, optional search criteria.
// All present criteria are ANDed; blank strings mean absent.
type FilterSpec struct {
	ReferenceCode string
	Brand         string
	Model         string
	Color         string
	Condition     string
	Bracelet      string

	// Year is the exact production year; when set it suppresses
	// YearFrom/YearTo even if those are also supplied.
	Year     *int
	YearFrom *int
	YearTo   *int

	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal
	Currency string

	// Text is a case-insensitive substring match against the searchable
	// blob. Info is a legacy alias sent by older clients; Text wins when
	// both are present.
	Text string
	Info string

	AsOfFrom *time.Time
	AsOfTo   *time.Time
}

// EffectiveText resolves the Text/Info alias pair.
func (f FilterSpec) EffectiveText() string {
	if strings.TrimSpace(f.Text) != "" {
		return strings.TrimSpace(f.Text)
	}
	return strings.TrimSpace(f.Info)
}

// HasBrand reports whether a non-blank brand criterion is present.
func (f FilterSpec) HasBrand() bool {
	return strings.TrimSpace(f.Brand) != ""
}

// HasModelOrReference reports whether the filter pins a catalog line.
func (f FilterSpec) HasModelOrReference() bool {
	return strings.TrimSpace(f.Model) != "" || strings.TrimSpace(f.ReferenceCode) != ""
}
