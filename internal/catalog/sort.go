package catalog

import "strings"

// SortKey enumerates the supported result orderings. Unknown values fall
// back to SortDateDesc.
type SortKey string

const (
	SortDateAsc   SortKey = "date_asc"
	SortDateDesc  SortKey = "date_desc"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortBrandAsc  SortKey = "brand_asc"
	SortBrandDesc SortKey = "brand_desc"
)

// ParseSortKey normalises a raw sort parameter.
func ParseSortKey(raw string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(raw))) {
	case SortDateAsc:
		return SortDateAsc
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortBrandAsc:
		return SortBrandAsc
	case SortBrandDesc:
		return SortBrandDesc
	default:
		return SortDateDesc
	}
}

func (k SortKey) orDefault() SortKey {
	if k == "" {
		return SortDateDesc
	}
	return ParseSortKey(string(k))
}
