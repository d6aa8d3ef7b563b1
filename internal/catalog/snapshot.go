package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is one ingested pricing record for a catalog item as of a
// business date. Snapshots are immutable; the engine only reads them.
type Snapshot struct {
	ID             int64
	ReferenceCode  string
	Brand          string
	Model          string
	Color          string
	Condition      string
	Bracelet       string
	ProductionYear *int
	Amount         decimal.Decimal
	Discount       decimal.Decimal
	FinalAmount    decimal.Decimal
	Currency       string
	CleanText      string
	AsOfDate       time.Time
	CreatedAt      time.Time
}

// GroupKey identifies the catalog line a snapshot belongs to: the
// reference code when present, otherwise brand plus model.
func (s Snapshot) GroupKey() string {
	if s.ReferenceCode != "" {
		return s.ReferenceCode
	}
	return s.Brand + "|" + s.Model
}

// ConversionDate picks the date used for currency lookups. Ingestion
// timestamp wins when present so a re-ingested row converts at the rate
// of the day it was actually loaded.
func (s Snapshot) ConversionDate() time.Time {
	if !s.CreatedAt.IsZero() {
		return s.CreatedAt
	}
	return s.AsOfDate
}

// AggregateRow is a synthetic row for one catalog group within a window.
// Non-grouped descriptive fields are intentionally absent; the amount is
// the window average in USD.
type AggregateRow struct {
	ReferenceCode string
	Brand         string
	Model         string
	AvgUSD        decimal.Decimal
	Currency      string
	Count         int
	AsOfDate      time.Time
	CreatedAt     time.Time
}

// ReferenceSummary is the descriptive rollup for one catalog reference
// scoped to its latest as-of date.
type ReferenceSummary struct {
	ReferenceCode string
	Brand         string
	MinPriceUSD   decimal.Decimal
	MaxPriceUSD   decimal.Decimal
	AvgPriceUSD   decimal.Decimal
	Conditions    []string
	Colors        []string
	Years         []int
	Currencies    []string
	ExtraInfo     []string
	LastCreatedAt time.Time
	LastAsOfDate  time.Time
}

// BrandDashboard aggregates catalog-wide figures for a single brand.
type BrandDashboard struct {
	Brand          string
	TotalSnapshots int64
	DistinctModels int64
	MinUSD         decimal.Decimal
	MaxUSD         decimal.Decimal
	AvgUSD         decimal.Decimal
	LastAsOfDate   time.Time
}

// PricePoint is one normalized observation in a price history series.
type PricePoint struct {
	Date  time.Time
	Price decimal.Decimal
}
