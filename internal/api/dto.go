package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"watch-catalog/internal/catalog"
)

const dateLayout = "2006-01-02"

// queryRequest is the body shared by the query and facets endpoints: a
// sparse filter plus paging, sorting and the optional aggregation knobs.
type queryRequest struct {
	Reference string   `json:"reference"`
	Brand     string   `json:"brand"`
	Model     string   `json:"model"`
	Color     string   `json:"color"`
	Condition string   `json:"condition"`
	Bracelet  string   `json:"bracelet"`
	Year      *int     `json:"year"`
	YearFrom  *int     `json:"yearFrom"`
	YearTo    *int     `json:"yearTo"`
	PriceMin  *float64 `json:"priceMin"`
	PriceMax  *float64 `json:"priceMax"`
	Currency  string   `json:"currency"`
	Text      string   `json:"text"`
	Info      string   `json:"info"`
	AsOfFrom  string   `json:"asOfFrom"`
	AsOfTo    string   `json:"asOfTo"`

	Page int    `json:"page"`
	Size int    `json:"size"`
	Sort string `json:"sort"`

	Window  string `json:"window"`
	AvgMode string `json:"avgMode"`
}

func (r queryRequest) filter() (catalog.FilterSpec, error) {
	f := catalog.FilterSpec{
		ReferenceCode: strings.TrimSpace(r.Reference),
		Brand:         strings.TrimSpace(r.Brand),
		Model:         strings.TrimSpace(r.Model),
		Color:         strings.TrimSpace(r.Color),
		Condition:     strings.TrimSpace(r.Condition),
		Bracelet:      strings.TrimSpace(r.Bracelet),
		Year:          r.Year,
		YearFrom:      r.YearFrom,
		YearTo:        r.YearTo,
		Currency:      strings.TrimSpace(r.Currency),
		Text:          r.Text,
		Info:          r.Info,
	}
	if r.PriceMin != nil {
		min := decimal.NewFromFloat(*r.PriceMin)
		f.PriceMin = &min
	}
	if r.PriceMax != nil {
		max := decimal.NewFromFloat(*r.PriceMax)
		f.PriceMax = &max
	}

	var err error
	if f.AsOfFrom, err = parseDate(r.AsOfFrom); err != nil {
		return catalog.FilterSpec{}, fmt.Errorf("asOfFrom: %w", err)
	}
	if f.AsOfTo, err = parseDate(r.AsOfTo); err != nil {
		return catalog.FilterSpec{}, fmt.Errorf("asOfTo: %w", err)
	}
	return f, nil
}

func (r queryRequest) pageRequest() catalog.PageRequest {
	return catalog.PageRequest{Page: r.Page, Size: r.Size, Sort: catalog.ParseSortKey(r.Sort)}
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD, got %q", raw)
	}
	return &t, nil
}

type snapshotDTO struct {
	ID             int64  `json:"id"`
	Reference      string `json:"reference"`
	Brand          string `json:"brand"`
	Model          string `json:"model"`
	Color          string `json:"color,omitempty"`
	Condition      string `json:"condition,omitempty"`
	Bracelet       string `json:"bracelet,omitempty"`
	ProductionYear *int   `json:"productionYear,omitempty"`
	Amount         string `json:"amount"`
	Discount       string `json:"discount"`
	FinalAmount    string `json:"finalAmount"`
	Currency       string `json:"currency"`
	Info           string `json:"info,omitempty"`
	AsOfDate       string `json:"asOfDate"`
	CreatedAt      string `json:"createdAt"`
}

func toSnapshotDTO(s catalog.Snapshot) snapshotDTO {
	return snapshotDTO{
		ID:             s.ID,
		Reference:      s.ReferenceCode,
		Brand:          s.Brand,
		Model:          s.Model,
		Color:          s.Color,
		Condition:      s.Condition,
		Bracelet:       s.Bracelet,
		ProductionYear: s.ProductionYear,
		Amount:         s.Amount.String(),
		Discount:       s.Discount.String(),
		FinalAmount:    s.FinalAmount.String(),
		Currency:       s.Currency,
		Info:           s.CleanText,
		AsOfDate:       s.AsOfDate.Format(dateLayout),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
}

type aggregateDTO struct {
	Reference string `json:"reference,omitempty"`
	Brand     string `json:"brand"`
	Model     string `json:"model,omitempty"`
	AvgPrice  string `json:"avgPrice"`
	Currency  string `json:"currency"`
	Count     int    `json:"count"`
	AsOfDate  string `json:"asOfDate"`
}

func toAggregateDTO(r catalog.AggregateRow) aggregateDTO {
	return aggregateDTO{
		Reference: r.ReferenceCode,
		Brand:     r.Brand,
		Model:     r.Model,
		AvgPrice:  r.AvgUSD.String(),
		Currency:  r.Currency,
		Count:     r.Count,
		AsOfDate:  r.AsOfDate.Format(dateLayout),
	}
}

type pageDTO[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Size    int   `json:"size"`
	Pages   int64 `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

func toPageDTO[S, T any](page catalog.PageResult[S], convert func(S) T) pageDTO[T] {
	items := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, convert(item))
	}
	return pageDTO[T]{
		Items:   items,
		Total:   page.Total,
		Page:    page.Page,
		Size:    page.Size,
		Pages:   page.Pages(),
		HasNext: page.HasNext(),
		HasPrev: page.HasPrev(),
	}
}

type summaryDTO struct {
	Reference  string   `json:"reference"`
	Brand      string   `json:"brand"`
	MinPrice   string   `json:"minPrice"`
	MaxPrice   string   `json:"maxPrice"`
	AvgPrice   string   `json:"avgPrice"`
	Currency   string   `json:"currency"`
	Conditions []string `json:"conditions"`
	Colors     []string `json:"colors"`
	Years      []int    `json:"years"`
	Currencies []string `json:"sourceCurrencies"`
	ExtraInfo  []string `json:"extraInfo"`
	LastSeenAt string   `json:"lastSeenAt"`
	LastAsOf   string   `json:"lastAsOfDate"`
}

func toSummaryDTO(s catalog.ReferenceSummary) summaryDTO {
	return summaryDTO{
		Reference:  s.ReferenceCode,
		Brand:      s.Brand,
		MinPrice:   s.MinPriceUSD.String(),
		MaxPrice:   s.MaxPriceUSD.String(),
		AvgPrice:   s.AvgPriceUSD.String(),
		Currency:   "USD",
		Conditions: s.Conditions,
		Colors:     s.Colors,
		Years:      s.Years,
		Currencies: s.Currencies,
		ExtraInfo:  s.ExtraInfo,
		LastSeenAt: s.LastCreatedAt.Format(time.RFC3339),
		LastAsOf:   s.LastAsOfDate.Format(dateLayout),
	}
}

type dashboardDTO struct {
	Brand          string `json:"brand"`
	TotalSnapshots int64  `json:"totalSnapshots"`
	DistinctModels int64  `json:"distinctModels"`
	MinPrice       string `json:"minPrice"`
	MaxPrice       string `json:"maxPrice"`
	AvgPrice       string `json:"avgPrice"`
	Currency       string `json:"currency"`
	LastAsOf       string `json:"lastAsOfDate"`
}

func toDashboardDTO(d catalog.BrandDashboard) dashboardDTO {
	return dashboardDTO{
		Brand:          d.Brand,
		TotalSnapshots: d.TotalSnapshots,
		DistinctModels: d.DistinctModels,
		MinPrice:       d.MinUSD.String(),
		MaxPrice:       d.MaxUSD.String(),
		AvgPrice:       d.AvgUSD.String(),
		Currency:       "USD",
		LastAsOf:       d.LastAsOfDate.Format(dateLayout),
	}
}

type pricePointDTO struct {
	Date  string `json:"date"`
	Price string `json:"price"`
}

func toPricePointDTO(p catalog.PricePoint) pricePointDTO {
	return pricePointDTO{Date: p.Date.Format(dateLayout), Price: p.Price.String()}
}
