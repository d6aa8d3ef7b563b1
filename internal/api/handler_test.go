package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"watch-catalog/internal/catalog"
	"watch-catalog/internal/engine"
)

// stubService records the last call and replays canned results.
type stubService struct {
	searchPage catalog.PageResult[catalog.Snapshot]
	searchErr  error

	windowPage catalog.PageResult[catalog.AggregateRow]
	windowErr  error
	gotWindow  catalog.Window
	gotMode    catalog.AvgMode
	gotFilter  catalog.FilterSpec

	facets    engine.FacetCounts
	summary   *catalog.ReferenceSummary
	dashboard *catalog.BrandDashboard
	points    []catalog.PricePoint
	gotSince  time.Time
	refs      []string
	gotLimit  int
}

func (s *stubService) Search(_ context.Context, f catalog.FilterSpec, _ catalog.PageRequest) (catalog.PageResult[catalog.Snapshot], error) {
	s.gotFilter = f
	return s.searchPage, s.searchErr
}

func (s *stubService) WindowAverage(_ context.Context, f catalog.FilterSpec, w catalog.Window, m catalog.AvgMode, _ catalog.PageRequest) (catalog.PageResult[catalog.AggregateRow], error) {
	s.gotFilter, s.gotWindow, s.gotMode = f, w, m
	return s.windowPage, s.windowErr
}

func (s *stubService) Facets(_ context.Context, f catalog.FilterSpec) (engine.FacetCounts, error) {
	s.gotFilter = f
	return s.facets, nil
}

func (s *stubService) SummarizeReference(_ context.Context, _ string) (*catalog.ReferenceSummary, error) {
	return s.summary, nil
}

func (s *stubService) BrandDashboard(_ context.Context, _ string) (*catalog.BrandDashboard, error) {
	return s.dashboard, nil
}

func (s *stubService) PriceHistory(_ context.Context, _ string, since time.Time) ([]catalog.PricePoint, error) {
	s.gotSince = since
	return s.points, nil
}

func (s *stubService) SuggestReferences(_ context.Context, _ string, limit int) ([]string, error) {
	s.gotLimit = limit
	return s.refs, nil
}

func doRequest(t *testing.T, svc QueryService, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(svc, zerolog.Nop())
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestQuerySearchPath(t *testing.T) {
	svc := &stubService{
		searchPage: catalog.NewPageResult([]catalog.Snapshot{{
			ID:            7,
			ReferenceCode: "R1",
			Brand:         "Omega",
			FinalAmount:   decimal.NewFromInt(125),
			Currency:      "USD",
			AsOfDate:      time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			CreatedAt:     time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
		}}, 101, 0, 50),
	}

	rec := doRequest(t, svc, http.MethodPost, "/watches/query", `{"brand":"Omega","sort":"price_desc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotFilter.Brand != "Omega" {
		t.Fatalf("filter not forwarded, got %+v", svc.gotFilter)
	}

	body := decodeBody(t, rec)
	if body["total"].(float64) != 101 || body["pages"].(float64) != 3 {
		t.Fatalf("unexpected paging fields: %v", body)
	}
	items := body["items"].([]any)
	first := items[0].(map[string]any)
	if first["finalAmount"] != "125" || first["reference"] != "R1" {
		t.Fatalf("unexpected item payload: %v", first)
	}
}

func TestQueryEmptyBodyIsEmptyFilter(t *testing.T) {
	svc := &stubService{searchPage: catalog.NewPageResult[catalog.Snapshot](nil, 0, 0, 50)}
	rec := doRequest(t, svc, http.MethodPost, "/watches/query", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body should be a match-all search, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestQueryWindowPath(t *testing.T) {
	svc := &stubService{
		windowPage: catalog.NewPageResult([]catalog.AggregateRow{{
			ReferenceCode: "R1",
			Brand:         "Omega",
			AvgUSD:        decimal.NewFromInt(350),
			Currency:      "USD",
			Count:         6,
			AsOfDate:      time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
		}}, 1, 0, 50),
	}

	rec := doRequest(t, svc, http.MethodPost, "/watches/query", `{"brand":"Omega","window":"7d","avgMode":"low"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotWindow != catalog.Window7d || svc.gotMode != catalog.AvgLow {
		t.Fatalf("window params not forwarded: %v %v", svc.gotWindow, svc.gotMode)
	}
	body := decodeBody(t, rec)
	first := body["items"].([]any)[0].(map[string]any)
	if first["avgPrice"] != "350" || first["count"].(float64) != 6 {
		t.Fatalf("unexpected aggregate payload: %v", first)
	}
}

func TestQueryValidation(t *testing.T) {
	svc := &stubService{windowErr: engine.ErrMissingBrandOrModel}

	rec := doRequest(t, svc, http.MethodPost, "/watches/query", `{"window":"h4x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown window should be 400, got %d", rec.Code)
	}

	rec = doRequest(t, svc, http.MethodPost, "/watches/query", `{"window":"7d"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("scope validation should be 400, got %d", rec.Code)
	}

	rec = doRequest(t, svc, http.MethodPost, "/watches/query", `{"asOfFrom":"10/03/2024"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date should be 400, got %d", rec.Code)
	}

	rec = doRequest(t, svc, http.MethodPost, "/watches/query", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body should be 400, got %d", rec.Code)
	}
}

func TestQueryStoreFault(t *testing.T) {
	svc := &stubService{searchErr: errors.New("db down")}
	rec := doRequest(t, svc, http.MethodPost, "/watches/query", `{}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("store fault should be 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Fatal("internal detail leaked to the client")
	}
}

func TestSummaryNotFound(t *testing.T) {
	rec := doRequest(t, &stubService{}, http.MethodGet, "/watches/summary/NOPE", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSummaryFound(t *testing.T) {
	svc := &stubService{summary: &catalog.ReferenceSummary{
		ReferenceCode: "R1",
		Brand:         "Omega",
		MinPriceUSD:   decimal.NewFromInt(100),
		MaxPriceUSD:   decimal.NewFromInt(600),
		AvgPriceUSD:   decimal.NewFromInt(350),
		Conditions:    []string{"new"},
		LastAsOfDate:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}}
	rec := doRequest(t, svc, http.MethodGet, "/watches/summary/R1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["avgPrice"] != "350" || body["currency"] != "USD" || body["lastAsOfDate"] != "2024-03-10" {
		t.Fatalf("unexpected summary payload: %v", body)
	}
}

func TestBrandDashboardNotFound(t *testing.T) {
	rec := doRequest(t, &stubService{}, http.MethodPost, "/watches/brand-dashboard/Nobody", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPriceHistoryParams(t *testing.T) {
	svc := &stubService{points: []catalog.PricePoint{
		{Date: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), Price: decimal.NewFromInt(100)},
	}}

	rec := doRequest(t, svc, http.MethodGet, "/watches/price-history?reference=R1&days=30", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["days"].(float64) != 30 {
		t.Fatalf("days not honored: %v", body)
	}
	point := body["points"].([]any)[0].(map[string]any)
	if point["price"] != "100" || point["date"] != "2024-03-10" {
		t.Fatalf("unexpected point payload: %v", point)
	}

	rec = doRequest(t, svc, http.MethodGet, "/watches/price-history?days=30", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing reference should be 400, got %d", rec.Code)
	}

	rec = doRequest(t, svc, http.MethodGet, "/watches/price-history?reference=R1&days=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad days should be 400, got %d", rec.Code)
	}
}

func TestAutocomplete(t *testing.T) {
	svc := &stubService{refs: []string{"AB-1", "AB-2"}}
	rec := doRequest(t, svc, http.MethodGet, "/watches/autocomplete?prefix=AB&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotLimit != 5 {
		t.Fatalf("limit not forwarded, got %d", svc.gotLimit)
	}
	body := decodeBody(t, rec)
	if refs := body["references"].([]any); len(refs) != 2 {
		t.Fatalf("unexpected references: %v", refs)
	}
}

func TestHealth(t *testing.T) {
	rec := doRequest(t, &stubService{}, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
