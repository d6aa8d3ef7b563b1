package catalog

import (
	"testing"
	"time"
)

func TestPageRequestClamp(t *testing.T) {
	cases := []struct {
		in       PageRequest
		wantPage int
		wantSize int
	}{
		{PageRequest{Page: 0, Size: 0}, 0, 50},
		{PageRequest{Page: -3, Size: 10}, 0, 10},
		{PageRequest{Page: 2, Size: 500}, 2, 200},
		{PageRequest{Page: 1, Size: -1}, 1, 1},
	}
	for _, c := range cases {
		got := c.in.Clamp()
		if got.Page != c.wantPage || got.Size != c.wantSize {
			t.Fatalf("clamp %+v: got page=%d size=%d, want page=%d size=%d",
				c.in, got.Page, got.Size, c.wantPage, c.wantSize)
		}
	}
}

func TestPageResultDerivedFields(t *testing.T) {
	cases := []struct {
		total   int64
		page    int
		size    int
		pages   int64
		hasNext bool
		hasPrev bool
	}{
		{0, 0, 50, 1, false, false},
		{50, 0, 50, 1, false, false},
		{51, 0, 50, 2, true, false},
		{51, 1, 50, 2, false, true},
		{200, 1, 50, 4, true, true},
	}
	for _, c := range cases {
		p := NewPageResult([]int{}, c.total, c.page, c.size)
		if p.Pages() != c.pages {
			t.Fatalf("total=%d size=%d: pages=%d, want %d", c.total, c.size, p.Pages(), c.pages)
		}
		if p.HasNext() != c.hasNext {
			t.Fatalf("total=%d page=%d: hasNext=%v, want %v", c.total, c.page, p.HasNext(), c.hasNext)
		}
		if p.HasPrev() != c.hasPrev {
			t.Fatalf("total=%d page=%d: hasPrev=%v, want %v", c.total, c.page, p.HasPrev(), c.hasPrev)
		}
	}
}

func TestPaginateSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := PaginateSlice(items, PageRequest{Page: 1, Size: 2})
	if p.Total != 5 || len(p.Items) != 2 || p.Items[0] != 3 {
		t.Fatalf("unexpected slice page: %+v", p)
	}

	// A page past the end yields an empty item list, not an error.
	p = PaginateSlice(items, PageRequest{Page: 9, Size: 2})
	if len(p.Items) != 0 || p.Total != 5 {
		t.Fatalf("page past the end should be empty: %+v", p)
	}
}

func TestWindowRange(t *testing.T) {
	anchor := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	from, to := WindowToday.Range(anchor)
	if !from.Equal(anchor) || !to.Equal(anchor) {
		t.Fatalf("today window should be a single day: %s..%s", from, to)
	}

	from, _ = Window7d.Range(anchor)
	if want := anchor.AddDate(0, 0, -6); !from.Equal(want) {
		t.Fatalf("7d window from=%s, want %s", from, want)
	}

	from, _ = Window15d.Range(anchor)
	if want := anchor.AddDate(0, 0, -14); !from.Equal(want) {
		t.Fatalf("15d window from=%s, want %s", from, want)
	}

	if _, err := ParseWindow("30d"); err == nil {
		t.Fatal("unknown window should not parse")
	}
}

func TestParseSortKeyFallback(t *testing.T) {
	if ParseSortKey("PRICE_ASC") != SortPriceAsc {
		t.Fatal("sort keys should parse case-insensitively")
	}
	if ParseSortKey("bogus") != SortDateDesc {
		t.Fatal("unknown sort keys should fall back to date_desc")
	}
}
