package storage

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"watch-catalog/internal/catalog"
)

func intPtr(v int) *int                         { return &v }
func decPtr(v int64) *decimal.Decimal           { d := decimal.NewFromInt(v); return &d }
func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildPredicateEmptyFilter(t *testing.T) {
	cons := BuildPredicate(catalog.FilterSpec{})
	if len(cons) != 0 {
		t.Fatalf("empty filter should emit no constraints, got %d", len(cons))
	}
	where, args := cons.Where(1)
	if where != "" || args != nil {
		t.Fatalf("empty constraints should render no WHERE clause, got %q", where)
	}
}

func TestBuildPredicateBlankStringsSkipped(t *testing.T) {
	cons := BuildPredicate(catalog.FilterSpec{Brand: "   ", Color: "\t", Currency: ""})
	if len(cons) != 0 {
		t.Fatalf("blank strings should emit nothing, got %v", cons)
	}
}

func TestBuildPredicateExactYearSuppressesRange(t *testing.T) {
	cons := BuildPredicate(catalog.FilterSpec{
		Year:     intPtr(2020),
		YearFrom: intPtr(2000),
		YearTo:   intPtr(2024),
	})
	if len(cons) != 1 {
		t.Fatalf("exact year should suppress the range, got %v", cons)
	}
	if cons[0].Op != OpEq || cons[0].Value != 2020 {
		t.Fatalf("unexpected year constraint %v", cons[0])
	}
}

func TestBuildPredicateYearRangeBoundsIndependent(t *testing.T) {
	cons := BuildPredicate(catalog.FilterSpec{YearFrom: intPtr(2010)})
	if len(cons) != 1 || cons[0].Op != OpGTE {
		t.Fatalf("lone lower bound should emit one >= constraint, got %v", cons)
	}

	cons = BuildPredicate(catalog.FilterSpec{YearTo: intPtr(2015)})
	if len(cons) != 1 || cons[0].Op != OpLTE {
		t.Fatalf("lone upper bound should emit one <= constraint, got %v", cons)
	}
}

func TestBuildPredicateTextPreferredOverInfo(t *testing.T) {
	cons := BuildPredicate(catalog.FilterSpec{Text: "daytona", Info: "submariner"})
	if len(cons) != 1 {
		t.Fatalf("expected one text constraint, got %v", cons)
	}
	if cons[0].Value != "daytona" {
		t.Fatalf("text should win over the info alias, got %v", cons[0].Value)
	}

	cons = BuildPredicate(catalog.FilterSpec{Info: "submariner"})
	if len(cons) != 1 || cons[0].Value != "submariner" {
		t.Fatalf("info alias should apply when text is absent, got %v", cons)
	}
}

func TestBuildPredicateFullFilter(t *testing.T) {
	f := catalog.FilterSpec{
		ReferenceCode: "116500LN",
		Brand:         "Rolex",
		Model:         "Daytona",
		Color:         "white",
		Condition:     "new",
		Bracelet:      "oyster",
		YearFrom:      intPtr(2018),
		YearTo:        intPtr(2024),
		PriceMin:      decPtr(10000),
		PriceMax:      decPtr(50000),
		Currency:      "EUR",
		Text:          "box and papers",
		AsOfFrom:      datePtr(2024, 1, 1),
		AsOfTo:        datePtr(2024, 6, 30),
	}
	cons := BuildPredicate(f)
	if len(cons) != 14 {
		t.Fatalf("expected 14 constraints, got %d: %v", len(cons), cons)
	}

	where, args := cons.Where(1)
	if len(args) != 14 {
		t.Fatalf("expected 14 bound args, got %d", len(args))
	}
	for i := 1; i <= 14; i++ {
		if !strings.Contains(where, "$"+strconv.Itoa(i)) {
			t.Fatalf("placeholder $%d missing from %q", i, where)
		}
	}
	if strings.Contains(where, "Rolex") || strings.Contains(where, "box and papers") {
		t.Fatal("values must be bound parameters, never rendered into SQL")
	}
}

func TestConstraintsClausesStartOffset(t *testing.T) {
	cons := BuildPredicate(catalog.FilterSpec{Brand: "omega"})
	clauses, args := cons.Clauses(3)
	if len(clauses) != 1 || len(args) != 1 {
		t.Fatalf("expected one clause and arg, got %v / %v", clauses, args)
	}
	if clauses[0] != "UPPER(brand) = UPPER($3)" {
		t.Fatalf("placeholder numbering should honour the start offset: %q", clauses[0])
	}
}
