package storage

import (
	"fmt"
	"strings"

	"watch-catalog/internal/catalog"
)

// Op enumerates the comparison operators a constraint can carry.
type Op int

const (
	// OpEqFold matches case-insensitively: UPPER(col) = UPPER($n).
	OpEqFold Op = iota
	// OpEq matches exactly: col = $n.
	OpEq
	// OpGTE is col >= $n.
	OpGTE
	// OpLTE is col <= $n.
	OpLTE
	// OpContainsFold is a case-insensitive substring match.
	OpContainsFold
)

// Constraint is one typed column predicate with its bound value. Values
// are always passed as query parameters, never interpolated.
type Constraint struct {
	Column string
	Op     Op
	Value  any
}

// Constraints is the ordered conjunctive predicate set for one query.
type Constraints []Constraint

// BuildPredicate translates a sparse filter into constraints. Blank
// string criteria emit nothing; an exact year suppresses the year range
// even when both are supplied.
func BuildPredicate(f catalog.FilterSpec) Constraints {
	var cons Constraints

	addFold := func(column, value string) {
		if v := strings.TrimSpace(value); v != "" {
			cons = append(cons, Constraint{Column: column, Op: OpEqFold, Value: v})
		}
	}

	addFold("reference_code", f.ReferenceCode)
	addFold("brand", f.Brand)
	addFold("model", f.Model)
	addFold("color", f.Color)
	addFold("condition", f.Condition)
	addFold("bracelet", f.Bracelet)

	if f.Year != nil {
		cons = append(cons, Constraint{Column: "production_year", Op: OpEq, Value: *f.Year})
	} else {
		if f.YearFrom != nil {
			cons = append(cons, Constraint{Column: "production_year", Op: OpGTE, Value: *f.YearFrom})
		}
		if f.YearTo != nil {
			cons = append(cons, Constraint{Column: "production_year", Op: OpLTE, Value: *f.YearTo})
		}
	}

	if f.PriceMin != nil {
		cons = append(cons, Constraint{Column: "final_amount", Op: OpGTE, Value: *f.PriceMin})
	}
	if f.PriceMax != nil {
		cons = append(cons, Constraint{Column: "final_amount", Op: OpLTE, Value: *f.PriceMax})
	}

	addFold("currency", f.Currency)

	if txt := f.EffectiveText(); txt != "" {
		cons = append(cons, Constraint{Column: "clean_text", Op: OpContainsFold, Value: txt})
	}

	if f.AsOfFrom != nil {
		cons = append(cons, Constraint{Column: "as_of_date", Op: OpGTE, Value: *f.AsOfFrom})
	}
	if f.AsOfTo != nil {
		cons = append(cons, Constraint{Column: "as_of_date", Op: OpLTE, Value: *f.AsOfTo})
	}

	return cons
}

// Clauses renders the constraints as SQL fragments with placeholders
// numbered from start, returning the bound arguments in order.
func (cs Constraints) Clauses(start int) ([]string, []any) {
	clauses := make([]string, 0, len(cs))
	args := make([]any, 0, len(cs))

	for _, c := range cs {
		n := start + len(args)
		switch c.Op {
		case OpEqFold:
			clauses = append(clauses, fmt.Sprintf("UPPER(%s) = UPPER($%d)", c.Column, n))
		case OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", c.Column, n))
		case OpGTE:
			clauses = append(clauses, fmt.Sprintf("%s >= $%d", c.Column, n))
		case OpLTE:
			clauses = append(clauses, fmt.Sprintf("%s <= $%d", c.Column, n))
		case OpContainsFold:
			clauses = append(clauses, fmt.Sprintf("UPPER(%s) LIKE '%%' || UPPER($%d) || '%%'", c.Column, n))
		}
		args = append(args, c.Value)
	}

	return clauses, args
}

// Where renders a full WHERE clause, or an empty string when no
// constraint is present.
func (cs Constraints) Where(start int) (string, []any) {
	clauses, args := cs.Clauses(start)
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
