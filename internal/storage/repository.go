package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"watch-catalog/internal/catalog"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	snapshotColumns = `id, reference_code, brand, model, color, condition, bracelet,
        production_year, amount, discount, final_amount, currency, clean_text,
        as_of_date, created_at`

	latestIngestionDateSQL = `SELECT MAX(as_of_date) FROM ingestion_log;`

	latestReferenceDateSQL = `SELECT MAX(as_of_date) FROM snapshots
    WHERE UPPER(reference_code) = UPPER($1);`

	listByReferenceAtSQL = `SELECT ` + snapshotColumns + `
    FROM snapshots
    WHERE UPPER(reference_code) = UPPER($1)
      AND as_of_date = $2
    ORDER BY created_at DESC, id DESC;`

	priceHistorySQL = `SELECT ` + snapshotColumns + `
    FROM snapshots
    WHERE UPPER(reference_code) = UPPER($1)
      AND created_at >= $2
    ORDER BY created_at ASC, id ASC;`

	suggestReferencesSQL = `SELECT DISTINCT reference_code
    FROM snapshots
    WHERE reference_code IS NOT NULL
      AND UPPER(reference_code) LIKE UPPER($1) || '%'
    ORDER BY reference_code ASC
    LIMIT $2;`

	markupValueSQL = `SELECT config_value FROM app_config
    WHERE config_key = $1
    LIMIT 1;`

	markupConfigKey = "markup_percentage"
)

// sortClauses maps every sort key to its ORDER BY, with id as the
// universal tie-break so pagination stays deterministic across equal
// primary values.
var sortClauses = map[catalog.SortKey]string{
	catalog.SortPriceAsc:  "final_amount ASC, id ASC",
	catalog.SortPriceDesc: "final_amount DESC, id DESC",
	catalog.SortBrandAsc:  "brand ASC, model ASC, id ASC",
	catalog.SortBrandDesc: "brand DESC, model DESC, id DESC",
	catalog.SortDateAsc:   "created_at ASC, id ASC",
	catalog.SortDateDesc:  "created_at DESC, id DESC",
}

// facetColumns allow-lists the columns facet counting may group by.
var facetColumns = map[string]string{
	"brand":     "brand",
	"color":     "color",
	"condition": "condition",
	"bracelet":  "bracelet",
}

// SnapshotStore defines the read operations the query engine needs from
// the snapshot catalog.
type SnapshotStore interface {
	SearchSnapshots(ctx context.Context, f catalog.FilterSpec, sort catalog.SortKey, limit, offset int) ([]catalog.Snapshot, error)
	CountSnapshots(ctx context.Context, f catalog.FilterSpec) (int64, error)
	ListWindowSnapshots(ctx context.Context, f catalog.FilterSpec, from, to time.Time) ([]catalog.Snapshot, error)
	FacetCounts(ctx context.Context, f catalog.FilterSpec, facet string) (map[string]int64, error)
	YearFacetCounts(ctx context.Context, f catalog.FilterSpec) (map[int]int64, error)
	LatestAsOfDate(ctx context.Context) (time.Time, bool, error)
	LatestAsOfDateMatching(ctx context.Context, f catalog.FilterSpec) (time.Time, bool, error)
	LatestAsOfDateForReference(ctx context.Context, reference string) (time.Time, bool, error)
	ListByReferenceAt(ctx context.Context, reference string, asOf time.Time) ([]catalog.Snapshot, error)
	PriceHistory(ctx context.Context, reference string, since time.Time) ([]catalog.Snapshot, error)
	SuggestReferences(ctx context.Context, prefix string, limit int) ([]string, error)
}

// ConfigStore exposes the key-value configuration collaborator.
type ConfigStore interface {
	MarkupValue(ctx context.Context) (string, bool, error)
}

// Store implements SnapshotStore and ConfigStore over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// SearchSnapshots runs the bounded item query for one page.
func (s *Store) SearchSnapshots(ctx context.Context, f catalog.FilterSpec, sort catalog.SortKey, limit, offset int) ([]catalog.Snapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	orderBy, ok := sortClauses[sort]
	if !ok {
		orderBy = sortClauses[catalog.SortDateDesc]
	}

	where, args := BuildPredicate(f).Where(1)
	query := fmt.Sprintf(
		"SELECT %s FROM snapshots%s ORDER BY %s LIMIT $%d OFFSET $%d;",
		snapshotColumns, where, orderBy, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("search snapshots: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

// CountSnapshots runs the unbounded count query over the same predicate set.
func (s *Store) CountSnapshots(ctx context.Context, f catalog.FilterSpec) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	where, args := BuildPredicate(f).Where(1)
	query := "SELECT COUNT(*) FROM snapshots" + where + ";"

	var count int64
	if scanErr := pool.QueryRow(ctx, query, args...).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count snapshots: %w", scanErr)
	}
	return count, nil
}

// ListWindowSnapshots fetches every matching row inside an inclusive
// as-of date range, unpaged.
func (s *Store) ListWindowSnapshots(ctx context.Context, f catalog.FilterSpec, from, to time.Time) ([]catalog.Snapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	clauses, consArgs := BuildPredicate(f).Clauses(3)
	args := append([]any{from, to}, consArgs...)

	query := fmt.Sprintf("SELECT %s FROM snapshots WHERE as_of_date >= $1 AND as_of_date <= $2", snapshotColumns)
	if len(clauses) > 0 {
		query += " AND " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY reference_code ASC, as_of_date DESC, created_at DESC, id DESC;"

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("list window snapshots: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

// FacetCounts groups matching rows by one allow-listed facet column.
// NULL values are tallied under "(null)".
func (s *Store) FacetCounts(ctx context.Context, f catalog.FilterSpec, facet string) (map[string]int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	column, ok := facetColumns[facet]
	if !ok {
		return nil, fmt.Errorf("unsupported facet column %q", facet)
	}

	where, args := BuildPredicate(f).Where(1)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM snapshots%s GROUP BY %s;", column, where, column)

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("facet counts for %s: %w", facet, queryErr)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key sql.NullString
		var count int64
		if scanErr := rows.Scan(&key, &count); scanErr != nil {
			return nil, scanErr
		}
		label := "(null)"
		if key.Valid {
			label = key.String
		}
		counts[label] = count
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}

// YearFacetCounts groups matching rows by production year, skipping NULLs.
func (s *Store) YearFacetCounts(ctx context.Context, f catalog.FilterSpec) (map[int]int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	where, args := BuildPredicate(f).Where(1)
	query := "SELECT production_year, COUNT(*) FROM snapshots" + where + " GROUP BY production_year;"

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("year facet counts: %w", queryErr)
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var year sql.NullInt64
		var count int64
		if scanErr := rows.Scan(&year, &count); scanErr != nil {
			return nil, scanErr
		}
		if year.Valid {
			counts[int(year.Int64)] = count
		}
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}

// LatestAsOfDate resolves the global anchor: the newest business date
// across all ingestion records. A false second return means no data.
func (s *Store) LatestAsOfDate(ctx context.Context) (time.Time, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return time.Time{}, false, err
	}

	var latest *time.Time
	if scanErr := pool.QueryRow(ctx, latestIngestionDateSQL).Scan(&latest); scanErr != nil {
		return time.Time{}, false, fmt.Errorf("latest as-of date: %w", scanErr)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

// LatestAsOfDateMatching resolves the newest business date among rows
// matching the filter, so a scoped view anchors on its own latest
// ingestion rather than the catalog-wide one.
func (s *Store) LatestAsOfDateMatching(ctx context.Context, f catalog.FilterSpec) (time.Time, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return time.Time{}, false, err
	}

	where, args := BuildPredicate(f).Where(1)
	query := "SELECT MAX(as_of_date) FROM snapshots" + where + ";"

	var latest *time.Time
	if scanErr := pool.QueryRow(ctx, query, args...).Scan(&latest); scanErr != nil {
		return time.Time{}, false, fmt.Errorf("latest as-of date matching: %w", scanErr)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

// LatestAsOfDateForReference resolves the per-reference anchor.
func (s *Store) LatestAsOfDateForReference(ctx context.Context, reference string) (time.Time, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return time.Time{}, false, err
	}

	var latest *time.Time
	if scanErr := pool.QueryRow(ctx, latestReferenceDateSQL, strings.TrimSpace(reference)).Scan(&latest); scanErr != nil {
		return time.Time{}, false, fmt.Errorf("latest as-of date for reference: %w", scanErr)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

// ListByReferenceAt lists the snapshots of one reference at one business date.
func (s *Store) ListByReferenceAt(ctx context.Context, reference string, asOf time.Time) ([]catalog.Snapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listByReferenceAtSQL, strings.TrimSpace(reference), asOf)
	if queryErr != nil {
		return nil, fmt.Errorf("list by reference: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

// PriceHistory lists a reference's snapshots ingested since a timestamp,
// oldest first.
func (s *Store) PriceHistory(ctx context.Context, reference string, since time.Time) ([]catalog.Snapshot, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, priceHistorySQL, strings.TrimSpace(reference), since)
	if queryErr != nil {
		return nil, fmt.Errorf("price history: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows)
}

// SuggestReferences lists distinct reference codes with a matching prefix.
func (s *Store) SuggestReferences(ctx context.Context, prefix string, limit int) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return []string{}, nil
	}

	rows, queryErr := pool.Query(ctx, suggestReferencesSQL, escapeLike(trimmed), limit)
	if queryErr != nil {
		return nil, fmt.Errorf("suggest references: %w", queryErr)
	}
	defer rows.Close()

	refs := make([]string, 0, limit)
	for rows.Next() {
		var ref string
		if scanErr := rows.Scan(&ref); scanErr != nil {
			return nil, scanErr
		}
		refs = append(refs, ref)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return refs, nil
}

// MarkupValue reads the raw markup percentage from the configuration
// store. A false second return means the key is absent.
func (s *Store) MarkupValue(ctx context.Context) (string, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", false, err
	}

	var value string
	scanErr := pool.QueryRow(ctx, markupValueSQL, markupConfigKey).Scan(&value)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read markup value: %w", scanErr)
	}
	return value, true, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}

func collectSnapshots(rows pgx.Rows) ([]catalog.Snapshot, error) {
	snapshots := make([]catalog.Snapshot, 0)
	for rows.Next() {
		snap, scanErr := scanSnapshot(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		snapshots = append(snapshots, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

func scanSnapshot(rows pgx.Rows) (catalog.Snapshot, error) {
	var (
		id          int64
		reference   sql.NullString
		brand       sql.NullString
		model       sql.NullString
		color       sql.NullString
		condition   sql.NullString
		bracelet    sql.NullString
		year        sql.NullInt64
		amountStr   sql.NullString
		discountStr sql.NullString
		finalStr    sql.NullString
		currency    sql.NullString
		cleanText   sql.NullString
		asOfDate    time.Time
		createdAt   time.Time
	)

	if err := rows.Scan(
		&id,
		&reference,
		&brand,
		&model,
		&color,
		&condition,
		&bracelet,
		&year,
		&amountStr,
		&discountStr,
		&finalStr,
		&currency,
		&cleanText,
		&asOfDate,
		&createdAt,
	); err != nil {
		return catalog.Snapshot{}, err
	}

	amount, err := parseNullDecimal(amountStr, "amount")
	if err != nil {
		return catalog.Snapshot{}, err
	}
	discount, err := parseNullDecimal(discountStr, "discount")
	if err != nil {
		return catalog.Snapshot{}, err
	}
	final, err := parseNullDecimal(finalStr, "final_amount")
	if err != nil {
		return catalog.Snapshot{}, err
	}

	snap := catalog.Snapshot{
		ID:          id,
		Amount:      amount,
		Discount:    discount,
		FinalAmount: final,
		AsOfDate:    asOfDate,
		CreatedAt:   createdAt,
	}
	snap.ReferenceCode = reference.String
	snap.Brand = brand.String
	snap.Model = model.String
	snap.Color = color.String
	snap.Condition = condition.String
	snap.Bracelet = bracelet.String
	snap.Currency = currency.String
	snap.CleanText = cleanText.String
	if year.Valid {
		y := int(year.Int64)
		snap.ProductionYear = &y
	}

	return snap, nil
}

func parseNullDecimal(v sql.NullString, field string) (decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s: %w", field, err)
	}
	return d, nil
}
