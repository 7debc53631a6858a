package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tanzinabd23/relayer-distributor/internal/domain/model"
	"github.com/tanzinabd23/relayer-distributor/internal/store"
	"github.com/tanzinabd23/relayer-distributor/internal/store/rowcodec"
)

const (
	// defaultLatestCount caps GetLatest when the caller passes no count.
	defaultLatestCount = 100
	// defaultPageLimit caps GetPage when the caller passes no limit.
	defaultPageLimit = 10000
)

// scanner is the common surface of *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// table binds one record type to its relational layout. The two archive
// stores share every query family and differ only in their descriptors, so
// the SQL lives here once.
type table[T any] struct {
	name     string
	idCol    string
	cycleCol string
	tsCol    string
	fields   []rowcodec.Field
	id       func(*T) string
	values   func(*T) []any
	scan     func(scanner) (*T, error)
}

func (tb *table[T]) insertQuery() string {
	return "INSERT OR REPLACE INTO " + tb.name +
		" (" + rowcodec.Columns(tb.fields) + ") VALUES " +
		rowcodec.Placeholders(len(tb.fields))
}

func (tb *table[T]) selectPrefix() string {
	return "SELECT " + rowcodec.Columns(tb.fields) + " FROM " + tb.name
}

// insert writes one record atomically, replacing any existing row with the
// same primary key. The existence pre-check only labels the outcome; a
// concurrent writer racing the same key can skew the label, but the stored
// row is identical either way.
func (tb *table[T]) insert(ctx context.Context, x Executor, rec *T) (store.WriteOutcome, error) {
	id := tb.id(rec)
	args, err := rowcodec.BindArgs(id, tb.fields, tb.values(rec))
	if err != nil {
		return store.WriteFailed, err
	}

	var exists bool
	if err := x.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM "+tb.name+" WHERE "+tb.idCol+" = ?)", id,
	).Scan(&exists); err != nil {
		return store.WriteFailed, fmt.Errorf("check existing %s %s: %w", tb.name, id, err)
	}

	if _, err := x.ExecContext(ctx, tb.insertQuery(), args...); err != nil {
		return store.WriteFailed, fmt.Errorf("insert %s %s: %w", tb.name, id, err)
	}
	if exists {
		return store.WriteReplaced, nil
	}
	return store.WriteInserted, nil
}

// bulkInsert writes all records in a single multi-row statement, one round
// trip, atomic as a whole. Empty input is an error: silently writing
// nothing would hide a producer bug.
func (tb *table[T]) bulkInsert(ctx context.Context, x Executor, recs []*T) error {
	if len(recs) == 0 {
		return fmt.Errorf("bulk insert into %s: no records", tb.name)
	}

	var sb strings.Builder
	sb.WriteString("INSERT OR REPLACE INTO ")
	sb.WriteString(tb.name)
	sb.WriteString(" (")
	sb.WriteString(rowcodec.Columns(tb.fields))
	sb.WriteString(") VALUES ")

	tuple := rowcodec.Placeholders(len(tb.fields))
	args := make([]any, 0, len(recs)*len(tb.fields))
	for i, rec := range recs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)

		bound, err := rowcodec.BindArgs(tb.id(rec), tb.fields, tb.values(rec))
		if err != nil {
			return err
		}
		args = append(args, bound...)
	}

	if _, err := x.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("bulk insert %d rows into %s: %w", len(recs), tb.name, err)
	}
	return nil
}

// getBy returns the first row matching col = key, or (nil, nil) when no row
// matches. For non-unique columns which row wins is undefined.
func (tb *table[T]) getBy(ctx context.Context, x Executor, col string, key any) (*T, error) {
	rec, err := tb.scan(x.QueryRowContext(ctx,
		tb.selectPrefix()+" WHERE "+col+" = ? LIMIT 1", key,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s by %s: %w", tb.name, col, err)
	}
	return rec, nil
}

// latest returns up to limit records, newest first by (cycle, timestamp).
func (tb *table[T]) latest(ctx context.Context, x Executor, limit int) ([]*T, error) {
	if limit <= 0 {
		limit = defaultLatestCount
	}
	return tb.queryMany(ctx, x,
		tb.selectPrefix()+" ORDER BY "+tb.cycleCol+" DESC, "+tb.tsCol+" DESC LIMIT ?",
		limit,
	)
}

// page returns up to limit records starting after skip, ascending by
// (cycle, timestamp). Offset pagination: cost grows with skip.
func (tb *table[T]) page(ctx context.Context, x Executor, skip, limit int64) ([]*T, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if skip < 0 {
		skip = 0
	}
	return tb.queryMany(ctx, x,
		tb.selectPrefix()+" ORDER BY "+tb.cycleCol+" ASC, "+tb.tsCol+" ASC LIMIT ? OFFSET ?",
		limit, skip,
	)
}

// pageInCycleRange is page filtered to startCycle <= cycle <= endCycle,
// inclusive on both bounds.
func (tb *table[T]) pageInCycleRange(ctx context.Context, x Executor, skip, limit, startCycle, endCycle int64) ([]*T, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if skip < 0 {
		skip = 0
	}
	return tb.queryMany(ctx, x,
		tb.selectPrefix()+" WHERE "+tb.cycleCol+" BETWEEN ? AND ?"+
			" ORDER BY "+tb.cycleCol+" ASC, "+tb.tsCol+" ASC LIMIT ? OFFSET ?",
		startCycle, endCycle, limit, skip,
	)
}

func (tb *table[T]) count(ctx context.Context, x Executor) (int64, error) {
	var n int64
	if err := x.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tb.name,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", tb.name, err)
	}
	return n, nil
}

func (tb *table[T]) countInCycleRange(ctx context.Context, x Executor, startCycle, endCycle int64) (int64, error) {
	var n int64
	if err := x.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tb.name+" WHERE "+tb.cycleCol+" BETWEEN ? AND ?",
		startCycle, endCycle,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s in cycle range [%d, %d]: %w", tb.name, startCycle, endCycle, err)
	}
	return n, nil
}

// countByCycle returns one count per distinct cycle within the inclusive
// range, ascending by cycle.
func (tb *table[T]) countByCycle(ctx context.Context, x Executor, startCycle, endCycle int64) ([]model.CycleCount, error) {
	rows, err := x.QueryContext(ctx,
		"SELECT "+tb.cycleCol+", COUNT(*) FROM "+tb.name+
			" WHERE "+tb.cycleCol+" BETWEEN ? AND ?"+
			" GROUP BY "+tb.cycleCol+" ORDER BY "+tb.cycleCol+" ASC",
		startCycle, endCycle,
	)
	if err != nil {
		return nil, fmt.Errorf("count %s by cycle: %w", tb.name, err)
	}
	defer rows.Close()

	var counts []model.CycleCount
	for rows.Next() {
		var cc model.CycleCount
		if err := rows.Scan(&cc.Cycle, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan %s cycle count: %w", tb.name, err)
		}
		counts = append(counts, cc)
	}
	return counts, rows.Err()
}

func (tb *table[T]) queryMany(ctx context.Context, x Executor, query string, args ...any) ([]*T, error) {
	rows, err := x.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tb.name, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		rec, err := tb.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", tb.name, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
