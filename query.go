package rapsqlite

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// NamedExecute runs sqlText, which may use :name placeholders, binding
// values from arg — a struct (via `db` tags) or a map[string]any. If arg
// is a non-empty slice, sqlText runs once per element and the returned
// count is the sum of rows affected.
func (db *DB) NamedExecute(ctx context.Context, sqlText string, arg any) (int64, error) {
	v := reflect.ValueOf(arg)
	if v.IsValid() && v.Kind() == reflect.Slice {
		bound, names := parseNamed(sqlText)
		var total int64
		for i := 0; i < v.Len(); i++ {
			m, err := structOrMapToMap(v.Index(i).Interface())
			if err != nil {
				return total, err
			}
			n, err := db.Execute(ctx, bound, valuesByNames(m, names)...)
			if err != nil {
				return total, err
			}
			total += n
		}
		return total, nil
	}
	bound, args, err := bindNamed(sqlText, arg)
	if err != nil {
		return 0, err
	}
	return db.Execute(ctx, bound, args...)
}

// NamedFetchAll runs a query with :name placeholders bound from arg.
func (db *DB) NamedFetchAll(ctx context.Context, sqlText string, arg any) ([]Row, error) {
	bound, args, err := bindNamed(sqlText, arg)
	if err != nil {
		return nil, err
	}
	return db.FetchAll(ctx, bound, args...)
}

// BulkInsert inserts every row in rows as a single multi-values INSERT
// statement. Every row must have exactly len(columns) values.
func (db *DB) BulkInsert(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("rapsqlite: no rows to insert")
	}
	colN := len(columns)
	for i, r := range rows {
		if len(r) != colN {
			return 0, fmt.Errorf("rapsqlite: row %d has %d values, want %d", i, len(r), colN)
		}
	}
	placeOne := "(" + strings.TrimRight(strings.Repeat("?,", colN), ",") + ")"
	var b strings.Builder
	b.Grow(32 + len(rows)*len(placeOne))
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ","))
	b.WriteString(") VALUES ")
	args := make([]any, 0, len(rows)*colN)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(placeOne)
		args = append(args, r...)
	}
	return db.Execute(ctx, b.String(), args...)
}

// BuildIn expands the first "(?)" or bare "?" placeholder in query into
// one "?" per element of slice, and appends slice's values (followed by
// others) as the bound argument list — a helper for building "WHERE x IN
// (?)"-shaped queries whose argument count varies at call time.
func BuildIn(query string, slice any, others ...any) (string, []any, error) {
	v := reflect.ValueOf(slice)
	if v.Kind() != reflect.Slice {
		return "", nil, fmt.Errorf("rapsqlite: BuildIn requires a slice, got %T", slice)
	}
	n := v.Len()
	if n == 0 {
		return "", nil, fmt.Errorf("rapsqlite: BuildIn requires a non-empty slice")
	}
	repl := "(" + strings.TrimRight(strings.Repeat("?,", n), ",") + ")"
	bound := query
	if strings.Contains(bound, "(?)") {
		bound = strings.Replace(bound, "(?)", repl, 1)
	} else {
		bound = strings.Replace(bound, "?", strings.Trim(repl, "()"), 1)
	}
	args := make([]any, 0, n+len(others))
	for i := 0; i < n; i++ {
		args = append(args, v.Index(i).Interface())
	}
	args = append(args, others...)
	return bound, args, nil
}
