package rapsqlite

import (
	"database/sql"
	"fmt"
)

// Row is an ordered, positionally-indexed sequence of values (C8's output
// shape). Column count is fixed for the lifetime of a result set.
type Row []Value

// Values converts a Row into its Go-native representation: int64,
// float64, string, []byte, or nil per column.
func (r Row) Values() []any {
	out := make([]any, len(r))
	for i, v := range r {
		out[i] = v.Interface()
	}
	return out
}

// materializeRows decodes every row produced by a stepped statement into
// the host-facing Row shape, using the marshaller's inverse mapping.
func materializeRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	n := len(cols)

	var out []Row
	raw := make([]any, n)
	ptrs := make([]any, n)
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, n)
		for i, v := range raw {
			row[i] = decodeColumn(v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// decodeColumn maps a driver-decoded column value back to a Value,
// inverting the bindings NewValue performs. modernc.org/sqlite surfaces
// INTEGER as int64, REAL as float64, TEXT as string, BLOB as []byte, and
// NULL as nil, so this is a direct type switch rather than a conversion.
func decodeColumn(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case int64:
		return IntegerValue(x)
	case float64:
		return RealValue(x)
	case string:
		return TextValue(x)
	case []byte:
		return BlobValue(x)
	case bool:
		if x {
			return IntegerValue(1)
		}
		return IntegerValue(0)
	default:
		return TextValue(fmt.Sprint(x))
	}
}
