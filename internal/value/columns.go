package value

import "github.com/rillshell/rill/internal/span"

// TableSchema derives the column ordering for a table from its first row.
// An empty table yields a single empty-name placeholder column, matching
// the behavior of column-dropping on nothing.
func TableSchema(rows []Value) []string {
	if len(rows) > 0 {
		if rec, ok := rows[0].(*Record); ok {
			cols := make([]string, len(rec.Cols))
			copy(cols, rec.Cols)
			return cols
		}
	}
	return []string{""}
}

// DropTrailing returns the schema prefix that remains after removing the
// trailing n names, clamped to an empty keep-set when n exceeds the column
// count. Re-applying with the same n once nothing remains is a no-op.
func DropTrailing(schema []string, n int) []string {
	keep := len(schema) - n
	if keep < 0 {
		keep = 0
	}
	return schema[:keep]
}

// ProjectRow normalizes one row onto the exact column ordering of keep,
// regardless of the row's own column order. Columns the row lacks become
// Nothing, so heterogeneous rows share the first row's schema.
func ProjectRow(row Value, keep []string, sp span.Span) Value {
	rec, ok := row.(*Record)
	if !ok {
		if len(keep) == 0 {
			return &Record{Sp: sp}
		}
		return row
	}
	cols := make([]string, 0, len(keep))
	vals := make([]Value, 0, len(keep))
	for _, name := range keep {
		cols = append(cols, name)
		if v, found := rec.Get(name); found {
			vals = append(vals, v)
		} else {
			vals = append(vals, &Nothing{Sp: sp})
		}
	}
	return &Record{Cols: cols, Vals: vals, Sp: rec.Sp}
}
