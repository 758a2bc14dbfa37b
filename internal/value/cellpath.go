package value

import (
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/span"
)

// PathMember is one step of a cell path: a column name into a record or an
// index into a list. Exactly one of the two shapes is active.
type PathMember struct {
	IsString bool
	String   string
	Int      int
	Sp       span.Span
}

func PathString(s string, sp span.Span) PathMember {
	return PathMember{IsString: true, String: s, Sp: sp}
}

func PathInt(i int, sp span.Span) PathMember {
	return PathMember{Int: i, Sp: sp}
}

// CellPath addresses a nested position inside a structured value. Built
// once per command invocation and immutable afterwards; applying it to many
// rows shares the same members.
type CellPath struct {
	Members []PathMember
}

// FollowCellPath walks the members left to right and returns the addressed
// value. A string member against a list of records extracts that column
// from every row, which is how table columns are read.
func FollowCellPath(v Value, members []PathMember) (Value, *diag.Error) {
	cur := v
	for _, m := range members {
		next, err := followOne(cur, m)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func followOne(v Value, m PathMember) (Value, *diag.Error) {
	if ev, ok := v.(*Error); ok {
		return nil, ev.Err
	}
	if m.IsString {
		switch tv := v.(type) {
		case *Record:
			if out, ok := tv.Get(m.String); ok {
				return out, nil
			}
			return nil, diag.NewCantFindColumn(m.String, tv.Cols, m.Sp, tv.Span())
		case *List:
			out := make([]Value, 0, len(tv.Items))
			for _, item := range tv.Items {
				cell, err := followOne(item, m)
				if err != nil {
					return nil, err
				}
				out = append(out, cell)
			}
			return &List{Items: out, Sp: tv.Sp}, nil
		default:
			return nil, diag.NewIncompatiblePathAccess(v.Kind().TypeName(), m.Sp)
		}
	}
	switch tv := v.(type) {
	case *List:
		if m.Int < 0 || m.Int >= len(tv.Items) {
			return nil, diag.NewAccessBeyondEnd(len(tv.Items), m.Sp)
		}
		return tv.Items[m.Int], nil
	default:
		return nil, diag.NewNotAList(m.Sp, v.Span())
	}
}

// UpdateCellPath rebuilds the path from root to the addressed leaf, each
// ancestor reconstructed with the single child slot replaced; siblings are
// shared, never copied. A failing replace turns into an Error value at the
// leaf position so a batch operation keeps the rows that succeeded.
func UpdateCellPath(v Value, members []PathMember, replace func(Value) (Value, *diag.Error)) (Value, *diag.Error) {
	if len(members) == 0 {
		out, err := replace(v)
		if err != nil {
			return NewError(err), nil
		}
		return out, nil
	}
	m := members[0]
	if ev, ok := v.(*Error); ok {
		return nil, ev.Err
	}
	if m.IsString {
		switch tv := v.(type) {
		case *Record:
			for i, c := range tv.Cols {
				if c == m.String {
					child, err := UpdateCellPath(tv.Vals[i], members[1:], replace)
					if err != nil {
						return nil, err
					}
					vals := make([]Value, len(tv.Vals))
					copy(vals, tv.Vals)
					vals[i] = child
					return &Record{Cols: tv.Cols, Vals: vals, Sp: tv.Sp}, nil
				}
			}
			return nil, diag.NewCantFindColumn(m.String, tv.Cols, m.Sp, tv.Span())
		case *List:
			items := make([]Value, len(tv.Items))
			for i, item := range tv.Items {
				updated, err := UpdateCellPath(item, members, replace)
				if err != nil {
					return nil, err
				}
				items[i] = updated
			}
			return &List{Items: items, Sp: tv.Sp}, nil
		default:
			return nil, diag.NewIncompatiblePathAccess(v.Kind().TypeName(), m.Sp)
		}
	}
	switch tv := v.(type) {
	case *List:
		if m.Int < 0 || m.Int >= len(tv.Items) {
			return nil, diag.NewAccessBeyondEnd(len(tv.Items), m.Sp)
		}
		child, err := UpdateCellPath(tv.Items[m.Int], members[1:], replace)
		if err != nil {
			return nil, err
		}
		items := make([]Value, len(tv.Items))
		copy(items, tv.Items)
		items[m.Int] = child
		return &List{Items: items, Sp: tv.Sp}, nil
	default:
		return nil, diag.NewNotAList(m.Sp, v.Span())
	}
}
