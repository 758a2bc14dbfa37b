package value

import (
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/span"
)

// Range is a numeric sequence described by its endpoints and step, each a
// numeric Value. Descending ranges are expressed with To < From; Inclusive
// controls whether To itself is produced.
type Range struct {
	From      Value
	To        Value
	Incr      Value
	Inclusive bool
	Sp        span.Span
}

func (r *Range) Kind() Kind      { return RangeKind }
func (r *Range) Span() span.Span { return r.Sp }
func (r *Range) Inspect() string {
	op := "..<"
	if r.Inclusive {
		op = ".."
	}
	return r.From.Inspect() + op + r.To.Inspect()
}

func numeric(v Value) (float64, bool) {
	switch n := v.(type) {
	case *Int:
		return float64(n.Value), true
	case *Float:
		return n.Value, true
	}
	return 0, false
}

func allInts(vs ...Value) bool {
	for _, v := range vs {
		if _, ok := v.(*Int); !ok {
			return false
		}
	}
	return true
}

// NewRange validates the endpoints and derives a default step of +1 or -1
// from their ordering when incr is nil.
func NewRange(from, to, incr Value, inclusive bool, sp span.Span) (*Range, *diag.Error) {
	f, okF := numeric(from)
	t, okT := numeric(to)
	if !okF || !okT {
		return nil, diag.NewInvalidRange(from.Inspect(), to.Inspect(), sp)
	}
	if incr == nil {
		if t < f {
			incr = &Int{Value: -1, Sp: sp}
		} else {
			incr = &Int{Value: 1, Sp: sp}
		}
	}
	step, okS := numeric(incr)
	if !okS || step == 0 {
		return nil, diag.NewInvalidRange(from.Inspect(), to.Inspect(), sp)
	}
	if (step > 0 && t < f) || (step < 0 && t > f) {
		return nil, diag.NewInvalidRange(from.Inspect(), to.Inspect(), sp)
	}
	return &Range{From: from, To: to, Incr: incr, Inclusive: inclusive, Sp: sp}, nil
}

// Contains reports whether the numeric value n falls between the endpoints,
// honoring direction and end exclusivity.
func (r *Range) Contains(v Value) (bool, bool) {
	n, ok := numeric(v)
	if !ok {
		return false, false
	}
	f, _ := numeric(r.From)
	t, _ := numeric(r.To)
	lo, hi := f, t
	if lo > hi {
		lo, hi = hi, lo
	}
	if r.Inclusive {
		return n >= lo && n <= hi, true
	}
	return n >= lo && n < hi, true
}

// Iter walks the range. Steps stay integral when every endpoint is an Int,
// so 1..3 yields ints and 1..0.5..3 yields floats.
func (r *Range) Iter() func() (Value, bool) {
	f, _ := numeric(r.From)
	t, _ := numeric(r.To)
	step, _ := numeric(r.Incr)
	ints := allInts(r.From, r.To, r.Incr)
	cur := f
	done := false
	return func() (Value, bool) {
		if done {
			return nil, false
		}
		if step > 0 {
			if r.Inclusive && cur > t || !r.Inclusive && cur >= t {
				done = true
				return nil, false
			}
		} else {
			if r.Inclusive && cur < t || !r.Inclusive && cur <= t {
				done = true
				return nil, false
			}
		}
		var out Value
		if ints {
			out = &Int{Value: int64(cur), Sp: r.Sp}
		} else {
			out = &Float{Value: cur, Sp: r.Sp}
		}
		cur += step
		return out, true
	}
}
