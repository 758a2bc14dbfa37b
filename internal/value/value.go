package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/span"
)

type Kind int

const (
	NothingKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
	BinaryKind
	RecordKind
	ListKind
	RangeKind
	BlockKind
	ErrorKind
)

// TypeName is the user-facing type name used in diagnostics.
func (k Kind) TypeName() string {
	switch k {
	case NothingKind:
		return "nothing"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case BinaryKind:
		return "binary"
	case RecordKind:
		return "record"
	case ListKind:
		return "list"
	case RangeKind:
		return "range"
	case BlockKind:
		return "block"
	case ErrorKind:
		return "error"
	}
	return "unknown"
}

// Value is the runtime representation every pipeline stage produces and
// consumes. Each variant carries the span of the source expression it
// originated from so diagnostics can point back at real text.
type Value interface {
	Kind() Kind
	Span() span.Span
	Inspect() string
}

type Nothing struct {
	Sp span.Span
}

func (n *Nothing) Kind() Kind      { return NothingKind }
func (n *Nothing) Span() span.Span { return n.Sp }
func (n *Nothing) Inspect() string { return "" }

type Bool struct {
	Value bool
	Sp    span.Span
}

func (b *Bool) Kind() Kind      { return BoolKind }
func (b *Bool) Span() span.Span { return b.Sp }
func (b *Bool) Inspect() string { return fmt.Sprintf("%t", b.Value) }

type Int struct {
	Value int64
	Sp    span.Span
}

func (i *Int) Kind() Kind      { return IntKind }
func (i *Int) Span() span.Span { return i.Sp }
func (i *Int) Inspect() string { return fmt.Sprintf("%d", i.Value) }

type Float struct {
	Value float64
	Sp    span.Span
}

func (f *Float) Kind() Kind      { return FloatKind }
func (f *Float) Span() span.Span { return f.Sp }
func (f *Float) Inspect() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type String struct {
	Value string
	Sp    span.Span
}

func (s *String) Kind() Kind      { return StringKind }
func (s *String) Span() span.Span { return s.Sp }
func (s *String) Inspect() string { return s.Value }

type Binary struct {
	Value []byte
	Sp    span.Span
}

func (b *Binary) Kind() Kind      { return BinaryKind }
func (b *Binary) Span() span.Span { return b.Sp }
func (b *Binary) Inspect() string { return fmt.Sprintf("%x", b.Value) }

// Record is an ordered mapping: Cols and Vals are parallel and the same
// length, column names unique within one record. Breaking either invariant
// is an engine bug, not a user error.
type Record struct {
	Cols []string
	Vals []Value
	Sp   span.Span
}

func (r *Record) Kind() Kind      { return RecordKind }
func (r *Record) Span() span.Span { return r.Sp }
func (r *Record) Inspect() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, col := range r.Cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(": ")
		sb.WriteString(r.Vals[i].Inspect())
	}
	sb.WriteString("}")
	return sb.String()
}

// Get returns the value of the named column, exact match only.
func (r *Record) Get(col string) (Value, bool) {
	for i, c := range r.Cols {
		if c == col {
			return r.Vals[i], true
		}
	}
	return nil, false
}

type List struct {
	Items []Value
	Sp    span.Span
}

func (l *List) Kind() Kind      { return ListKind }
func (l *List) Span() span.Span { return l.Sp }
func (l *List) Inspect() string {
	parts := make([]string, len(l.Items))
	for i, item := range l.Items {
		parts[i] = item.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Block references a parsed block by id; closures pass through pipelines as
// these references plus their captured variables.
type Block struct {
	ID       int
	Captures map[string]Value
	Sp       span.Span
}

func (b *Block) Kind() Kind      { return BlockKind }
func (b *Block) Span() span.Span { return b.Sp }
func (b *Block) Inspect() string { return "<block>" }

// Error carries a diagnostic as a value so per-element failures can sit in
// a collection next to the elements that succeeded.
type Error struct {
	Err *diag.Error
	Sp  span.Span
}

func (e *Error) Kind() Kind      { return ErrorKind }
func (e *Error) Span() span.Span { return e.Sp }
func (e *Error) Inspect() string { return "ERROR: " + e.Err.Error() }

// NewError wraps a diagnostic, anchoring the value at the diagnostic's own
// covering span.
func NewError(err *diag.Error) *Error {
	return &Error{Err: err, Sp: err.Span()}
}
