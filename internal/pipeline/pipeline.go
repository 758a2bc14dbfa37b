package pipeline

import (
	"strings"

	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

// Metadata rides alongside a stream and describes where its rows came
// from, e.g. which decoder produced them.
type Metadata struct {
	DataSource string
}

// PipelineData is the envelope moving between pipeline stages: exactly one
// of empty, a single materialized value, or a lazy stream.
type PipelineData struct {
	Val    value.Value
	Stream *Stream
	Meta   *Metadata
}

func Empty() PipelineData {
	return PipelineData{}
}

func FromValue(v value.Value) PipelineData {
	return PipelineData{Val: v}
}

func FromStream(s *Stream, meta *Metadata) PipelineData {
	return PipelineData{Stream: s, Meta: meta}
}

func (p PipelineData) IsEmpty() bool {
	return p.Val == nil && p.Stream == nil
}

// IntoValue materializes the data into a single value. For a stream this
// collects every element into a list (or Nothing when the stream was
// empty), which may be expensive or even non-terminating on an unbounded
// producer; callers opt in deliberately.
func (p PipelineData) IntoValue(sp span.Span) value.Value {
	switch {
	case p.Val != nil:
		return p.Val
	case p.Stream != nil:
		items := p.Stream.Collect()
		if len(items) == 0 {
			return &value.Nothing{Sp: sp}
		}
		return &value.List{Items: items, Sp: sp}
	default:
		return &value.Nothing{Sp: sp}
	}
}

// IntoIter flattens the data into a stream of elements: a list expands to
// its items, a record to its column/value pairs, a range produces its
// sequence, any other single value yields itself once.
func (p PipelineData) IntoIter() *Stream {
	switch {
	case p.Stream != nil:
		return p.Stream
	case p.Val != nil:
		switch v := p.Val.(type) {
		case *value.List:
			return FromSlice(v.Items)
		case *value.Record:
			rows := make([]value.Value, len(v.Cols))
			for i := range v.Cols {
				rows[i] = &value.Record{
					Cols: []string{"column", "value"},
					Vals: []value.Value{&value.String{Value: v.Cols[i], Sp: v.Sp}, v.Vals[i]},
					Sp:   v.Sp,
				}
			}
			return FromSlice(rows)
		case *value.Range:
			return FromFunc(v.Iter())
		case *value.Nothing:
			return emptyStream()
		default:
			return FromSlice([]value.Value{p.Val})
		}
	default:
		return emptyStream()
	}
}

// Map applies f lazily per element, checking the interrupt between
// elements. Cancellation truncates the output silently; the shorter stream
// is a successful result, not an error.
func (p PipelineData) Map(interrupt *Interrupt, f func(value.Value) value.Value) PipelineData {
	iter := p.IntoIter()
	return FromStream(FromFunc(func() (value.Value, bool) {
		if interrupt.Triggered() {
			return nil, false
		}
		v, ok := iter.Next()
		if !ok {
			return nil, false
		}
		return f(v), true
	}), p.Meta)
}

// CollectString renders every element to text joined by sep. Unlike Map
// this is an explicit, full materialization.
func (p PipelineData) CollectString(sep string) string {
	var parts []string
	iter := p.IntoIter()
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		parts = append(parts, v.Inspect())
	}
	return strings.Join(parts, sep)
}
