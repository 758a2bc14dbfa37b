package pipeline

import "github.com/rillshell/rill/internal/value"

// Stream is a single-pass, possibly infinite producer of values. Pulling
// the next element may perform work; nothing is buffered on behalf of the
// consumer.
type Stream struct {
	next func() (value.Value, bool)
}

func FromFunc(next func() (value.Value, bool)) *Stream {
	return &Stream{next: next}
}

func FromSlice(items []value.Value) *Stream {
	i := 0
	return &Stream{next: func() (value.Value, bool) {
		if i >= len(items) {
			return nil, false
		}
		v := items[i]
		i++
		return v, true
	}}
}

func emptyStream() *Stream {
	return &Stream{next: func() (value.Value, bool) { return nil, false }}
}

func (s *Stream) Next() (value.Value, bool) {
	return s.next()
}

// Collect drains the stream into a slice. This is a deliberate
// materialization point; callers must only do this when order or length is
// actually required.
func (s *Stream) Collect() []value.Value {
	var out []value.Value
	for {
		v, ok := s.next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
