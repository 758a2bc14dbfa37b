package span

// Span is a half-open byte range [Start, End) into the original source
// buffer. Spans are small and immutable; copy them freely.
type Span struct {
	Start uint32
	End   uint32
}

func New(start, end uint32) Span {
	return Span{Start: start, End: end}
}

// Unknown is used when a value has no source location, e.g. values built
// internally or decoded from external data.
func Unknown() Span {
	return Span{}
}

func (s Span) IsUnknown() bool {
	return s.Start == 0 && s.End == 0
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

// Slice extracts the spanned text from the source buffer. Out-of-range
// spans return an empty string rather than panicking; the caller may hold
// a shorter buffer than the span was created against.
func (s Span) Slice(src []byte) string {
	if int(s.Start) > len(src) || int(s.End) > len(src) || s.Start > s.End {
		return ""
	}
	return string(src[s.Start:s.End])
}

// Union returns the minimal span covering every span in the set. An empty
// set yields the unknown span.
func Union(spans []Span) Span {
	if len(spans) == 0 {
		return Unknown()
	}
	out := spans[0]
	for _, sp := range spans[1:] {
		if sp.Start < out.Start {
			out.Start = sp.Start
		}
		if sp.End > out.End {
			out.End = sp.End
		}
	}
	return out
}
