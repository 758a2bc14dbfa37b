package span

import "testing"

func TestSlice(t *testing.T) {
	src := []byte("let x = 10")
	tests := []struct {
		name string
		sp   Span
		want string
	}{
		{"word", New(4, 5), "x"},
		{"tail", New(8, 10), "10"},
		{"whole", New(0, 10), "let x = 10"},
		{"out of range", New(4, 99), ""},
		{"inverted", Span{Start: 5, End: 2}, ""},
	}
	for _, tt := range tests {
		if got := tt.sp.Slice(src); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUnion(t *testing.T) {
	got := Union([]Span{New(5, 9), New(2, 4), New(7, 12)})
	if got.Start != 2 || got.End != 12 {
		t.Errorf("got %+v, want [2, 12)", got)
	}
	if !Union(nil).IsUnknown() {
		t.Error("empty union should be unknown")
	}
}

func TestUnknown(t *testing.T) {
	if !Unknown().IsUnknown() {
		t.Error("Unknown() must report IsUnknown")
	}
	if New(1, 2).IsUnknown() {
		t.Error("a real span must not report IsUnknown")
	}
	if New(3, 7).Len() != 4 {
		t.Error("wrong length")
	}
}
