package diag

import (
	"testing"

	"github.com/rillshell/rill/internal/span"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"nam", "name", 1},
		{"gumbo", "gambol", 2},
	}
	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDidYouMean(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		attempted  string
		want       string
		found      bool
	}{
		{"closest wins", []string{"name", "size", "type"}, "nam", "name", true},
		{"exact distance one", []string{"size"}, "sizes", "size", true},
		{"tie broken lexicographically", []string{"bc", "ab"}, "ac", "ab", true},
		{"empty candidates", nil, "nam", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DidYouMean(tt.candidates, tt.attempted)
			if ok != tt.found || got != tt.want {
				t.Errorf("DidYouMean(%v, %q) = %q, %t; want %q, %t",
					tt.candidates, tt.attempted, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestErrorMessageIncludesLabels(t *testing.T) {
	err := NewEnvVarNotFound("nam", span.New(1, 4), []string{"name"})
	if err.Kind != EnvVarNotFound {
		t.Fatalf("wrong kind %d", err.Kind)
	}
	want := "did you mean 'name'?"
	found := false
	for _, l := range err.Labels {
		if l.Text == want {
			found = true
		}
	}
	if !found {
		t.Errorf("missing suggestion label in %v", err.Labels)
	}
}
