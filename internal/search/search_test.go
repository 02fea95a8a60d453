package search

import (
	"fmt"
	"testing"

	"github.com/user/fleet-dashboard-api/internal/models"
)

func namedVessels(names ...string) []models.Vessel {
	out := make([]models.Vessel, len(names))
	for i, n := range names {
		out[i] = models.Vessel{ID: fmt.Sprintf("v%d", i), Name: n}
	}
	return out
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"MV Alpha One", "alpha", true},
		{"MV Alpha One", "ALPHA", true},
		{"MV Alpha One", "one", true},
		{"MV Alpha One", "bravo", false},
		{"MV Alpha One", "", true}, // browse mode
		{"", "alpha", false},
	}

	for _, tt := range tests {
		if got := Match(tt.name, tt.query); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.name, tt.query, got, tt.want)
		}
	}
}

func TestFilterBrowseMode(t *testing.T) {
	vessels := namedVessels("Alpha", "Bravo", "Charlie")

	got := Filter(vessels, "")
	if len(got) != 3 {
		t.Fatalf("empty query returned %d vessels, want all 3", len(got))
	}

	// Browse mode returns a copy, not the caller's slice.
	got[0].Name = "mutated"
	if vessels[0].Name != "Alpha" {
		t.Error("Filter result aliases the input slice")
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	vessels := namedVessels("Zulu Star", "Alpha Star", "Bravo", "Star Gazer")

	got := Filter(vessels, "star")
	if len(got) != 3 {
		t.Fatalf("got %d matches, want 3", len(got))
	}
	if got[0].Name != "Zulu Star" || got[1].Name != "Alpha Star" || got[2].Name != "Star Gazer" {
		t.Errorf("matches out of input order: %v", got)
	}
}

func TestSegments(t *testing.T) {
	tests := []struct {
		text  string
		query string
		want  []Segment
	}{
		{
			"MV Alpha One", "alpha",
			[]Segment{{Text: "MV "}, {Text: "Alpha", IsMatch: true}, {Text: " One"}},
		},
		{
			"abcabc", "abc",
			[]Segment{{Text: "abc", IsMatch: true}, {Text: "abc", IsMatch: true}},
		},
		{
			"MV Alpha", "",
			[]Segment{{Text: "MV Alpha"}},
		},
		{
			"MV Alpha", "zzz",
			[]Segment{{Text: "MV Alpha"}},
		},
	}

	for _, tt := range tests {
		got := Segments(tt.text, tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("Segments(%q, %q) = %v, want %v", tt.text, tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Segments(%q, %q)[%d] = %v, want %v", tt.text, tt.query, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSegmentsConcatenation(t *testing.T) {
	texts := []string{"MV Alpha One", "aAaAa", "no match here", "xx"}
	for _, text := range texts {
		for _, query := range []string{"a", "A", "xx", "match", ""} {
			var joined string
			for _, s := range Segments(text, query) {
				joined += s.Text
			}
			if joined != text {
				t.Errorf("Segments(%q, %q) concatenates to %q", text, query, joined)
			}
		}
	}
}

func TestResultsPagination(t *testing.T) {
	names := make([]string, 100)
	for i := range names {
		names[i] = fmt.Sprintf("Vessel %03d", i)
	}
	r := NewResults(namedVessels(names...), "vessel")

	if r.Total() != 100 {
		t.Fatalf("Total = %d, want 100", r.Total())
	}
	for i, want := range []int{30, 60, 90, 100, 100} {
		if got := r.VisibleCount(); got != want {
			t.Fatalf("after %d extends VisibleCount = %d, want %d", i, got, want)
		}
		r.Extend()
	}
	if len(r.Visible()) != 100 {
		t.Errorf("Visible returned %d, want 100", len(r.Visible()))
	}
}

func TestResultsSmallMatchSet(t *testing.T) {
	r := NewResults(namedVessels("Alpha", "Bravo"), "")
	if r.VisibleCount() != 2 {
		t.Errorf("VisibleCount = %d, want 2", r.VisibleCount())
	}
	r.Extend()
	if r.VisibleCount() != 2 {
		t.Errorf("VisibleCount after Extend = %d, want 2", r.VisibleCount())
	}
}

func TestCursor(t *testing.T) {
	names := make([]string, 35)
	for i := range names {
		names[i] = fmt.Sprintf("Vessel %02d", i)
	}
	r := NewResults(namedVessels(names...), "")

	if r.ActiveIndex() != 0 {
		t.Fatalf("initial ActiveIndex = %d, want 0", r.ActiveIndex())
	}

	// Walking past the first batch extends the window.
	for i := 0; i < 30; i++ {
		r.MoveDown()
	}
	if r.ActiveIndex() != 30 {
		t.Errorf("ActiveIndex = %d, want 30", r.ActiveIndex())
	}
	if r.VisibleCount() != 35 {
		t.Errorf("VisibleCount = %d, want 35 after cursor crossed the window", r.VisibleCount())
	}

	// Clamped at the last match.
	for i := 0; i < 10; i++ {
		r.MoveDown()
	}
	if r.ActiveIndex() != 34 {
		t.Errorf("ActiveIndex = %d, want 34", r.ActiveIndex())
	}

	// Clamped at the first match.
	for i := 0; i < 50; i++ {
		r.MoveUp()
	}
	if r.ActiveIndex() != 0 {
		t.Errorf("ActiveIndex = %d, want 0", r.ActiveIndex())
	}

	r.SetActive(10)
	if r.ActiveIndex() != 10 {
		t.Errorf("SetActive(10): ActiveIndex = %d", r.ActiveIndex())
	}
	r.SetActive(999)
	if r.ActiveIndex() != 10 {
		t.Errorf("out-of-window SetActive moved the cursor to %d", r.ActiveIndex())
	}

	v, ok := r.Active()
	if !ok || v.Name != "Vessel 10" {
		t.Errorf("Active = %v %v, want Vessel 10", v, ok)
	}
}

func TestCursorEmptyResults(t *testing.T) {
	r := NewResults(nil, "anything")
	if r.ActiveIndex() != -1 {
		t.Errorf("ActiveIndex = %d, want -1", r.ActiveIndex())
	}
	r.MoveDown()
	if _, ok := r.Active(); ok {
		t.Error("Active reported a match on an empty result set")
	}
}
