package locations

import (
	"errors"
	"testing"
)

func TestSearch_EmptyQueryReturnsAll(t *testing.T) {
	g := NewGazetteer()

	got := g.Search("")
	if len(got) != 26 {
		t.Fatalf("Expected 26 places, got %d", len(got))
	}
	if got[0].Kind != KindPopular {
		t.Errorf("Expected popular places first, got %s", got[0].Kind)
	}
	if got[len(got)-1].Kind != KindConstituency {
		t.Errorf("Expected constituencies last, got %s", got[len(got)-1].Kind)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	g := NewGazetteer()

	got := g.Search("PARK")
	if len(got) != 1 || got[0].Name != "Parklands" {
		t.Fatalf("Expected Parklands, got %+v", got)
	}
}

func TestSearch_MatchesConstituencyOfPopularPlace(t *testing.T) {
	g := NewGazetteer()

	got := g.Search("westlands")
	names := make(map[string]bool)
	for _, loc := range got {
		names[loc.Name] = true
	}
	for _, want := range []string{"Sarit Centre", "Parklands", "Westlands"} {
		if !names[want] {
			t.Errorf("Expected %s in results, got %+v", want, got)
		}
	}
	if got[0].Kind != KindPopular {
		t.Errorf("Expected popular place first, got %+v", got[0])
	}
}

func TestSearch_NoMatch(t *testing.T) {
	g := NewGazetteer()

	if got := g.Search("mombasa"); len(got) != 0 {
		t.Errorf("Expected no matches, got %+v", got)
	}
}

func TestResolve_ExactBeatsSubstring(t *testing.T) {
	g := NewGazetteer()

	// "Kibera DC" is listed before "Kibera" but the exact constituency name wins.
	loc, err := g.Resolve("kibera")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loc.Name != "Kibera" || loc.Kind != KindConstituency {
		t.Errorf("Expected Kibera constituency, got %+v", loc)
	}
}

func TestResolve_Substring(t *testing.T) {
	g := NewGazetteer()

	loc, err := g.Resolve("githu")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if loc.Name != "Githurai" {
		t.Errorf("Expected Githurai, got %s", loc.Name)
	}
	if loc.Coordinates.Lat != -1.1833 || loc.Coordinates.Lng != 36.9167 {
		t.Errorf("Unexpected coordinates %+v", loc.Coordinates)
	}
}

func TestResolve_NotFound(t *testing.T) {
	g := NewGazetteer()

	for _, name := range []string{"", "   ", "Nakuru"} {
		if _, err := g.Resolve(name); !errors.Is(err, ErrLocationNotFound) {
			t.Errorf("Resolve(%q): expected ErrLocationNotFound, got %v", name, err)
		}
	}
}
