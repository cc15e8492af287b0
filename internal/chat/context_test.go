package chat

import (
	"testing"

	"github.com/mohammad-safakhou/wayfarer/internal/catalog"
)

func TestBuildPlaceContextMirrorsNameFields(t *testing.T) {
	cases := []struct {
		name     string
		in       catalog.RawPlace
		wantKey  string
		wantName string
	}{
		{"key only", catalog.RawPlace{Key: "museum"}, "museum", "museum"},
		{"name only", catalog.RawPlace{Name: "City Museum"}, "City Museum", "City Museum"},
		{"title only", catalog.RawPlace{Title: "The Museum"}, "The Museum", "The Museum"},
		{"key and name", catalog.RawPlace{Key: "museum", Name: "City Museum"}, "museum", "City Museum"},
		{"whitespace key", catalog.RawPlace{Key: "  ", Name: "City Museum"}, "City Museum", "City Museum"},
	}
	for _, tc := range cases {
		out := BuildPlaceContext([]catalog.RawPlace{tc.in})
		if len(out) != 1 {
			t.Fatalf("%s: expected 1 entry, got %d", tc.name, len(out))
		}
		if out[0].Key != tc.wantKey || out[0].Name != tc.wantName {
			t.Fatalf("%s: got key=%q name=%q, want key=%q name=%q", tc.name, out[0].Key, out[0].Name, tc.wantKey, tc.wantName)
		}
	}
}

func TestBuildPlaceContextDropsNamelessRecords(t *testing.T) {
	out := BuildPlaceContext([]catalog.RawPlace{
		{Type: "park", Description: "no name at all"},
		{Key: "kept"},
	})
	if len(out) != 1 {
		t.Fatalf("expected nameless record dropped, got %d entries", len(out))
	}
	if out[0].Key != "kept" {
		t.Fatalf("unexpected survivor: %+v", out[0])
	}
	for _, e := range out {
		if e.Key == "" {
			t.Fatalf("entry with empty key leaked: %+v", e)
		}
	}
}

func TestBuildPlaceContextCoordinates(t *testing.T) {
	out := BuildPlaceContext([]catalog.RawPlace{
		{Key: "a", Lat: 52.52, Lng: 13.405},
		{Key: "b"},
	})
	if out[0].Coordinates == nil || out[0].Coordinates.Lat != 52.52 {
		t.Fatalf("expected coordinates preserved, got %+v", out[0].Coordinates)
	}
	if out[1].Coordinates != nil {
		t.Fatalf("expected no coordinates for zero lat/lng, got %+v", out[1].Coordinates)
	}
}
