package geo

import (
	"math"
	"testing"

	"github.com/Meshack-Mesh/house-hunt-view/api"
)

func TestDistance_SamePoint(t *testing.T) {
	p := api.Coordinates{Lat: -1.2577, Lng: 36.7888}
	if d := Distance(p, p); d != 0 {
		t.Errorf("Expected 0, got %v", d)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	westlands := api.Coordinates{Lat: -1.2577, Lng: 36.7888}
	karen := api.Coordinates{Lat: -1.3197, Lng: 36.7084}

	ab := Distance(westlands, karen)
	ba := Distance(karen, westlands)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("Expected symmetric distance, got %v and %v", ab, ba)
	}
}

func TestDistance_KnownValues(t *testing.T) {
	tests := []struct {
		name    string
		a, b    api.Coordinates
		wantKm  float64
		epsilon float64
	}{
		{
			name:    "one degree of latitude",
			a:       api.Coordinates{Lat: 0, Lng: 0},
			b:       api.Coordinates{Lat: 1, Lng: 0},
			wantKm:  111.19,
			epsilon: 0.05,
		},
		{
			name:    "westlands to karen",
			a:       api.Coordinates{Lat: -1.2577, Lng: 36.7888},
			b:       api.Coordinates{Lat: -1.3197, Lng: 36.7084},
			wantKm:  11.29,
			epsilon: 0.1,
		},
		{
			name:    "antipodes",
			a:       api.Coordinates{Lat: 0, Lng: 0},
			b:       api.Coordinates{Lat: 0, Lng: 180},
			wantKm:  math.Pi * EarthRadiusKm,
			epsilon: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.epsilon {
				t.Errorf("Distance() = %v, want %v ± %v", got, tt.wantKm, tt.epsilon)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	westlands := api.Coordinates{Lat: -1.2577, Lng: 36.7888}
	karen := api.Coordinates{Lat: -1.3197, Lng: 36.7084}

	if !Within(westlands, karen, 15) {
		t.Error("Expected karen within 15 km of westlands")
	}
	if Within(westlands, karen, 5) {
		t.Error("Expected karen outside 5 km of westlands")
	}
}

func TestDirectionsURL(t *testing.T) {
	got := DirectionsURL(api.Coordinates{Lat: -1.2921, Lng: 36.8219})
	want := "https://www.google.com/maps/dir/?api=1&destination=-1.2921,36.8219&travelmode=driving"
	if got != want {
		t.Errorf("DirectionsURL() = %q, want %q", got, want)
	}
}

func TestBucketKm(t *testing.T) {
	tests := []struct {
		km   float64
		want float64
	}{
		{0, 0},
		{0.01, 0.5},
		{0.5, 0.5},
		{4.9927, 5},
		{5.0405, 5.5},
		{11.2849, 11.5},
	}

	for _, tt := range tests {
		if got := BucketKm(tt.km); got != tt.want {
			t.Errorf("BucketKm(%v) = %v, want %v", tt.km, got, tt.want)
		}
	}
}
