package geom

import (
	"errors"
	"math"
	"testing"
)

const victoriaWKT = "POLYGON((-123.5 48.4,-123.4 48.4,-123.4 48.5,-123.5 48.5,-123.5 48.4))"

func TestResolveValidPolygon(t *testing.T) {
	aoi, err := Resolve(victoriaWKT)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// A 0.1°×0.1° cell near 48.4°N is roughly 8.2e7 m².
	if aoi.AreaM2 < 8.0e7 || aoi.AreaM2 > 8.4e7 {
		t.Errorf("AreaM2 = %e, want ≈8.2e7", aoi.AreaM2)
	}

	lon, lat := aoi.Centroid()
	if math.Abs(lon-(-123.45)) > 1e-9 || math.Abs(lat-48.45) > 1e-9 {
		t.Errorf("Centroid() = (%f, %f), want (-123.45, 48.45)", lon, lat)
	}
}

func TestResolveInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		wkt  string
	}{
		{"empty string", ""},
		{"not wkt", "circle of radius 5"},
		{"point geometry", "POINT(-123.5 48.4)"},
		{"unclosed three points", "POLYGON((-123.5 48.4,-123.4 48.4,-123.4 48.4))"},
		{"unclosed ring", "POLYGON((-123.5 48.4,-123.4 48.4,-123.4 48.5,-123.5 48.5))"},
		{"longitude out of range", "POLYGON((-223.5 48.4,-123.4 48.4,-123.4 48.5,-223.5 48.4))"},
		{"latitude out of range", "POLYGON((-123.5 98.4,-123.4 98.4,-123.4 98.5,-123.5 98.4))"},
		{"zero area", "POLYGON((-123.5 48.4,-123.5 48.4,-123.5 48.4,-123.5 48.4))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.wkt)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Resolve(%q) error = %v, want ErrInvalidGeometry", tt.wkt, err)
			}
		})
	}
}

func TestResolveToleratesNearClosure(t *testing.T) {
	// First and last vertices differ by less than the closure tolerance.
	wkt := "POLYGON((-123.5 48.4,-123.4 48.4,-123.4 48.5,-123.5 48.5,-123.5000000001 48.4))"
	if _, err := Resolve(wkt); err != nil {
		t.Errorf("Resolve rejected ring closed within tolerance: %v", err)
	}
}

func TestAreaPositiveForValidPolygons(t *testing.T) {
	tests := []struct {
		name string
		wkt  string
	}{
		{"victoria box", victoriaWKT},
		{"triangle", "POLYGON((0 0,1 0,0.5 1,0 0))"},
		{"southern hemisphere", "POLYGON((151.2 -33.9,151.3 -33.9,151.3 -33.8,151.2 -33.8,151.2 -33.9))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aoi, err := Resolve(tt.wkt)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if aoi.AreaM2 <= 0 {
				t.Errorf("AreaM2 = %f, want > 0", aoi.AreaM2)
			}
		})
	}
}

func TestHashInsensitiveToFormatting(t *testing.T) {
	base, err := Resolve(victoriaWKT)
	if err != nil {
		t.Fatal(err)
	}

	variants := []string{
		// Extra whitespace and trailing zeros.
		"POLYGON(( -123.50 48.40, -123.40 48.40, -123.40 48.50, -123.50 48.50, -123.50 48.40 ))",
		// Reversed winding.
		"POLYGON((-123.5 48.4,-123.5 48.5,-123.4 48.5,-123.4 48.4,-123.5 48.4))",
		// Different start vertex.
		"POLYGON((-123.4 48.4,-123.4 48.5,-123.5 48.5,-123.5 48.4,-123.4 48.4))",
	}

	for _, v := range variants {
		aoi, err := Resolve(v)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", v, err)
		}
		if aoi.Hash() != base.Hash() {
			t.Errorf("Hash(%q) = %s, want %s", v, aoi.Hash(), base.Hash())
		}
	}
}

func TestHashDistinguishesPolygons(t *testing.T) {
	a, _ := Resolve(victoriaWKT)
	b, _ := Resolve("POLYGON((-123.6 48.4,-123.4 48.4,-123.4 48.5,-123.6 48.5,-123.6 48.4))")
	if a.Hash() == b.Hash() {
		t.Error("different polygons produced the same hash")
	}
	if len(a.Hash()) != 64 {
		t.Errorf("hash length = %d, want 64", len(a.Hash()))
	}
}
