package scene

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kelpwatch/kelpcarbon/internal/geom"
)

const victoriaWKT = "POLYGON((-123.5 48.4,-123.4 48.4,-123.4 48.5,-123.5 48.5,-123.5 48.4))"

func resolveAOI(t *testing.T, w string) *geom.AreaOfInterest {
	t.Helper()
	aoi, err := geom.Resolve(w)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return aoi
}

func TestSyntheticGeneratorDeterministic(t *testing.T) {
	aoi := resolveAOI(t, victoriaWKT)
	date := time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)
	gen := NewSyntheticGenerator(32, -9999)

	a := gen.Generate(aoi, date)
	b := gen.Generate(aoi, date)

	for _, name := range RequiredBands {
		if diff := cmp.Diff(a.Band(name).Data, b.Band(name).Data); diff != "" {
			t.Errorf("band %s not deterministic (-first +second):\n%s", name, diff)
		}
	}
}

func TestSyntheticGeneratorVariesByDate(t *testing.T) {
	aoi := resolveAOI(t, victoriaWKT)
	gen := NewSyntheticGenerator(32, -9999)

	a := gen.Generate(aoi, time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	b := gen.Generate(aoi, time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC))

	if cmp.Equal(a.Band(BandNIR).Data, b.Band(BandNIR).Data) {
		t.Error("different dates produced identical NIR bands")
	}
}

func TestSyntheticGeneratorShapeAndTransform(t *testing.T) {
	aoi := resolveAOI(t, victoriaWKT)
	gen := NewSyntheticGenerator(64, -9999)
	bs := gen.Generate(aoi, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	w, h := bs.Shape()
	if w != 64 || h != 64 {
		t.Errorf("Shape() = %d×%d, want 64×64", w, h)
	}
	for _, name := range RequiredBands {
		if bs.Band(name) == nil {
			t.Errorf("missing band %s", name)
		}
	}

	// Top-left pixel must sit inside the AOI bound.
	lon, lat := bs.Transform.LonLat(0, 0)
	if lon < -123.5 || lon > -123.4 || lat < 48.4 || lat > 48.5 {
		t.Errorf("pixel (0,0) at (%f, %f), outside AOI bound", lon, lat)
	}
	if bs.Transform.PixelHeight >= 0 {
		t.Errorf("PixelHeight = %f, want negative (rows grow south)", bs.Transform.PixelHeight)
	}
	if bs.ResolutionM <= 0 {
		t.Errorf("ResolutionM = %f, want > 0", bs.ResolutionM)
	}
}

func TestSyntheticReflectanceMostlyValid(t *testing.T) {
	aoi := resolveAOI(t, victoriaWKT)
	gen := NewSyntheticGenerator(64, -9999)
	bs := gen.Generate(aoi, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))

	red := bs.Band(BandRed)
	inRange := 0
	for _, v := range red.Data {
		if v >= 0 && v <= 1 {
			inRange++
		}
	}
	frac := float64(inRange) / float64(len(red.Data))
	if frac < 0.95 {
		t.Errorf("in-range red fraction = %f, want ≥0.95", frac)
	}
}
