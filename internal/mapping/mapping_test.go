package mapping

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kelpwatch/kelpcarbon/internal/biomass"
	"github.com/kelpwatch/kelpcarbon/internal/geom"
)

func testFixtures(t *testing.T) (*geom.AreaOfInterest, *biomass.CarbonEstimate) {
	t.Helper()
	aoi, err := geom.Resolve("POLYGON((-123.5 48.4,-123.4 48.4,-123.4 48.5,-123.5 48.5,-123.5 48.4))")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	est := &biomass.CarbonEstimate{
		AreaM2:            8.2e7,
		MeanFAI:           0.093,
		MeanNDRE:          0.060,
		BiomassT:          612750,
		BiomassDensityTHa: 75,
		CarbonT:           199144,
		CO2eT:             729744,
		DataSource:        "synthetic",
	}
	return aoi, est
}

func TestRenderGeoJSON(t *testing.T) {
	aoi, est := testFixtures(t)
	svc := NewService()

	payload, err := svc.Render(KindRawData, aoi, est)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var f struct {
		Type     string `json:"type"`
		Geometry struct {
			Type        string         `json:"type"`
			Coordinates [][][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	}
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if f.Type != "Feature" || f.Geometry.Type != "Polygon" {
		t.Errorf("payload types = %s/%s", f.Type, f.Geometry.Type)
	}
	if len(f.Geometry.Coordinates) != 1 || len(f.Geometry.Coordinates[0]) != 5 {
		t.Errorf("unexpected ring shape in payload")
	}
	if f.Properties["biomass_t"].(float64) != 612750 {
		t.Errorf("biomass_t property = %v", f.Properties["biomass_t"])
	}
	if f.Properties["data_source"] != "synthetic" {
		t.Errorf("data_source property = %v", f.Properties["data_source"])
	}
}

func TestRenderImageProducesPNG(t *testing.T) {
	aoi, est := testFixtures(t)
	svc := NewService()

	payload, err := svc.Render(KindRenderedImage, aoi, est)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload not base64: %v", err)
	}
	if len(raw) < 8 || string(raw[1:4]) != "PNG" {
		t.Error("payload is not a PNG image")
	}
}

func TestRenderInteractiveProducesHTML(t *testing.T) {
	aoi, est := testFixtures(t)
	svc := NewService()

	payload, err := svc.Render(KindEmbeddedInteractive, aoi, est)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(payload, "<html") && !strings.Contains(payload, "<div") {
		t.Error("payload does not look like an HTML document")
	}
	if !strings.Contains(payload, "612750") {
		t.Error("payload missing biomass metric")
	}
}

func TestRenderUnknownKind(t *testing.T) {
	aoi, est := testFixtures(t)
	if _, err := NewService().Render("hologram", aoi, est); err == nil {
		t.Error("Render accepted unknown kind")
	}
}
