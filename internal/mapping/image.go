package mapping

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"

	"github.com/kelpwatch/kelpcarbon/internal/biomass"
	"github.com/kelpwatch/kelpcarbon/internal/geom"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// renderImage draws the AOI outline as a static PNG and returns it
// base64-encoded.
func renderImage(aoi *geom.AreaOfInterest, est *biomass.CarbonEstimate) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Kelp carbon analysis: %.0f t biomass, %.0f t CO2e", est.BiomassT, est.CO2eT)
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	xys := make(plotter.XYs, len(aoi.Ring))
	for i, pt := range aoi.Ring {
		xys[i].X = pt[0]
		xys[i].Y = pt[1]
	}

	poly, err := plotter.NewPolygon(xys)
	if err != nil {
		return "", fmt.Errorf("build polygon plotter: %w", err)
	}
	poly.Color = color.NRGBA{R: 46, G: 139, B: 87, A: 120}
	poly.LineStyle.Color = color.NRGBA{R: 20, G: 80, B: 50, A: 255}
	poly.LineStyle.Width = vg.Points(1.5)
	p.Add(poly)

	writer, err := p.WriterTo(6*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return "", fmt.Errorf("prepare png writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("render png: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
