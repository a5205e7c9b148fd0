package mapping

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/kelpwatch/kelpcarbon/internal/biomass"
	"github.com/kelpwatch/kelpcarbon/internal/geom"
)

// renderInteractive produces a self-contained HTML document plotting the AOI
// outline with the result metrics in the subtitle.
func renderInteractive(aoi *geom.AreaOfInterest, est *biomass.CarbonEstimate) (string, error) {
	b := aoi.Bound()
	padX := (b.Max[0] - b.Min[0]) * 0.1
	padY := (b.Max[1] - b.Min[1]) * 0.1
	if padX == 0 {
		padX = 0.01
	}
	if padY == 0 {
		padY = 0.01
	}

	data := make([]opts.ScatterData, len(aoi.Ring))
	for i, pt := range aoi.Ring {
		data[i] = opts.ScatterData{Value: []interface{}{pt[0], pt[1]}}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Kelp Carbon Analysis",
			Width:     "900px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Kelp carbon analysis",
			Subtitle: fmt.Sprintf("biomass %.0f t | carbon %.0f t | CO2e %.0f t | source %s",
				est.BiomassT, est.CarbonT, est.CO2eT, est.DataSource),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: b.Min[0] - padX, Max: b.Max[0] + padX, Name: "Longitude"}),
		charts.WithYAxisOpts(opts.YAxis{Min: b.Min[1] - padY, Max: b.Max[1] + padY, Name: "Latitude"}),
	)

	scatter.AddSeries("aoi", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return "", fmt.Errorf("render chart: %w", err)
	}
	return buf.String(), nil
}
