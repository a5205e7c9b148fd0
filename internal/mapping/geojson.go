package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/kelpwatch/kelpcarbon/internal/biomass"
	"github.com/kelpwatch/kelpcarbon/internal/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// renderGeoJSON produces a GeoJSON Feature of the AOI carrying the result
// metrics as properties. This payload needs no rendering stack on the
// consumer side.
func renderGeoJSON(aoi *geom.AreaOfInterest, est *biomass.CarbonEstimate) (string, error) {
	f := geojson.NewFeature(orb.Polygon{aoi.Ring})
	f.Properties = geojson.Properties{
		"area_m2":              est.AreaM2,
		"mean_fai":             est.MeanFAI,
		"mean_ndre":            est.MeanNDRE,
		"biomass_t":            est.BiomassT,
		"biomass_density_t_ha": est.BiomassDensityTHa,
		"carbon_t":             est.CarbonT,
		"co2e_t":               est.CO2eT,
		"data_source":          est.DataSource,
	}

	data, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("marshal geojson: %w", err)
	}
	return string(data), nil
}
