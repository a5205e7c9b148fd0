package biomass

import (
	"github.com/kelpwatch/kelpcarbon/internal/spectral"
	"github.com/kelpwatch/kelpcarbon/internal/units"
)

// CarbonEstimate is the immutable result of one analysis. It is constructed
// once by Estimate and never mutated after return.
type CarbonEstimate struct {
	AreaM2            float64           `json:"area_m2"`
	MeanFAI           float64           `json:"mean_fai"`
	MeanNDRE          float64           `json:"mean_ndre"`
	ValidPixelFrac    float64           `json:"valid_pixel_fraction"`
	BiomassDensityTHa float64           `json:"biomass_density_t_ha"`
	BiomassT          float64           `json:"biomass_t"`
	CarbonT           float64           `json:"carbon_t"`
	CO2eT             float64           `json:"co2e_t"`
	DataSource        string            `json:"data_source"`
	SourceMetadata    map[string]string `json:"source_metadata,omitempty"`
}

// Estimate feeds the area-mean indices to the regression model and converts
// the predicted density to totals for the area. Negative model output is
// clamped to zero, the physical lower bound. dataSource and sourceMetadata
// are carried through so the estimate is complete at construction.
func Estimate(summary *spectral.Summary, areaM2 float64, model Model, dataSource string, sourceMetadata map[string]string) *CarbonEstimate {
	densityKgM2 := model.Predict(summary.MeanFAI, summary.MeanNDRE)
	if densityKgM2 < 0 {
		densityKgM2 = 0
	}

	biomassT := units.TonnesFromKg(densityKgM2 * areaM2)
	carbonT := units.CarbonFromBiomass(biomassT)

	return &CarbonEstimate{
		AreaM2:            areaM2,
		MeanFAI:           summary.MeanFAI,
		MeanNDRE:          summary.MeanNDRE,
		ValidPixelFrac:    summary.ValidPixelFraction,
		BiomassDensityTHa: units.DensityTPerHa(densityKgM2),
		BiomassT:          biomassT,
		CarbonT:           carbonT,
		CO2eT:             units.CO2eFromCarbon(carbonT),
		DataSource:        dataSource,
		SourceMetadata:    sourceMetadata,
	}
}
