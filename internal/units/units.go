// Package units provides shared constants and conversions for biomass and
// carbon quantities. Internally the pipeline works in kilograms of dry weight
// per square metre; reported values use tonnes.
package units

// Carbon accounting constants.
const (
	// CarbonFraction is the carbon share of kelp dry weight (literature value).
	CarbonFraction = 0.325

	// CO2CMassRatio is the stoichiometric CO2:C molar mass ratio (44.01/12.011).
	CO2CMassRatio = 44.01 / 12.011
)

// KgPerTonne is the number of kilograms per tonne.
const KgPerTonne = 1000.0

// M2PerHectare is the number of square metres per hectare.
const M2PerHectare = 10000.0

// TonnesFromKg converts kilograms to tonnes.
func TonnesFromKg(kg float64) float64 {
	return kg / KgPerTonne
}

// DensityTPerHa converts a density in kg/m² to t/ha.
func DensityTPerHa(kgPerM2 float64) float64 {
	return kgPerM2 * M2PerHectare / KgPerTonne
}

// CarbonFromBiomass converts a biomass mass to the contained carbon mass.
func CarbonFromBiomass(biomass float64) float64 {
	return biomass * CarbonFraction
}

// CO2eFromCarbon converts a carbon mass to CO2-equivalent mass.
func CO2eFromCarbon(carbon float64) float64 {
	return carbon * CO2CMassRatio
}
