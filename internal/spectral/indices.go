package spectral

import (
	"fmt"
	"math"

	"github.com/kelpwatch/kelpcarbon/internal/scene"
	"gonum.org/v1/gonum/stat"
)

// Band centre wavelengths in nanometres (Sentinel-2 layout).
const (
	wavelengthRedEdgeNm = 705.0
	wavelengthNIRNm     = 842.0
	wavelengthSWIRNm    = 1610.0
)

// faiBaselineRatio positions the NIR wavelength on the red-edge->SWIR line.
const faiBaselineRatio = (wavelengthNIRNm - wavelengthRedEdgeNm) / (wavelengthSWIRNm - wavelengthRedEdgeNm)

// ndreDenomEpsilon excludes pixels whose NDRE denominator is effectively
// zero; they are dropped from the mean rather than treated as zero.
const ndreDenomEpsilon = 1e-9

// Summary aggregates spectral indices across the valid pixels of one scene.
type Summary struct {
	MeanFAI            float64 `json:"mean_fai"`
	MeanNDRE           float64 `json:"mean_ndre"`
	ValidPixelFraction float64 `json:"valid_pixel_fraction"`
}

// Compute calculates FAI and NDRE per valid pixel and aggregates to area
// means. Traversal is row-major so repeated calls on identical input are
// bit-identical. The summary is undefined without any valid pixel, in which
// case ErrInsufficientCoverage is returned.
func Compute(bands *scene.BandSet, mask *PixelMask) (*Summary, error) {
	nir := bands.Band(scene.BandNIR)
	redEdge := bands.Band(scene.BandRedEdge)
	swir := bands.Band(scene.BandSWIR)
	if nir == nil || redEdge == nil || swir == nil {
		return nil, fmt.Errorf("band set missing an index band")
	}
	if len(nir.Data) != len(mask.Valid) {
		return nil, fmt.Errorf("mask shape %d does not match bands %d", len(mask.Valid), len(nir.Data))
	}

	valid := mask.ValidCount()
	if valid == 0 {
		return nil, fmt.Errorf("%w: no valid pixels to aggregate", ErrInsufficientCoverage)
	}

	fai := make([]float64, 0, valid)
	ndre := make([]float64, 0, valid)

	for i, ok := range mask.Valid {
		if !ok {
			continue
		}
		baseline := redEdge.Data[i] + (swir.Data[i]-redEdge.Data[i])*faiBaselineRatio
		fai = append(fai, nir.Data[i]-baseline)

		denom := nir.Data[i] + redEdge.Data[i]
		if math.Abs(denom) < ndreDenomEpsilon {
			continue
		}
		ndre = append(ndre, (nir.Data[i]-redEdge.Data[i])/denom)
	}

	s := &Summary{ValidPixelFraction: mask.ValidFraction()}
	s.MeanFAI = stat.Mean(fai, nil)
	if len(ndre) > 0 {
		s.MeanNDRE = stat.Mean(ndre, nil)
	}
	return s, nil
}
