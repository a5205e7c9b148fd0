// Package spectral derives quality masks and spectral indices from acquired
// band rasters.
package spectral

import (
	"errors"
	"fmt"

	"github.com/kelpwatch/kelpcarbon/internal/scene"
)

// ErrInsufficientCoverage reports that the masked scene holds too few usable
// pixels to analyze. It is surfaced to the caller as a "cannot analyze this
// area/date" condition and is never retried automatically.
var ErrInsufficientCoverage = errors.New("insufficient coverage")

// MaskParams holds the thresholds driving pixel classification.
type MaskParams struct {
	// NoDataValue is the declared no-data sentinel.
	NoDataValue float64
	// CloudRedThreshold marks a pixel as cloud when red reflectance reaches it.
	CloudRedThreshold float64
	// LandSWIRThreshold marks a pixel as land when SWIR reflectance reaches it.
	LandSWIRThreshold float64
	// MinValidFraction is the coverage below which masking fails. Zero means
	// any scene with at least one valid pixel passes.
	MinValidFraction float64
}

// PixelMask flags which pixels are usable. Same shape as the band grids.
type PixelMask struct {
	Width  int
	Height int
	Valid  []bool
}

// ValidCount returns the number of usable pixels.
func (m *PixelMask) ValidCount() int {
	n := 0
	for _, v := range m.Valid {
		if v {
			n++
		}
	}
	return n
}

// ValidFraction returns the usable share of all pixels.
func (m *PixelMask) ValidFraction() float64 {
	total := len(m.Valid)
	if total == 0 {
		return 0
	}
	return float64(m.ValidCount()) / float64(total)
}

// BuildMask classifies every pixel of the band set. A pixel is invalid when
// any band carries the no-data sentinel or a reflectance outside [0,1], or
// when the cloud/land heuristics flag it. It fails with
// ErrInsufficientCoverage when the valid fraction ends up below
// MinValidFraction or at zero.
func BuildMask(bands *scene.BandSet, p MaskParams) (*PixelMask, error) {
	for _, name := range scene.RequiredBands {
		if bands.Band(name) == nil {
			return nil, fmt.Errorf("band set missing %q", name)
		}
	}

	width, height := bands.Shape()
	mask := &PixelMask{Width: width, Height: height, Valid: make([]bool, width*height)}

	red := bands.Band(scene.BandRed)
	swir := bands.Band(scene.BandSWIR)

	for i := range mask.Valid {
		usable := true
		for _, name := range scene.RequiredBands {
			v := bands.Band(name).Data[i]
			if v == p.NoDataValue || v < 0 || v > 1 {
				usable = false
				break
			}
		}
		if usable && red.Data[i] >= p.CloudRedThreshold {
			usable = false // cloud
		}
		if usable && swir.Data[i] >= p.LandSWIRThreshold {
			usable = false // land
		}
		mask.Valid[i] = usable
	}

	frac := mask.ValidFraction()
	if mask.ValidCount() == 0 || frac < p.MinValidFraction {
		return nil, fmt.Errorf("%w: %.4f of pixels usable (minimum %.4f)", ErrInsufficientCoverage, frac, p.MinValidFraction)
	}

	return mask, nil
}
