// Package mapping renders visualization payloads for analysis results. It is
// a collaborator of the pipeline: a rendering failure degrades the
// visualization field of the result and never fails the analysis itself.
package mapping

import (
	"fmt"

	"github.com/kelpwatch/kelpcarbon/internal/biomass"
	"github.com/kelpwatch/kelpcarbon/internal/geom"
)

// Visualization kinds accepted by the service.
const (
	KindRawData             = "raw-data"
	KindRenderedImage       = "rendered-image"
	KindEmbeddedInteractive = "embedded-interactive"
)

// Service dispatches a render request to the renderer for its kind.
type Service struct{}

// NewService creates a mapping service.
func NewService() *Service {
	return &Service{}
}

// Render produces the payload for the requested kind.
func (s *Service) Render(kind string, aoi *geom.AreaOfInterest, est *biomass.CarbonEstimate) (string, error) {
	switch kind {
	case KindRawData:
		return renderGeoJSON(aoi, est)
	case KindRenderedImage:
		return renderImage(aoi, est)
	case KindEmbeddedInteractive:
		return renderInteractive(aoi, est)
	default:
		return "", fmt.Errorf("unknown visualization kind %q", kind)
	}
}
