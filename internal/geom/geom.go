// Package geom resolves WKT polygon input into a validated area of interest
// with a geodesic surface area and a normalized content hash.
package geom

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ErrInvalidGeometry reports malformed or out-of-range polygon input. It is a
// client-input error and is never retried.
var ErrInvalidGeometry = errors.New("invalid geometry")

// closeTolerance is the floating tolerance for the ring closure check.
const closeTolerance = 1e-9

// authalicRadiusM is the WGS84 authalic sphere radius in metres. Areas on
// this sphere match areas on the ellipsoid.
const authalicRadiusM = 6371007.1809

// AreaOfInterest is a validated closed polygon ring with its geodesic area.
// Immutable once resolved.
type AreaOfInterest struct {
	Ring   orb.Ring
	AreaM2 float64
}

// Resolve parses and validates a WKT POLYGON and computes its geodesic area.
func Resolve(input string) (*AreaOfInterest, error) {
	poly, err := wkt.UnmarshalPolygon(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("%w: not a POLYGON: %v", ErrInvalidGeometry, err)
	}
	if len(poly) == 0 {
		return nil, fmt.Errorf("%w: polygon has no exterior ring", ErrInvalidGeometry)
	}
	if len(poly) > 1 {
		return nil, fmt.Errorf("%w: interior rings are not supported", ErrInvalidGeometry)
	}

	ring := poly[0]
	if len(ring) < 4 {
		return nil, fmt.Errorf("%w: ring has %d points, need at least 4", ErrInvalidGeometry, len(ring))
	}

	first, last := ring[0], ring[len(ring)-1]
	if math.Abs(first[0]-last[0]) > closeTolerance || math.Abs(first[1]-last[1]) > closeTolerance {
		return nil, fmt.Errorf("%w: ring is not closed", ErrInvalidGeometry)
	}

	for i, pt := range ring {
		if pt[0] < -180 || pt[0] > 180 || pt[1] < -90 || pt[1] > 90 {
			return nil, fmt.Errorf("%w: point %d (%f, %f) out of range", ErrInvalidGeometry, i, pt[0], pt[1])
		}
	}

	area := geodesicArea(ring)
	if area <= 0 {
		return nil, fmt.Errorf("%w: ring encloses no area", ErrInvalidGeometry)
	}

	out := &AreaOfInterest{Ring: make(orb.Ring, len(ring)), AreaM2: area}
	copy(out.Ring, ring)
	return out, nil
}

// geodesicArea computes the enclosed area in square metres on the WGS84
// authalic sphere using the spherical excess formulation of Chamberlain and
// Duquette. The closing vertex must repeat the first.
func geodesicArea(ring orb.Ring) float64 {
	if len(ring) < 4 {
		return 0
	}
	sum := 0.0
	for i := 0; i < len(ring)-1; i++ {
		lon1 := ring[i][0] * math.Pi / 180
		lat1 := ring[i][1] * math.Pi / 180
		lon2 := ring[i+1][0] * math.Pi / 180
		lat2 := ring[i+1][1] * math.Pi / 180
		sum += (lon2 - lon1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}
	return math.Abs(sum) * authalicRadiusM * authalicRadiusM / 2
}

// Centroid returns the vertex mean of the ring, excluding the closing vertex.
func (a *AreaOfInterest) Centroid() (lon, lat float64) {
	n := len(a.Ring) - 1
	for i := 0; i < n; i++ {
		lon += a.Ring[i][0]
		lat += a.Ring[i][1]
	}
	return lon / float64(n), lat / float64(n)
}

// Bound returns the bounding box of the ring.
func (a *AreaOfInterest) Bound() orb.Bound {
	return a.Ring.Bound()
}

// WKT serializes the ring back to a WKT POLYGON string.
func (a *AreaOfInterest) WKT() string {
	return wkt.MarshalString(orb.Polygon{a.Ring})
}

// Hash returns a fixed-length content digest of the normalized ring, so that
// semantically identical polygons expressed with different string formatting
// hash identically. Normalization drops the closing vertex, forces
// counter-clockwise winding, rotates the ring to start at its smallest
// vertex, and fixes coordinate precision.
func (a *AreaOfInterest) Hash() string {
	n := len(a.Ring) - 1
	pts := make([]orb.Point, n)
	copy(pts, a.Ring[:n])

	if a.Ring.Orientation() == orb.CW {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}

	start := 0
	for i := 1; i < len(pts); i++ {
		if pts[i][0] < pts[start][0] || (pts[i][0] == pts[start][0] && pts[i][1] < pts[start][1]) {
			start = i
		}
	}

	h := sha256.New()
	for i := 0; i < len(pts); i++ {
		pt := pts[(start+i)%len(pts)]
		fmt.Fprintf(h, "%.9f %.9f;", pt[0], pt[1])
	}
	return hex.EncodeToString(h.Sum(nil))
}
