// Package scene acquires aligned multispectral band rasters for an area of
// interest and date, preferring a real imagery catalog and falling back to a
// deterministic synthetic generator.
package scene

// Band names used throughout the pipeline. The wavelengths follow the
// Sentinel-2 band layout: red B4 (665nm), red edge B5 (705nm), NIR B8
// (842nm), SWIR B11 (1610nm).
const (
	BandRed     = "red"
	BandRedEdge = "red_edge"
	BandNIR     = "nir"
	BandSWIR    = "swir"
)

// RequiredBands lists every band an acquisition must carry.
var RequiredBands = []string{BandRed, BandRedEdge, BandNIR, BandSWIR}

// Source identifies where an acquisition's reflectance data came from.
type Source string

const (
	// SourceReal marks bands derived from a real satellite scene.
	SourceReal Source = "real"
	// SourceSynthetic marks bands produced by the synthetic generator.
	SourceSynthetic Source = "synthetic"
)

// Grid is a dense row-major 2D raster of reflectance values.
type Grid struct {
	Width  int
	Height int
	Data   []float64
}

// NewGrid allocates a zeroed Width×Height grid.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Data: make([]float64, width*height)}
}

// At returns the value at column x, row y.
func (g *Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

// Set stores v at column x, row y.
func (g *Grid) Set(x, y int, v float64) {
	g.Data[y*g.Width+x] = v
}

// Geotransform maps pixel coordinates to geographic coordinates. The origin
// is the top-left corner; PixelHeight is negative because rows grow south.
type Geotransform struct {
	OriginLon   float64
	OriginLat   float64
	PixelWidth  float64
	PixelHeight float64
}

// LonLat returns the geographic coordinate of the pixel centre at (x, y).
func (t Geotransform) LonLat(x, y int) (lon, lat float64) {
	lon = t.OriginLon + (float64(x)+0.5)*t.PixelWidth
	lat = t.OriginLat + (float64(y)+0.5)*t.PixelHeight
	return lon, lat
}

// BandSet holds one acquisition's aligned band grids. It is owned exclusively
// by the request that produced it and is discarded after index computation.
type BandSet struct {
	Bands       map[string]*Grid
	Transform   Geotransform
	ResolutionM float64
}

// Band returns the named grid, or nil when absent.
func (b *BandSet) Band(name string) *Grid {
	return b.Bands[name]
}

// Shape returns the common width and height of the band grids.
func (b *BandSet) Shape() (width, height int) {
	for _, g := range b.Bands {
		return g.Width, g.Height
	}
	return 0, 0
}

// Acquisition is the tagged result of an acquire call: the bands plus the
// source that produced them and diagnostic metadata such as the scene id or
// the fallback reason.
type Acquisition struct {
	Bands    *BandSet
	Source   Source
	Metadata map[string]string
}
