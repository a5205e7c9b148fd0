// Package pipeline composes geometry resolution, scene acquisition, masking,
// index computation, and biomass estimation into one cached analysis call.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kelpwatch/kelpcarbon/internal/biomass"
	"github.com/kelpwatch/kelpcarbon/internal/cache"
	"github.com/kelpwatch/kelpcarbon/internal/config"
	"github.com/kelpwatch/kelpcarbon/internal/geom"
	"github.com/kelpwatch/kelpcarbon/internal/httputil"
	"github.com/kelpwatch/kelpcarbon/internal/monitoring"
	"github.com/kelpwatch/kelpcarbon/internal/scene"
	"github.com/kelpwatch/kelpcarbon/internal/spectral"
)

// stage names the steps of one analysis, in execution order. A run either
// reaches stageDone or fails at parsing, masking, or estimating; acquisition
// never fails because it falls back to synthetic data.
type stage string

const (
	stageParsing    stage = "parsing"
	stageAcquiring  stage = "acquiring"
	stageMasking    stage = "masking"
	stageIndexing   stage = "indexing"
	stageEstimating stage = "estimating"
	stageCaching    stage = "caching"
	stageDone       stage = "done"
)

// Acquirer obtains band rasters for an (area, date) request.
type Acquirer interface {
	Acquire(ctx context.Context, aoi *geom.AreaOfInterest, date time.Time, preferReal bool) *scene.Acquisition
}

// Mapper renders a visualization payload for a finished estimate.
type Mapper interface {
	Render(kind string, aoi *geom.AreaOfInterest, est *biomass.CarbonEstimate) (string, error)
}

// Request is one analysis invocation from the serving layer.
type Request struct {
	WKT                  string
	Date                 time.Time
	PreferReal           bool
	IncludeVisualization bool
	VisualizationKind    string
}

// Result is the flat record returned to the serving layer. The embedded
// estimate contributes the spectral and mass fields.
type Result struct {
	Date   string `json:"date"`
	AOIWKT string `json:"aoi_wkt"`
	*biomass.CarbonEstimate
	GeometryHash  string `json:"-"`
	Visualization string `json:"visualization,omitempty"`
}

// Pipeline is the orchestrator. The regression model and the result cache
// are the only state shared across requests; both are read-mostly.
type Pipeline struct {
	Model      biomass.Model
	Acquirer   Acquirer
	Cache      *cache.ResultCache
	MaskParams spectral.MaskParams
	Mapper     Mapper
}

// New builds a Pipeline from configuration. It loads the regression artifact
// immediately: a load failure means the process must refuse to serve, so the
// error surfaces here rather than per request.
func New(cfg *config.Config, client httputil.HTTPClient, mapper Mapper) (*Pipeline, error) {
	model, err := biomass.LoadModel(cfg.GetModelPath())
	if err != nil {
		return nil, fmt.Errorf("pipeline startup: %w", err)
	}

	catalog := scene.NewCatalog(
		cfg.GetCatalogURL(),
		cfg.GetCollection(),
		cfg.GetSearchWindowDays(),
		cfg.GetMaxCloudCover(),
		client,
	)
	synth := scene.NewSyntheticGenerator(cfg.GetGridSize(), cfg.GetNoDataValue())
	acquirer := scene.NewAcquirer(catalog, synth, cfg.GetAcquireTimeout(), cfg.GetGridSize(), nil)

	return &Pipeline{
		Model:      model,
		Acquirer:   acquirer,
		Cache:      cache.New(),
		MaskParams: maskParamsFromConfig(cfg),
		Mapper:     mapper,
	}, nil
}

func maskParamsFromConfig(cfg *config.Config) spectral.MaskParams {
	return spectral.MaskParams{
		NoDataValue:       cfg.GetNoDataValue(),
		CloudRedThreshold: cfg.GetCloudRedThreshold(),
		LandSWIRThreshold: cfg.GetLandSWIRThreshold(),
		MinValidFraction:  cfg.GetMinValidFraction(),
	}
}

// Run executes one analysis. Errors pass through from the failing component
// unmodified; the orchestrator adds no error kinds of its own. A mapper
// failure degrades the Visualization field instead of failing the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	p.logStage(stageParsing, req)
	aoi, err := geom.Resolve(req.WKT)
	if err != nil {
		return nil, err
	}

	dateStr := req.Date.Format("2006-01-02")
	key := cache.Key{GeometryHash: aoi.Hash(), Date: dateStr}

	est, err := p.Cache.GetOrCompute(key, func() (*biomass.CarbonEstimate, error) {
		return p.compute(ctx, aoi, req)
	})
	if err != nil {
		return nil, err
	}
	p.logStage(stageCaching, req)

	result := &Result{
		Date:           dateStr,
		AOIWKT:         req.WKT,
		CarbonEstimate: est,
		GeometryHash:   key.GeometryHash,
	}

	if req.IncludeVisualization && p.Mapper != nil {
		payload, err := p.Mapper.Render(req.VisualizationKind, aoi, est)
		if err != nil {
			monitoring.Logf("pipeline: visualization degraded: %v", err)
			result.Visualization = fmt.Sprintf("visualization failed: %v", err)
		} else {
			result.Visualization = payload
		}
	}

	p.logStage(stageDone, req)
	return result, nil
}

// compute runs the uncached portion: acquire, mask, index, estimate.
func (p *Pipeline) compute(ctx context.Context, aoi *geom.AreaOfInterest, req Request) (*biomass.CarbonEstimate, error) {
	p.logStage(stageAcquiring, req)
	acq := p.Acquirer.Acquire(ctx, aoi, req.Date, req.PreferReal)

	p.logStage(stageMasking, req)
	mask, err := spectral.BuildMask(acq.Bands, p.MaskParams)
	if err != nil {
		return nil, err
	}

	p.logStage(stageIndexing, req)
	summary, err := spectral.Compute(acq.Bands, mask)
	if err != nil {
		return nil, err
	}

	p.logStage(stageEstimating, req)
	return biomass.Estimate(summary, aoi.AreaM2, p.Model, string(acq.Source), acq.Metadata), nil
}

func (p *Pipeline) logStage(s stage, req Request) {
	monitoring.Logf("pipeline: %s date=%s", s, req.Date.Format("2006-01-02"))
}
