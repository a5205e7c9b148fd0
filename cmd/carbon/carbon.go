package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kelpwatch/kelpcarbon/internal/config"
	"github.com/kelpwatch/kelpcarbon/internal/httputil"
	"github.com/kelpwatch/kelpcarbon/internal/mapping"
	"github.com/kelpwatch/kelpcarbon/internal/pipeline"
	"github.com/kelpwatch/kelpcarbon/internal/spectral"
	"github.com/kelpwatch/kelpcarbon/internal/storage/sqlite"
)

var (
	wktFlag    = flag.String("wkt", "", "Area of interest as a WKT POLYGON (required)")
	dateFlag   = flag.String("date", "", "Analysis date as YYYY-MM-DD (default: today)")
	preferReal = flag.Bool("prefer-real", false, "Search the imagery catalog before falling back to synthetic data")
	vizFlag    = flag.String("viz", "", "Visualization kind: raw-data, rendered-image, or embedded-interactive")
	configFlag = flag.String("config", "", "Path to a JSON config file (default: built-in defaults)")
	dbFlag     = flag.String("db", "", "SQLite database path for persisting results (empty disables persistence)")
	nameFlag   = flag.String("name", "", "Optional name to store with the area of interest")
)

// parseDate interprets the -date flag. An empty value means today in UTC.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

// envOverride applies a KELPCARBON_* environment variable over an unset flag.
func envOverride(flagValue *string, envKey string) {
	if *flagValue == "" {
		if v := os.Getenv(envKey); v != "" {
			*flagValue = v
		}
	}
}

func main() {
	// A .env file is optional; absence is not an error.
	_ = godotenv.Load()

	flag.Parse()
	envOverride(configFlag, "KELPCARBON_CONFIG")
	envOverride(dbFlag, "KELPCARBON_DB")
	envOverride(wktFlag, "KELPCARBON_WKT")

	if *wktFlag == "" {
		log.Fatal("a WKT polygon is required (-wkt or KELPCARBON_WKT)")
	}

	date, err := parseDate(*dateFlag)
	if err != nil {
		log.Fatalf("invalid -date: %v", err)
	}

	cfg := config.Empty()
	if *configFlag != "" {
		cfg, err = config.Load(*configFlag)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	client := httputil.NewStandardClient(&http.Client{Timeout: cfg.GetAcquireTimeout()})
	p, err := pipeline.New(cfg, client, mapping.NewService())
	if err != nil {
		log.Fatalf("failed to start pipeline: %v", err)
	}

	result, err := p.Run(context.Background(), pipeline.Request{
		WKT:                  *wktFlag,
		Date:                 date,
		PreferReal:           *preferReal,
		IncludeVisualization: *vizFlag != "",
		VisualizationKind:    *vizFlag,
	})
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	if *dbFlag != "" {
		if err := persist(*dbFlag, *nameFlag, result); err != nil {
			log.Fatalf("failed to persist result: %v", err)
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
	fmt.Println(string(out))
}

// persist writes the result to the durable store: the AOI record, the
// per-date analysis, and the spectral cache entry for warm restarts.
func persist(path, name string, result *pipeline.Result) error {
	store, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	aoi, err := sqlite.NewAOIStore(store.DB).UpsertAOI(
		result.GeometryHash, result.AOIWKT, result.AreaM2, name,
	)
	if err != nil {
		return err
	}

	if _, err := sqlite.NewAnalysisStore(store.DB).SaveAnalysis(
		aoi.AOIID, result.Date, result.CarbonEstimate,
	); err != nil {
		return err
	}

	summary := &spectral.Summary{
		MeanFAI:            result.MeanFAI,
		MeanNDRE:           result.MeanNDRE,
		ValidPixelFraction: result.ValidPixelFrac,
	}
	return sqlite.NewSpectralCacheStore(store.DB).Put(result.GeometryHash, result.Date, summary)
}
