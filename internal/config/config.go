// Package config loads tuning parameters for the estimation pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical defaults file. This is the
// single source of truth for all default pipeline values.
const DefaultConfigPath = "config/kelpcarbon.defaults.json"

// Config holds pipeline tuning parameters. Fields are pointers so a partial
// JSON file overrides only what it names; the Get* accessors supply defaults
// for everything else.
type Config struct {
	// Masking params
	MinValidFraction  *float64 `json:"min_valid_fraction,omitempty"`
	CloudRedThreshold *float64 `json:"cloud_red_threshold,omitempty"`
	LandSWIRThreshold *float64 `json:"land_swir_threshold,omitempty"`
	NoDataValue       *float64 `json:"no_data_value,omitempty"`

	// Acquisition params
	CatalogURL       *string  `json:"catalog_url,omitempty"`
	Collection       *string  `json:"collection,omitempty"`
	AcquireTimeout   *string  `json:"acquire_timeout,omitempty"` // duration string like "10s"
	SearchWindowDays *int     `json:"search_window_days,omitempty"`
	MaxCloudCover    *float64 `json:"max_cloud_cover,omitempty"`
	GridSize         *int     `json:"grid_size,omitempty"`

	// Estimation params
	ModelPath *string `json:"model_path,omitempty"`
}

// Default values applied when a field is absent from the JSON file.
const (
	defaultMinValidFraction  = 0.0
	defaultCloudRedThreshold = 0.25
	defaultLandSWIRThreshold = 0.18
	defaultNoDataValue       = -9999.0
	defaultCatalogURL        = "https://planetarycomputer.microsoft.com/api/stac/v1"
	defaultCollection        = "sentinel-2-l2a"
	defaultAcquireTimeout    = 10 * time.Second
	defaultSearchWindowDays  = 16
	defaultMaxCloudCover     = 30.0
	defaultGridSize          = 64
	defaultModelPath         = "models/biomass_model.json"
)

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load loads a Config from a JSON file. Fields omitted from the file retain
// their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all set fields hold usable values.
func (c *Config) Validate() error {
	if c.MinValidFraction != nil && (*c.MinValidFraction < 0 || *c.MinValidFraction > 1) {
		return fmt.Errorf("min_valid_fraction must be in [0,1], got %f", *c.MinValidFraction)
	}
	if c.MaxCloudCover != nil && (*c.MaxCloudCover < 0 || *c.MaxCloudCover > 100) {
		return fmt.Errorf("max_cloud_cover must be in [0,100], got %f", *c.MaxCloudCover)
	}
	if c.SearchWindowDays != nil && *c.SearchWindowDays < 0 {
		return fmt.Errorf("search_window_days must be non-negative, got %d", *c.SearchWindowDays)
	}
	if c.GridSize != nil && *c.GridSize < 2 {
		return fmt.Errorf("grid_size must be at least 2, got %d", *c.GridSize)
	}
	if c.AcquireTimeout != nil {
		if _, err := time.ParseDuration(*c.AcquireTimeout); err != nil {
			return fmt.Errorf("acquire_timeout: %w", err)
		}
	}
	return nil
}

// GetMinValidFraction returns the minimum usable-pixel fraction below which an
// acquisition is rejected as insufficient.
func (c *Config) GetMinValidFraction() float64 {
	if c != nil && c.MinValidFraction != nil {
		return *c.MinValidFraction
	}
	return defaultMinValidFraction
}

// GetCloudRedThreshold returns the red reflectance above which a pixel is
// flagged as cloud.
func (c *Config) GetCloudRedThreshold() float64 {
	if c != nil && c.CloudRedThreshold != nil {
		return *c.CloudRedThreshold
	}
	return defaultCloudRedThreshold
}

// GetLandSWIRThreshold returns the SWIR reflectance above which a pixel is
// flagged as land.
func (c *Config) GetLandSWIRThreshold() float64 {
	if c != nil && c.LandSWIRThreshold != nil {
		return *c.LandSWIRThreshold
	}
	return defaultLandSWIRThreshold
}

// GetNoDataValue returns the declared no-data sentinel.
func (c *Config) GetNoDataValue() float64 {
	if c != nil && c.NoDataValue != nil {
		return *c.NoDataValue
	}
	return defaultNoDataValue
}

// GetCatalogURL returns the imagery catalog base URL.
func (c *Config) GetCatalogURL() string {
	if c != nil && c.CatalogURL != nil {
		return *c.CatalogURL
	}
	return defaultCatalogURL
}

// GetCollection returns the imagery collection to search.
func (c *Config) GetCollection() string {
	if c != nil && c.Collection != nil {
		return *c.Collection
	}
	return defaultCollection
}

// GetAcquireTimeout returns the bound on a single real-imagery acquisition.
func (c *Config) GetAcquireTimeout() time.Duration {
	if c != nil && c.AcquireTimeout != nil {
		if d, err := time.ParseDuration(*c.AcquireTimeout); err == nil {
			return d
		}
	}
	return defaultAcquireTimeout
}

// GetSearchWindowDays returns the scene search window around the target date.
func (c *Config) GetSearchWindowDays() int {
	if c != nil && c.SearchWindowDays != nil {
		return *c.SearchWindowDays
	}
	return defaultSearchWindowDays
}

// GetMaxCloudCover returns the maximum acceptable scene cloud cover percent.
func (c *Config) GetMaxCloudCover() float64 {
	if c != nil && c.MaxCloudCover != nil {
		return *c.MaxCloudCover
	}
	return defaultMaxCloudCover
}

// GetGridSize returns the edge length of acquired band grids in pixels.
func (c *Config) GetGridSize() int {
	if c != nil && c.GridSize != nil {
		return *c.GridSize
	}
	return defaultGridSize
}

// GetModelPath returns the path of the serialized regression artifact.
func (c *Config) GetModelPath() string {
	if c != nil && c.ModelPath != nil {
		return *c.ModelPath
	}
	return defaultModelPath
}
