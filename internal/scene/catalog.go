package scene

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/paulmach/orb"
)

// SceneInfo describes one candidate scene returned by the imagery catalog.
type SceneInfo struct {
	ID         string
	Datetime   time.Time
	CloudCover float64
}

// Catalog searches a STAC-style imagery catalog for scenes covering an area
// and date. The HTTP client is injected so tests can run against canned
// responses.
type Catalog struct {
	BaseURL    string
	Collection string
	WindowDays int
	MaxCloud   float64

	client HTTPDoer
}

// HTTPDoer is the subset of an HTTP client the catalog needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewCatalog creates a catalog client.
func NewCatalog(baseURL, collection string, windowDays int, maxCloud float64, client HTTPDoer) *Catalog {
	return &Catalog{
		BaseURL:    baseURL,
		Collection: collection,
		WindowDays: windowDays,
		MaxCloud:   maxCloud,
		client:     client,
	}
}

type stacSearchRequest struct {
	Collections []string               `json:"collections"`
	BBox        []float64              `json:"bbox"`
	Datetime    string                 `json:"datetime"`
	Query       map[string]interface{} `json:"query,omitempty"`
	Limit       int                    `json:"limit"`
}

type stacSearchResponse struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			Datetime   string  `json:"datetime"`
			CloudCover float64 `json:"eo:cloud_cover"`
		} `json:"properties"`
	} `json:"features"`
}

// BestScene returns the scene whose footprint covers the bound with the best
// combination of date proximity and cloud cover, searching ±WindowDays around
// the target date. It returns an error when no usable scene exists.
func (c *Catalog) BestScene(ctx context.Context, bound orb.Bound, date time.Time) (*SceneInfo, error) {
	start := date.AddDate(0, 0, -c.WindowDays)
	end := date.AddDate(0, 0, c.WindowDays)

	body := stacSearchRequest{
		Collections: []string{c.Collection},
		BBox:        []float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]},
		Datetime:    fmt.Sprintf("%s/%s", start.Format("2006-01-02"), end.Format("2006-01-02")),
		Query: map[string]interface{}{
			"eo:cloud_cover": map[string]float64{"lt": c.MaxCloud},
		},
		Limit: 50,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var parsed stacSearchResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	scenes := make([]SceneInfo, 0, len(parsed.Features))
	for _, f := range parsed.Features {
		ts, err := time.Parse(time.RFC3339, f.Properties.Datetime)
		if err != nil {
			continue
		}
		scenes = append(scenes, SceneInfo{ID: f.ID, Datetime: ts, CloudCover: f.Properties.CloudCover})
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("no scenes cover the area within ±%d days of %s", c.WindowDays, date.Format("2006-01-02"))
	}

	// Prefer scenes close to the target date, lightly penalizing cloud cover.
	sort.Slice(scenes, func(i, j int) bool {
		return sceneScore(scenes[i], date) < sceneScore(scenes[j], date)
	})

	best := scenes[0]
	return &best, nil
}

func sceneScore(s SceneInfo, target time.Time) float64 {
	days := math.Abs(s.Datetime.Sub(target).Hours() / 24)
	return days + s.CloudCover*0.1
}
