package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kelpwatch/kelpcarbon/internal/biomass"
)

// Analysis is a persisted estimate for one (AOI, date) pair. Re-running the
// same pair replaces the stored row.
type Analysis struct {
	AnalysisID string `json:"analysis_id"`
	AOIID      string `json:"aoi_id"`
	Date       string `json:"date"`
	*biomass.CarbonEstimate
	CreatedAtNs int64 `json:"created_at_ns"`
}

// AnalysisStore provides persistence for per-date analyses.
type AnalysisStore struct {
	db *sql.DB
}

// NewAnalysisStore creates a new AnalysisStore.
func NewAnalysisStore(db *sql.DB) *AnalysisStore {
	return &AnalysisStore{db: db}
}

// SaveAnalysis upserts an estimate for the (aoiID, date) pair.
func (s *AnalysisStore) SaveAnalysis(aoiID, date string, est *biomass.CarbonEstimate) (*Analysis, error) {
	metadataJSON := ""
	if len(est.SourceMetadata) > 0 {
		raw, err := json.Marshal(est.SourceMetadata)
		if err != nil {
			return nil, fmt.Errorf("marshal source metadata: %w", err)
		}
		metadataJSON = string(raw)
	}

	analysis := &Analysis{
		AnalysisID:     uuid.New().String(),
		AOIID:          aoiID,
		Date:           date,
		CarbonEstimate: est,
		CreatedAtNs:    time.Now().UnixNano(),
	}

	query := `
		INSERT INTO analyses (
			analysis_id, aoi_id, date, mean_fai, mean_ndre, valid_pixel_fraction,
			biomass_density_t_ha, biomass_t, carbon_t, co2e_t,
			data_source, source_metadata_json, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (aoi_id, date) DO UPDATE SET
			mean_fai = excluded.mean_fai,
			mean_ndre = excluded.mean_ndre,
			valid_pixel_fraction = excluded.valid_pixel_fraction,
			biomass_density_t_ha = excluded.biomass_density_t_ha,
			biomass_t = excluded.biomass_t,
			carbon_t = excluded.carbon_t,
			co2e_t = excluded.co2e_t,
			data_source = excluded.data_source,
			source_metadata_json = excluded.source_metadata_json,
			created_at_ns = excluded.created_at_ns
	`

	if _, err := s.db.Exec(query,
		analysis.AnalysisID, aoiID, date,
		est.MeanFAI, est.MeanNDRE, est.ValidPixelFrac,
		est.BiomassDensityTHa, est.BiomassT, est.CarbonT, est.CO2eT,
		est.DataSource, nullString(metadataJSON), analysis.CreatedAtNs,
	); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	return analysis, nil
}

// GetAnalysis retrieves the stored estimate for an (aoiID, date) pair.
// Returns sql.ErrNoRows when absent. The stored row has no area; the caller
// joins it back from the AOI record when needed.
func (s *AnalysisStore) GetAnalysis(aoiID, date string) (*Analysis, error) {
	query := `
		SELECT analysis_id, aoi_id, date, mean_fai, mean_ndre, valid_pixel_fraction,
		       biomass_density_t_ha, biomass_t, carbon_t, co2e_t,
		       data_source, source_metadata_json, created_at_ns
		FROM analyses
		WHERE aoi_id = ? AND date = ?
	`

	analysis := &Analysis{CarbonEstimate: &biomass.CarbonEstimate{}}
	var metadataJSON sql.NullString
	err := s.db.QueryRow(query, aoiID, date).Scan(
		&analysis.AnalysisID, &analysis.AOIID, &analysis.Date,
		&analysis.MeanFAI, &analysis.MeanNDRE, &analysis.ValidPixelFrac,
		&analysis.BiomassDensityTHa, &analysis.BiomassT, &analysis.CarbonT, &analysis.CO2eT,
		&analysis.DataSource, &metadataJSON, &analysis.CreatedAtNs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &analysis.SourceMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal source metadata: %w", err)
		}
	}

	return analysis, nil
}

// ListAnalyses retrieves all analyses for an AOI ordered by date, which gives
// the biomass time series for that area.
func (s *AnalysisStore) ListAnalyses(aoiID string) ([]*Analysis, error) {
	query := `
		SELECT analysis_id, aoi_id, date, mean_fai, mean_ndre, valid_pixel_fraction,
		       biomass_density_t_ha, biomass_t, carbon_t, co2e_t,
		       data_source, source_metadata_json, created_at_ns
		FROM analyses
		WHERE aoi_id = ?
		ORDER BY date ASC
	`

	rows, err := s.db.Query(query, aoiID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		analysis := &Analysis{CarbonEstimate: &biomass.CarbonEstimate{}}
		var metadataJSON sql.NullString
		if err := rows.Scan(
			&analysis.AnalysisID, &analysis.AOIID, &analysis.Date,
			&analysis.MeanFAI, &analysis.MeanNDRE, &analysis.ValidPixelFrac,
			&analysis.BiomassDensityTHa, &analysis.BiomassT, &analysis.CarbonT, &analysis.CO2eT,
			&analysis.DataSource, &metadataJSON, &analysis.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &analysis.SourceMetadata); err != nil {
				return nil, fmt.Errorf("unmarshal source metadata: %w", err)
			}
		}
		analyses = append(analyses, analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list analyses rows: %w", err)
	}

	return analyses, nil
}
