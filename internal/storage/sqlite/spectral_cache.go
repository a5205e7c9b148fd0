package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kelpwatch/kelpcarbon/internal/spectral"
)

// SpectralCacheStore persists index summaries keyed by (geometry hash, date)
// so a restarted process can rehydrate its in-memory cache without
// reacquiring imagery.
type SpectralCacheStore struct {
	db *sql.DB
}

// NewSpectralCacheStore creates a new SpectralCacheStore.
func NewSpectralCacheStore(db *sql.DB) *SpectralCacheStore {
	return &SpectralCacheStore{db: db}
}

// Put stores or replaces the summary for a (geometry hash, date) pair.
func (s *SpectralCacheStore) Put(geometryHash, date string, summary *spectral.Summary) error {
	query := `
		INSERT INTO spectral_cache (
			geometry_hash, date, mean_fai, mean_ndre, valid_pixel_fraction, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (geometry_hash, date) DO UPDATE SET
			mean_fai = excluded.mean_fai,
			mean_ndre = excluded.mean_ndre,
			valid_pixel_fraction = excluded.valid_pixel_fraction,
			created_at_ns = excluded.created_at_ns
	`

	_, err := s.db.Exec(query,
		geometryHash, date,
		summary.MeanFAI, summary.MeanNDRE, summary.ValidPixelFraction,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("put spectral cache entry: %w", err)
	}

	return nil
}

// Get retrieves the summary for a (geometry hash, date) pair. Returns
// sql.ErrNoRows when absent.
func (s *SpectralCacheStore) Get(geometryHash, date string) (*spectral.Summary, error) {
	query := `
		SELECT mean_fai, mean_ndre, valid_pixel_fraction
		FROM spectral_cache
		WHERE geometry_hash = ? AND date = ?
	`

	var summary spectral.Summary
	err := s.db.QueryRow(query, geometryHash, date).Scan(
		&summary.MeanFAI, &summary.MeanNDRE, &summary.ValidPixelFraction,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get spectral cache entry: %w", err)
	}

	return &summary, nil
}

// Prune deletes entries older than the cutoff and reports how many went.
func (s *SpectralCacheStore) Prune(olderThan time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM spectral_cache WHERE created_at_ns < ?`,
		olderThan.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune spectral cache: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check prune result: %w", err)
	}
	return n, nil
}
