package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AOI is a persisted area of interest. The geometry hash is the canonical
// identity of the polygon; the uuid id exists so analyses can reference it.
type AOI struct {
	AOIID        string  `json:"aoi_id"`
	GeometryHash string  `json:"geometry_hash"`
	WKT          string  `json:"wkt"`
	AreaM2       float64 `json:"area_m2"`
	Name         string  `json:"name,omitempty"`
	CreatedAtNs  int64   `json:"created_at_ns"`
}

// AOIStore provides persistence for areas of interest.
type AOIStore struct {
	db *sql.DB
}

// NewAOIStore creates a new AOIStore.
func NewAOIStore(db *sql.DB) *AOIStore {
	return &AOIStore{db: db}
}

// UpsertAOI inserts the AOI if its geometry hash is new and returns the
// stored record either way. The WKT and area of an existing record are left
// untouched since the hash already pins the geometry.
func (s *AOIStore) UpsertAOI(geometryHash, wkt string, areaM2 float64, name string) (*AOI, error) {
	if existing, err := s.GetAOIByHash(geometryHash); err == nil {
		return existing, nil
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	aoi := &AOI{
		AOIID:        uuid.New().String(),
		GeometryHash: geometryHash,
		WKT:          wkt,
		AreaM2:       areaM2,
		Name:         name,
		CreatedAtNs:  time.Now().UnixNano(),
	}

	query := `
		INSERT INTO aois (aoi_id, geometry_hash, wkt, area_m2, name, created_at_ns)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (geometry_hash) DO NOTHING
	`

	if _, err := s.db.Exec(query,
		aoi.AOIID, aoi.GeometryHash, aoi.WKT, aoi.AreaM2, nullString(aoi.Name), aoi.CreatedAtNs,
	); err != nil {
		return nil, fmt.Errorf("insert aoi: %w", err)
	}

	// A concurrent insert may have won the conflict, so read back the row
	// that actually holds the hash.
	stored, err := s.GetAOIByHash(geometryHash)
	if err != nil {
		return nil, fmt.Errorf("read back aoi: %w", err)
	}
	return stored, nil
}

// GetAOIByHash retrieves an AOI by geometry hash. Returns sql.ErrNoRows when
// absent.
func (s *AOIStore) GetAOIByHash(geometryHash string) (*AOI, error) {
	query := `
		SELECT aoi_id, geometry_hash, wkt, area_m2, name, created_at_ns
		FROM aois
		WHERE geometry_hash = ?
	`

	var aoi AOI
	var name sql.NullString
	err := s.db.QueryRow(query, geometryHash).Scan(
		&aoi.AOIID, &aoi.GeometryHash, &aoi.WKT, &aoi.AreaM2, &name, &aoi.CreatedAtNs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get aoi: %w", err)
	}
	if name.Valid {
		aoi.Name = name.String
	}

	return &aoi, nil
}

// ListAOIs retrieves all AOIs, newest first.
func (s *AOIStore) ListAOIs() ([]*AOI, error) {
	query := `
		SELECT aoi_id, geometry_hash, wkt, area_m2, name, created_at_ns
		FROM aois
		ORDER BY created_at_ns DESC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list aois: %w", err)
	}
	defer rows.Close()

	var aois []*AOI
	for rows.Next() {
		var aoi AOI
		var name sql.NullString
		if err := rows.Scan(
			&aoi.AOIID, &aoi.GeometryHash, &aoi.WKT, &aoi.AreaM2, &name, &aoi.CreatedAtNs,
		); err != nil {
			return nil, fmt.Errorf("scan aoi row: %w", err)
		}
		if name.Valid {
			aoi.Name = name.String
		}
		aois = append(aois, &aoi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list aois rows: %w", err)
	}

	return aois, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
