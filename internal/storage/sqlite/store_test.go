package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kelpwatch/kelpcarbon/internal/biomass"
	"github.com/kelpwatch/kelpcarbon/internal/monitoring"
	"github.com/kelpwatch/kelpcarbon/internal/spectral"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(func(format string, v ...interface{}) {})
	os.Exit(m.Run())
}

// openTestStore creates a migrated store on a throwaway database file.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testEstimate() *biomass.CarbonEstimate {
	return &biomass.CarbonEstimate{
		AreaM2:            8.17e7,
		MeanFAI:           0.054,
		MeanNDRE:          0.33,
		ValidPixelFrac:    0.95,
		BiomassDensityTHa: 75.0,
		BiomassT:          612750,
		CarbonT:           199143.75,
		CO2eT:             729744.2,
		DataSource:        "synthetic",
		SourceMetadata:    map[string]string{"fallback_reason": "no scenes in window"},
	}
}

func TestOpenMigratesSchema(t *testing.T) {
	store := openTestStore(t)

	version, dirty, err := store.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion: %v", err)
	}
	if dirty {
		t.Error("fresh database reports dirty state")
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}

	for _, table := range []string{"aois", "analyses", "spectral_cache"} {
		var count int
		err := store.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s missing after migration", table)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	store.Close()
}

func TestAOIStoreUpsert(t *testing.T) {
	store := openTestStore(t)
	aois := NewAOIStore(store.DB)

	const hash = "e3b0c44298fc1c14"
	const wkt = "POLYGON((-123.5 48.4,-123.4 48.4,-123.4 48.5,-123.5 48.5,-123.5 48.4))"

	first, err := aois.UpsertAOI(hash, wkt, 8.17e7, "saanich inlet")
	if err != nil {
		t.Fatalf("UpsertAOI: %v", err)
	}
	if first.AOIID == "" {
		t.Error("AOIID is empty")
	}
	if first.Name != "saanich inlet" {
		t.Errorf("Name = %q", first.Name)
	}

	// Re-upserting the same hash keeps the original id.
	second, err := aois.UpsertAOI(hash, wkt, 8.17e7, "different name")
	if err != nil {
		t.Fatalf("second UpsertAOI: %v", err)
	}
	if second.AOIID != first.AOIID {
		t.Errorf("AOIID changed on re-upsert: %q vs %q", second.AOIID, first.AOIID)
	}

	got, err := aois.GetAOIByHash(hash)
	if err != nil {
		t.Fatalf("GetAOIByHash: %v", err)
	}
	if got.WKT != wkt {
		t.Errorf("WKT = %q, want stored polygon", got.WKT)
	}
	if got.AreaM2 != 8.17e7 {
		t.Errorf("AreaM2 = %f", got.AreaM2)
	}

	if _, err := aois.GetAOIByHash("no-such-hash"); err != sql.ErrNoRows {
		t.Errorf("GetAOIByHash(missing) = %v, want sql.ErrNoRows", err)
	}

	list, err := aois.ListAOIs()
	if err != nil {
		t.Fatalf("ListAOIs: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListAOIs returned %d rows, want 1", len(list))
	}
}

func TestAnalysisStoreSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	aois := NewAOIStore(store.DB)
	analyses := NewAnalysisStore(store.DB)

	aoi, err := aois.UpsertAOI("hash-1", "POLYGON((0 0,1 0,1 1,0 1,0 0))", 1.0e7, "")
	if err != nil {
		t.Fatalf("UpsertAOI: %v", err)
	}

	est := testEstimate()
	if _, err := analyses.SaveAnalysis(aoi.AOIID, "2024-08-15", est); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	got, err := analyses.GetAnalysis(aoi.AOIID, "2024-08-15")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got.BiomassT != est.BiomassT {
		t.Errorf("BiomassT = %f, want %f", got.BiomassT, est.BiomassT)
	}
	if got.DataSource != "synthetic" {
		t.Errorf("DataSource = %q", got.DataSource)
	}
	if got.SourceMetadata["fallback_reason"] != "no scenes in window" {
		t.Errorf("SourceMetadata = %v", got.SourceMetadata)
	}

	if _, err := analyses.GetAnalysis(aoi.AOIID, "2024-08-16"); err != sql.ErrNoRows {
		t.Errorf("GetAnalysis(missing date) = %v, want sql.ErrNoRows", err)
	}
}

func TestAnalysisStoreReplacesOnSameDate(t *testing.T) {
	store := openTestStore(t)
	aois := NewAOIStore(store.DB)
	analyses := NewAnalysisStore(store.DB)

	aoi, err := aois.UpsertAOI("hash-2", "POLYGON((0 0,1 0,1 1,0 1,0 0))", 1.0e7, "")
	if err != nil {
		t.Fatalf("UpsertAOI: %v", err)
	}

	est := testEstimate()
	if _, err := analyses.SaveAnalysis(aoi.AOIID, "2024-08-15", est); err != nil {
		t.Fatalf("first SaveAnalysis: %v", err)
	}

	revised := testEstimate()
	revised.BiomassT = 700000
	revised.DataSource = "real"
	if _, err := analyses.SaveAnalysis(aoi.AOIID, "2024-08-15", revised); err != nil {
		t.Fatalf("second SaveAnalysis: %v", err)
	}

	got, err := analyses.GetAnalysis(aoi.AOIID, "2024-08-15")
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got.BiomassT != 700000 {
		t.Errorf("BiomassT = %f, want replaced value 700000", got.BiomassT)
	}
	if got.DataSource != "real" {
		t.Errorf("DataSource = %q, want replaced value", got.DataSource)
	}

	list, err := analyses.ListAnalyses(aoi.AOIID)
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListAnalyses returned %d rows after replace, want 1", len(list))
	}
}

func TestAnalysisStoreListOrdersByDate(t *testing.T) {
	store := openTestStore(t)
	aois := NewAOIStore(store.DB)
	analyses := NewAnalysisStore(store.DB)

	aoi, err := aois.UpsertAOI("hash-3", "POLYGON((0 0,1 0,1 1,0 1,0 0))", 1.0e7, "")
	if err != nil {
		t.Fatalf("UpsertAOI: %v", err)
	}

	for _, date := range []string{"2024-08-15", "2024-06-01", "2024-07-10"} {
		if _, err := analyses.SaveAnalysis(aoi.AOIID, date, testEstimate()); err != nil {
			t.Fatalf("SaveAnalysis(%s): %v", date, err)
		}
	}

	list, err := analyses.ListAnalyses(aoi.AOIID)
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	want := []string{"2024-06-01", "2024-07-10", "2024-08-15"}
	if len(list) != len(want) {
		t.Fatalf("ListAnalyses returned %d rows, want %d", len(list), len(want))
	}
	for i, date := range want {
		if list[i].Date != date {
			t.Errorf("list[%d].Date = %q, want %q", i, list[i].Date, date)
		}
	}
}

func TestSpectralCacheStore(t *testing.T) {
	store := openTestStore(t)
	cache := NewSpectralCacheStore(store.DB)

	summary := &spectral.Summary{MeanFAI: 0.054, MeanNDRE: 0.33, ValidPixelFraction: 0.95}
	if err := cache.Put("hash-1", "2024-08-15", summary); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cache.Get("hash-1", "2024-08-15")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.MeanFAI != summary.MeanFAI || got.MeanNDRE != summary.MeanNDRE {
		t.Errorf("Get = %+v, want %+v", got, summary)
	}

	if _, err := cache.Get("hash-1", "2024-08-16"); err != sql.ErrNoRows {
		t.Errorf("Get(missing) = %v, want sql.ErrNoRows", err)
	}

	// Replacing a pair keeps a single row.
	summary.MeanFAI = 0.06
	if err := cache.Put("hash-1", "2024-08-15", summary); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, err = cache.Get("hash-1", "2024-08-15")
	if err != nil {
		t.Fatalf("Get after replace: %v", err)
	}
	if got.MeanFAI != 0.06 {
		t.Errorf("MeanFAI = %f after replace, want 0.06", got.MeanFAI)
	}
}

func TestSpectralCachePrune(t *testing.T) {
	store := openTestStore(t)
	cache := NewSpectralCacheStore(store.DB)

	summary := &spectral.Summary{MeanFAI: 0.05, MeanNDRE: 0.3, ValidPixelFraction: 1}
	if err := cache.Put("hash-1", "2024-08-15", summary); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put("hash-2", "2024-08-15", summary); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A cutoff in the past removes nothing.
	n, err := cache.Prune(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 0 {
		t.Errorf("Prune removed %d rows with past cutoff, want 0", n)
	}

	// A cutoff in the future removes everything.
	n, err = cache.Prune(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 {
		t.Errorf("Prune removed %d rows, want 2", n)
	}
	if _, err := cache.Get("hash-1", "2024-08-15"); err != sql.ErrNoRows {
		t.Errorf("Get after prune = %v, want sql.ErrNoRows", err)
	}
}
