package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/seva-insights/engine"
)

const sampleCSV = `state,district,date,age_0_5,bio_age_5_17,bio_age_17_,demo_age_5_17,demo_age_17_
Maharashtra,Pune,06-01-2025,100,40,10,5,5
Maharashtra,Pune,07-01-2025,20,5,5,0,0
Maharashtra,Akola,06-01-2025,10,2,1,1,1
Goa,North Goa,06-01-2025,3,1,1,1,1
`

func populatedStore(t *testing.T, csvData string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aadhaar_analysis.db")

	store, err := Create(path)
	require.NoError(t, err)
	_, err = store.ImportCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	return path
}

func TestOpen_MissingFileIsUnavailable(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.db"))
	assert.ErrorIs(t, err, engine.ErrStoreUnavailable)
}

func TestOpen_MissingTableIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE other (id INTEGER)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	assert.ErrorIs(t, err, engine.ErrStoreUnavailable)
}

func TestImportAndFetch(t *testing.T) {
	ctx := context.Background()
	store, err := Open(populatedStore(t, sampleCSV))
	require.NoError(t, err)
	defer store.Close()

	regions, err := store.ListRegions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Goa", "Maharashtra"}, regions)

	records, err := store.FetchRegion(ctx, "Maharashtra")
	require.NoError(t, err)
	require.Len(t, records, 3)

	var pune engine.Record
	for _, r := range records {
		if r.District == "Pune" && r.Date.Day() == 6 {
			pune = r
		}
	}
	assert.Equal(t, time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC), pune.Date)
	assert.Equal(t, int64(100), pune.Enrolment0to5)
	assert.Equal(t, int64(60), engine.TotalActivity(pune))
}

func TestFetchRegion_BoundParameter(t *testing.T) {
	ctx := context.Background()
	store, err := Open(populatedStore(t, sampleCSV))
	require.NoError(t, err)
	defer store.Close()

	records, err := store.FetchRegion(ctx, "Goa' OR '1'='1")
	require.NoError(t, err)
	assert.Empty(t, records, "region value must never be interpreted as SQL")
}

func TestImport_DuplicateKeysAreSummed(t *testing.T) {
	ctx := context.Background()
	csvData := sampleCSV + "Goa,North Goa,06-01-2025,2,0,0,0,4\n"
	store, err := Open(populatedStore(t, csvData))
	require.NoError(t, err)
	defer store.Close()

	records, err := store.FetchRegion(ctx, "Goa")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(5), records[0].Enrolment0to5)
	assert.Equal(t, int64(5), records[0].DemoUpdate17Plus)
}

func TestImport_ReimportReplacesInsteadOfDoubling(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reimport.db")
	csvData := sampleCSV + "Goa,North Goa,06-01-2025,2,0,0,0,4\n"

	store, err := Create(path)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = store.ImportCSV(ctx, strings.NewReader(csvData))
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.FetchRegion(ctx, "Goa")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(5), records[0].Enrolment0to5, "in-file duplicates summed once")
	assert.Equal(t, int64(5), records[0].DemoUpdate17Plus)
}

func TestImport_InvalidRowAbortsWholeImport(t *testing.T) {
	ctx := context.Background()
	store, err := Create(filepath.Join(t.TempDir(), "bad.db"))
	require.NoError(t, err)
	defer store.Close()

	csvData := sampleCSV + "Goa,South Goa,06-01-2025,x,0,0,0,0\n"
	_, err = store.ImportCSV(ctx, strings.NewReader(csvData))

	var malformed *engine.MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "age_0_5", malformed.Field)

	regions, err := store.ListRegions(ctx)
	require.NoError(t, err)
	assert.Empty(t, regions, "import is atomic")
}

func TestImport_MissingColumn(t *testing.T) {
	store, err := Create(filepath.Join(t.TempDir(), "cols.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.ImportCSV(context.Background(), strings.NewReader("state,district,date\nGoa,North Goa,06-01-2025\n"))
	assert.ErrorContains(t, err, "missing age_0_5 column")
}

func TestFetchRegion_MalformedStoredValue(t *testing.T) {
	ctx := context.Background()
	path := populatedStore(t, sampleCSV)

	// Loaded by some other tool with a text counter.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO aadhaar_stats VALUES ('Goa', 'South Goa', '06-01-2025', 1, 'n/a', 0, 0, 0)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.FetchRegion(ctx, "Goa")
	var malformed *engine.MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "bio_age_5_17", malformed.Field)
	assert.Equal(t, "South Goa", malformed.District)
}

func TestDemandByRegion(t *testing.T) {
	store, err := Open(populatedStore(t, sampleCSV))
	require.NoError(t, err)
	defer store.Close()

	demand, err := store.DemandByRegion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []engine.RegionDemand{
		{Region: "Goa", Demand: 4},
		{Region: "Maharashtra", Demand: 60 + 10 + 5},
	}, demand)
}

func TestParseCounter(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		reason string
	}{
		{int64(7), 7, ""},
		{float64(7), 7, ""},
		{float64(7.5), 0, "not a whole number"},
		{"12", 12, ""},
		{[]byte("3"), 3, ""},
		{"abc", 0, "not numeric"},
		{nil, 0, "missing"},
		{int64(-1), 0, "negative counter"},
	}
	for _, tt := range tests {
		got, reason := parseCounter(tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
		assert.Equal(t, tt.reason, reason, "%v", tt.in)
	}
}
