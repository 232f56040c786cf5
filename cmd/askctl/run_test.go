package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/seva-insights/config"
	"github.com/warp/seva-insights/engine"
)

const extract = `State,District,Date,age_0_5,bio_age_5_17,bio_age_17_,demo_age_5_17,demo_age_17_
Maharashtra,Akola,06-01-2025,100,40,10,5,5
Goa,North Goa,06-01-2025,3,1,0,0,0
`

func importedConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "extract.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(extract), 0o644))

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "aadhaar_analysis.db")
	require.NoError(t, runImport(context.Background(), cfg.Database.Path, []string{csvPath}))
	return cfg
}

func TestRunReport_WritesPDFAndWorkbook(t *testing.T) {
	cfg := importedConfig(t)
	out := t.TempDir()

	require.NoError(t, runReport(context.Background(), cfg, "", out, true))

	pdf, err := os.ReadFile(filepath.Join(out, "Aadhaar_Report_Maharashtra.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
	assert.FileExists(t, filepath.Join(out, "Aadhaar_Report_Maharashtra_records.xlsx"))
}

func TestRunSummary(t *testing.T) {
	cfg := importedConfig(t)

	assert.NoError(t, runSummary(context.Background(), cfg, "Goa", "Monday"))
	assert.ErrorIs(t, runSummary(context.Background(), cfg, "Goa", "Someday"), engine.ErrUnknownWeekday)
	assert.ErrorIs(t, runSummary(context.Background(), cfg, "Kerala", ""), engine.ErrRegionNotFound)
}

func TestRunRegions_MissingStore(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "missing.db")

	assert.ErrorIs(t, runRegions(context.Background(), cfg), engine.ErrStoreUnavailable)
}
