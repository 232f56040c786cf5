package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ASK_DB_PATH", "")
	t.Setenv("ASK_PORT", "")
	t.Setenv("ASK_PREFERRED_REGION", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ask.yaml")
	data := `
server:
  port: 9090
database:
  path: /data/stats.db
dashboard:
  preferred_region: Goa
  priority_top_n: 3
  cache_ttl: 90s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("ASK_PORT", "")
	t.Setenv("ASK_DB_PATH", "")
	t.Setenv("ASK_PREFERRED_REGION", "Kerala")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/data/stats.db", cfg.Database.Path)
	assert.Equal(t, "Kerala", cfg.Dashboard.PreferredRegion)
	assert.Equal(t, 3, cfg.Dashboard.PriorityTopN)
	assert.Equal(t, 10, cfg.Dashboard.ForecastTopN, "unset keys keep defaults")
	assert.Equal(t, 90*time.Second, cfg.Dashboard.CacheTTL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Dashboard.PriorityTopN = 0
	cfg.Dashboard.RiskThresholdPct = 150

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority_top_n")
	assert.Contains(t, err.Error(), "risk_threshold_pct")
}
