package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Source.Driver)
	assert.Equal(t, "dataplor.db", cfg.Source.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.RateBurst)
	assert.Equal(t, "weighted", cfg.Quality.Scorer)
	assert.InDelta(t, 20.0, cfg.Quality.MissingCriticalPct, 0.001)
	assert.InDelta(t, 5.0, cfg.Quality.DuplicateCriticalPct, 0.001)
	assert.InDelta(t, 10.0, cfg.Quality.InvalidCoordCriticalPct, 0.001)
	assert.Equal(t, 10, cfg.Quality.MinAddressLength)
	assert.Equal(t, 15, cfg.Quality.CategoricalMaxDistinct)
	assert.Equal(t, 2, cfg.CPG.MinChainLocations)
	assert.Equal(t, 20, cfg.CPG.GapMinLocations)
	assert.Equal(t, 3, cfg.CPG.MinClusterSize)
	assert.InDelta(t, 0.7, cfg.CPG.LowConfidenceThreshold, 0.001)
	assert.Equal(t, "09:00:00", cfg.CPG.DefaultOpenTime)
	assert.Equal(t, "17:00:00", cfg.CPG.DefaultCloseTime)
	assert.Equal(t, 8, cfg.CPG.DefaultWindowHours)
	assert.NotEmpty(t, cfg.Schema.Roles)
	assert.NotEmpty(t, cfg.Schema.DateTerms)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
source:
  driver: postgres
  database_url: postgres://localhost/poi
log:
  level: debug
  format: console
quality:
  missing_critical_pct: 30
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Source.Driver)
	assert.Equal(t, "postgres://localhost/poi", cfg.Source.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 30.0, cfg.Quality.MissingCriticalPct, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 5.0, cfg.Quality.MissingWarningPct, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
source:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("DATAPLOR_SOURCE_DRIVER", "sqlite")
	t.Setenv("DATAPLOR_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Source.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	cfg.Source.Driver = "duckdb"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source driver")

	cfg.Source.Driver = "sqlite"
	cfg.Source.DatabaseURL = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url is required")

	cfg.Source.DatabaseURL = "poi.db"
	cfg.Quality.Scorer = "bayesian"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scorer strategy")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
