package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "bitcoin.csv", cfg.Data.Path)
	assert.Equal(t, "charts", cfg.Output.ChartsDir)
	assert.Equal(t, 0.1, cfg.Split.TestFraction)
	assert.Equal(t, uint64(2022), cfg.Split.Seed)
	assert.Equal(t, "all", cfg.Scaler.FitOn)
	assert.Equal(t, 10000.0, cfg.Explore.ZoomMax)
	assert.Empty(t, cfg.Database.SqlitePath)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	path := writeConfig(t, `
data:
  path: data/btc.csv
split:
  test_fraction: 0.2
  seed: 7
scaler:
  fit_on: train
model:
  boosting:
    rounds: 20
`)
	t.Setenv("TREND_DATA_PATH", "override.csv")
	t.Setenv("TREND_OUTPUT_CHARTS_DIR", "out/charts")
	t.Setenv("TREND_MODEL_SVC_DEGREE", "2")
	t.Setenv("TREND_TRACING_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "override.csv", cfg.Data.Path)
	assert.Equal(t, "out/charts", cfg.Output.ChartsDir)
	assert.Equal(t, 0.2, cfg.Split.TestFraction)
	assert.Equal(t, uint64(7), cfg.Split.Seed)
	assert.Equal(t, "train", cfg.Scaler.FitOn)
	assert.Equal(t, 20, cfg.Model.Boosting.Rounds)
	assert.Equal(t, 2, cfg.Model.SVC.Degree)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_IgnoresUnprefixedEnv(t *testing.T) {
	path := writeConfig(t, "data:\n  path: data/btc.csv\n")
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("SEED", "7")
	t.Setenv("ENABLED", "true")
	t.Setenv("CRON", "bad")
	t.Setenv("CHARTS_DIR", "elsewhere")
	t.Setenv("DEGREE", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/btc.csv", cfg.Data.Path)
	assert.Equal(t, uint64(2022), cfg.Split.Seed)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Empty(t, cfg.Schedule.Cron)
	assert.Equal(t, DefaultChartsDir, cfg.Output.ChartsDir)
	assert.Zero(t, cfg.Model.SVC.Degree)
}

func TestLoad_PrefixedEnvKeys(t *testing.T) {
	t.Setenv("TREND_DATABASE_SQLITE_PATH", "runs.db")
	t.Setenv("TREND_SPLIT_TEST_FRACTION", "0.25")
	t.Setenv("TREND_SCALER_FIT_ON", "train")
	t.Setenv("TREND_MODEL_BOOSTING_MIN_CHILD_WEIGHT", "2")
	t.Setenv("TREND_SCHEDULE_CRON", "0 0 6 * * *")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "runs.db", cfg.Database.SqlitePath)
	assert.Equal(t, 0.25, cfg.Split.TestFraction)
	assert.Equal(t, "train", cfg.Scaler.FitOn)
	assert.Equal(t, 2.0, cfg.Model.Boosting.MinChildWeight)
	assert.Equal(t, "0 0 6 * * *", cfg.Schedule.Cron)
}

func TestLoad_EmptyChartsDirDisablesCharts(t *testing.T) {
	cfg, err := Load(writeConfig(t, "output:\n  charts_dir: \"\"\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Output.ChartsDir)

	cfg, err = Load(writeConfig(t, "output:\n  workbook: out.xlsx\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultChartsDir, cfg.Output.ChartsDir)

	t.Setenv("TREND_OUTPUT_CHARTS_DIR", "")
	cfg, err = Load(writeConfig(t, "output:\n  workbook: out.xlsx\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Output.ChartsDir)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "data: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"fraction too large": "split:\n  test_fraction: 1.5\n",
		"unknown scope":      "scaler:\n  fit_on: valid\n",
		"bad cron":           "schedule:\n  cron: \"not a cron\"\n",
		"negative rate":      "model:\n  boosting:\n    learning_rate: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, body))
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg, err := Load(writeConfig(t, "schedule:\n  cron: \"0 0 6 * * *\"\n"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
