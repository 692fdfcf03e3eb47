package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
source:
  url: https://example.com/city_market_tracker.tsv000.gz
s3:
  bucket: market-tracker-raw
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "us-east-1", cfg.S3.Region)
	assert.Equal(t, "market-tracker", cfg.S3.Prefix)
	assert.Equal(t, "tsv", cfg.Output.Format)
	assert.Equal(t, "city_market_tracker", cfg.Output.Dataset)
	assert.Equal(t, "etl_stats.json", cfg.Output.StatsFile)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 60*time.Minute, cfg.Timeout())
}

func TestLoadReadsAllFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
source:
  url: https://example.com/data.tsv.gz
  timeout_minutes: 15
s3:
  region: us-west-2
  bucket: snapshots
  prefix: redfin
output:
  format: parquet
  dataset: city_tracker
  stats_file: /tmp/stats.json
log:
  level: debug
  format: json
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "us-west-2", cfg.S3.Region)
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.Equal(t, 15*time.Minute, cfg.Timeout())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidateRejectsMissingURL(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
s3:
  bucket: snapshots
`))
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.url")
}

func TestValidateRejectsMissingBucket(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
source:
  url: https://example.com/data.tsv.gz
`))
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3.bucket")
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
source:
  url: https://example.com/data.tsv.gz
s3:
  bucket: snapshots
output:
  format: avro
`))
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "source: [unclosed"))
	require.Error(t, err)
}
