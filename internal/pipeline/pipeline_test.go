package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_etl/internal/config"
	"market_etl/internal/extract"
	"market_etl/internal/tracker"
)

type fakeSource struct {
	ds  *extract.Dataset
	n   int64
	err error
}

func (f *fakeSource) Fetch(ctx context.Context) (*extract.Dataset, int64, error) {
	return f.ds, f.n, f.err
}

type fakeSink struct {
	key      string
	metadata map[string]string
	body     []byte
	err      error
	calls    int
}

func (f *fakeSink) Upload(ctx context.Context, key, path string, metadata map[string]string) (int64, error) {
	f.calls++
	f.key = key
	f.metadata = metadata
	if f.err != nil {
		return 0, f.err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	f.body = data
	return int64(len(data)), nil
}

var sourceColumns = []string{
	"period_begin", "period_end", "region_type", "region_type_id", "table_id",
	"is_seasonally_adjusted", "city", "state", "state_code", "property_type",
	"property_type_id", "median_sale_price", "median_list_price", "median_ppsf",
	"median_list_ppsf", "homes_sold", "inventory", "months_of_supply",
	"median_dom", "avg_sale_to_list", "sold_above_list",
	"parent_metro_region_metro_code", "last_updated",
}

func sampleDataset(t *testing.T) *extract.Dataset {
	t.Helper()
	header, err := tracker.ParseHeader(sourceColumns)
	require.NoError(t, err)
	good := []string{
		"2024-01-01", "2024-01-31", "place", "6", "12345", "f",
		"Seattle, WA Metro", "Washington", "WA", "All Residential", "-1",
		"550000", "575000", "412.5", "430", "120", "340", "2.8", "14",
		"0.987", "0.31", "42660", "2024-02-10 18:04:12",
	}
	bad := append([]string{}, good...)
	bad[0] = "garbage"
	return &extract.Dataset{Header: header, Rows: [][]string{good, bad}}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Source: config.Source{URL: "https://example.com/data.tsv.gz", TimeoutMinutes: 5},
		S3:     config.S3{Region: "us-east-1", Bucket: "snapshots", Prefix: "market-tracker"},
		Output: config.Output{
			Format:    "tsv",
			Dataset:   "city_market_tracker",
			StatsFile: filepath.Join(t.TempDir(), "stats.json"),
		},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunHappyPath(t *testing.T) {
	cfg := testConfig(t)
	sink := &fakeSink{}
	p := newWith(cfg, discard(), &fakeSource{ds: sampleDataset(t), n: 1024}, sink, t.TempDir())

	stats, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.RowsRead)
	assert.Equal(t, 1, stats.RowsWritten)
	assert.Equal(t, 1, stats.RowsSkippedBadDate)
	assert.Equal(t, int64(1024), stats.BytesDownloaded)
	assert.Equal(t, int64(len(sink.body)), stats.BytesUploaded)

	// market-tracker/city_market_tracker_20240101T000000Z.tsv
	assert.Regexp(t, regexp.MustCompile(`^market-tracker/city_market_tracker_\d{8}T\d{6}Z\.tsv$`), sink.key)
	assert.Equal(t, stats.ObjectKey, sink.key)
	assert.Equal(t, "1", sink.metadata["record-count"])
	assert.Equal(t, cfg.Source.URL, sink.metadata["source-url"])

	// The uploaded body is the cleaned snapshot, commas stripped.
	assert.Contains(t, string(sink.body), "Seattle WA Metro")
	assert.NotContains(t, string(sink.body), "Seattle, WA Metro")

	// Stats report landed on disk.
	_, err = os.Stat(cfg.Output.StatsFile)
	require.NoError(t, err)
}

func TestRunFailsWhenExtractFails(t *testing.T) {
	cfg := testConfig(t)
	sink := &fakeSink{}
	p := newWith(cfg, discard(), &fakeSource{err: errors.New("boom")}, sink, t.TempDir())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract failed")
	assert.Equal(t, 0, sink.calls, "no upload after a failed extract")
}

func TestRunFailsWhenNothingSurvives(t *testing.T) {
	cfg := testConfig(t)
	ds := sampleDataset(t)
	ds.Rows = ds.Rows[1:] // only the bad-date row
	sink := &fakeSink{}
	p := newWith(cfg, discard(), &fakeSource{ds: ds}, sink, t.TempDir())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rows survived")
	assert.Equal(t, 0, sink.calls)
}

func TestRunPropagatesUploadFailure(t *testing.T) {
	cfg := testConfig(t)
	sink := &fakeSink{err: errors.New("denied")}
	p := newWith(cfg, discard(), &fakeSource{ds: sampleDataset(t)}, sink, t.TempDir())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load failed")
}
