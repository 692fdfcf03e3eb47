// Package pipeline wires the extract, transform, and load stages into one
// run: download the source snapshot, clean it, encode it, upload it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"market_etl/internal/config"
	"market_etl/internal/extract"
	"market_etl/internal/load"
	"market_etl/internal/tracker"
)

// Source fetches the raw dataset.
type Source interface {
	Fetch(ctx context.Context) (*extract.Dataset, int64, error)
}

// Sink publishes a local snapshot file under the given key.
type Sink interface {
	Upload(ctx context.Context, key, path string, metadata map[string]string) (int64, error)
}

// Pipeline is one configured ETL instance.
type Pipeline struct {
	cfg     *config.Config
	log     *slog.Logger
	source  Source
	sink    Sink
	tempDir string
}

// New builds the pipeline with its real adapters.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	tempDir, err := os.MkdirTemp("", "market-etl-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &Pipeline{
		cfg:     cfg,
		log:     logger,
		source:  extract.NewClient(cfg.Source.URL),
		sink:    load.NewS3Uploader(cfg.S3.Region, cfg.S3.Bucket),
		tempDir: tempDir,
	}, nil
}

// newWith is the constructor tests use to swap adapters.
func newWith(cfg *config.Config, logger *slog.Logger, src Source, sink Sink, tempDir string) *Pipeline {
	return &Pipeline{cfg: cfg, log: logger, source: src, sink: sink, tempDir: tempDir}
}

// Cleanup removes the pipeline's temp directory.
func (p *Pipeline) Cleanup() {
	if err := os.RemoveAll(p.tempDir); err != nil {
		p.log.Warn("failed to clean up temp directory", "dir", p.tempDir, "error", err)
	}
}

// Run executes one extract-transform-load pass. Nothing is uploaded unless
// every stage before the upload succeeded, so a failed run publishes no
// partial snapshot.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	runstamp := start.UTC().Format(runstampLayout)

	p.log.Info("starting run",
		"source", p.cfg.Source.URL,
		"bucket", p.cfg.S3.Bucket,
		"format", p.cfg.Output.Format)

	ds, bytesIn, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract failed: %w", err)
	}
	p.log.Info("downloaded source snapshot",
		"bytes", bytesIn,
		"rows", len(ds.Rows),
		"unreadable_rows", ds.Malformed)

	records, tstats, err := transformStage(ds)
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}
	p.log.Info("transformed rows",
		"rows_in", tstats.RowsIn,
		"rows_out", tstats.RowsOut,
		"skipped_bad_date", tstats.SkippedBadDate,
		"skipped_missing_metric", tstats.SkippedMissingMetric,
		"skipped_malformed", tstats.SkippedMalformed)

	ext := p.cfg.Output.Format
	key := fmt.Sprintf("%s/%s_%s.%s", p.cfg.S3.Prefix, p.cfg.Output.Dataset, runstamp, ext)
	local := filepath.Join(p.tempDir, filepath.Base(key))

	switch ext {
	case "parquet":
		err = load.WriteParquet(local, records)
	default:
		err = load.WriteTSV(local, records)
	}
	if err != nil {
		return nil, fmt.Errorf("encode failed: %w", err)
	}

	bytesOut, err := p.sink.Upload(ctx, key, local, map[string]string{
		"record-count": fmt.Sprintf("%d", len(records)),
		"source-url":   p.cfg.Source.URL,
	})
	if removeErr := os.Remove(local); removeErr != nil {
		p.log.Warn("failed to remove temp file", "path", local, "error", removeErr)
	}
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}

	duration := time.Since(start)
	stats := &RunStats{
		TotalExecutionTime:   duration.String(),
		RowsRead:             tstats.RowsIn,
		RowsWritten:          tstats.RowsOut,
		RowsSkippedBadDate:   tstats.SkippedBadDate,
		RowsSkippedNoMetric:  tstats.SkippedMissingMetric,
		RowsSkippedMalformed: tstats.SkippedMalformed + ds.Malformed,
		BytesDownloaded:      bytesIn,
		BytesUploaded:        bytesOut,
		ObjectKey:            key,
	}

	if err := stats.WriteFile(p.cfg.Output.StatsFile); err != nil {
		p.log.Warn("failed to write stats file", "path", p.cfg.Output.StatsFile, "error", err)
	}

	p.log.Info("run complete",
		"duration", duration,
		"rows_written", stats.RowsWritten,
		"rows_skipped", stats.Skipped(),
		"key", key)
	return stats, nil
}

const runstampLayout = "20060102T150405Z"

// transformStage runs the pure transform and enforces the all-or-nothing
// output rule: a snapshot with zero surviving rows is never published.
func transformStage(ds *extract.Dataset) ([]tracker.Record, tracker.Stats, error) {
	records, stats, err := tracker.Transform(ds.Header, ds.Rows)
	if err != nil {
		return nil, stats, err
	}
	if len(records) == 0 {
		return nil, stats, fmt.Errorf("no rows survived the transform (%d read, %d skipped)",
			stats.RowsIn, stats.Skipped())
	}
	return records, stats, nil
}
