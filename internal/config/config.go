// Package config loads and validates the pipeline configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for one pipeline run.
type Config struct {
	Source Source `yaml:"source"`
	S3     S3     `yaml:"s3"`
	Output Output `yaml:"output"`
	Log    Log    `yaml:"log"`
}

// Source locates the upstream dataset.
type Source struct {
	URL            string `yaml:"url"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
}

// S3 locates the destination bucket the warehouse ingests from.
type S3 struct {
	Region string `yaml:"region"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Output controls the snapshot artifact.
type Output struct {
	// Format is "tsv" or "parquet".
	Format string `yaml:"format"`
	// Dataset names the snapshot files: <prefix>/<dataset>_<runstamp>.<ext>
	Dataset string `yaml:"dataset"`
	// StatsFile is where the run report is written.
	StatsFile string `yaml:"stats_file"`
}

// Log controls logger construction.
type Log struct {
	Level string `yaml:"level"`
	// Format is "text" (colored, for terminals) or "json" (for
	// scheduler-captured logs).
	Format string `yaml:"format"`
}

// Load reads the YAML config file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Source.TimeoutMinutes == 0 {
		cfg.Source.TimeoutMinutes = 60
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.S3.Prefix == "" {
		cfg.S3.Prefix = "market-tracker"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "tsv"
	}
	if cfg.Output.Dataset == "" {
		cfg.Output.Dataset = "city_market_tracker"
	}
	if cfg.Output.StatsFile == "" {
		cfg.Output.StatsFile = "etl_stats.json"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return &cfg, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	if c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required")
	}
	if c.Output.Format != "tsv" && c.Output.Format != "parquet" {
		return fmt.Errorf("output.format must be tsv or parquet, got %q", c.Output.Format)
	}
	if c.Source.TimeoutMinutes < 1 {
		return fmt.Errorf("source.timeout_minutes must be at least 1")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Timeout returns the run deadline as a Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Source.TimeoutMinutes) * time.Minute
}
