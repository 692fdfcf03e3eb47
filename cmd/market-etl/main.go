// market-etl downloads the public market-tracker dataset, cleans it, and
// uploads a timestamped snapshot to S3 for warehouse ingestion. It is meant
// to be invoked by an external scheduler and signals success or failure
// through its exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"market_etl/internal/config"
	"market_etl/internal/logging"
	"market_etl/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	envPath := flag.String("env", "", "optional .env file with AWS credentials")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		fmt.Fprintf(os.Stderr, "market-etl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	// Credentials come from the environment; a .env file is a convenience
	// for local runs and its absence is not an error.
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	if _, err := p.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		return err
	}
	return nil
}
