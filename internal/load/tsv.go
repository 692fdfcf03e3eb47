// Package load encodes cleaned records into snapshot files and uploads
// them to object storage.
package load

import (
	"encoding/csv"
	"fmt"
	"os"

	"market_etl/internal/tracker"
)

// WriteTSV writes records as a tab-separated file with one header row in
// the destination column order. Output is deterministic for a given input.
func WriteTSV(path string, records []tracker.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(tracker.Columns); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			f.Close()
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
