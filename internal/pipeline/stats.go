package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunStats is the per-run report written next to the process and logged on
// completion.
type RunStats struct {
	TotalExecutionTime   string `json:"total_execution_time"`
	RowsRead             int    `json:"rows_read"`
	RowsWritten          int    `json:"rows_written"`
	RowsSkippedBadDate   int    `json:"rows_skipped_bad_date"`
	RowsSkippedNoMetric  int    `json:"rows_skipped_missing_metric"`
	RowsSkippedMalformed int    `json:"rows_skipped_malformed"`
	BytesDownloaded      int64  `json:"bytes_downloaded"`
	BytesUploaded        int64  `json:"bytes_uploaded"`
	ObjectKey            string `json:"object_key"`
}

// Skipped returns the total number of dropped rows.
func (s *RunStats) Skipped() int {
	return s.RowsSkippedBadDate + s.RowsSkippedNoMetric + s.RowsSkippedMalformed
}

// WriteFile writes the report as indented JSON.
func (s *RunStats) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize stats: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}
