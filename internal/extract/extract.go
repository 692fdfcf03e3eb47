// Package extract downloads the raw market-tracker snapshot and parses it
// into header plus rows for the transform stage.
package extract

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"market_etl/internal/tracker"
)

// Dataset is one parsed source snapshot.
type Dataset struct {
	Header tracker.Header
	Rows   [][]string
	// Malformed counts rows the TSV reader could not parse at all.
	Malformed int
}

// Client fetches the gzip-compressed TSV the dataset is published as.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			// Header timeout only; the body read is governed by the run
			// context instead of a whole-request deadline.
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

// Fetch downloads and parses the source file. Transport failures, a non-200
// status, bad gzip, or a missing header are fatal; individual unparseable
// rows are skipped and counted in Dataset.Malformed.
func (c *Client) Fetch(ctx context.Context) (*Dataset, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request for %s: %w", c.url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to download %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status %s downloading %s", resp.Status, c.url)
	}

	counting := &countingReader{r: resp.Body}
	gz, err := gzip.NewReader(counting)
	if err != nil {
		return nil, counting.n, fmt.Errorf("source file is not valid gzip: %w", err)
	}
	defer gz.Close()

	ds, err := Parse(gz)
	if err != nil {
		return nil, counting.n, err
	}
	return ds, counting.n, nil
}

// Parse reads a tab-separated stream with one header row into a Dataset.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	headerRow, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("source file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read source header: %w", err)
	}

	header, err := tracker.ParseHeader(headerRow)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			ds.Malformed++
			continue
		}
		if len(row) == 0 || (len(row) == 1 && row[0] == "") {
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}

	if len(ds.Rows) == 0 {
		return nil, errors.New("source file contains no data rows")
	}
	return ds, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
