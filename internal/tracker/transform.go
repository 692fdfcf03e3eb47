package tracker

import (
	"strconv"
	"strings"
	"time"
)

const periodDateLayout = "2006-01-02"

// Stats counts the outcome of one transform pass. Skipped rows are tallied
// by reason so no drop goes unreported.
type Stats struct {
	RowsIn               int
	RowsOut              int
	SkippedBadDate       int
	SkippedMissingMetric int
	SkippedMalformed     int
}

// Skipped returns the total number of dropped rows.
func (s Stats) Skipped() int {
	return s.SkippedBadDate + s.SkippedMissingMetric + s.SkippedMalformed
}

// Transform cleans and reshapes raw market-tracker rows into destination
// records. It is a pure function: no I/O, no clock, and running it twice on
// the same input yields identical output.
//
// Row policy is drop-by-default: a row with an unparseable period date, a
// missing or non-numeric required metric, or too few fields is dropped and
// counted rather than failing the run. Structural problems are caught
// earlier, in ParseHeader.
func Transform(header Header, rows [][]string) ([]Record, Stats, error) {
	records := make([]Record, 0, len(rows))
	stats := Stats{RowsIn: len(rows)}

	for _, row := range rows {
		rec, reason := transformRow(header, row)
		switch reason {
		case skipNone:
			records = append(records, rec)
		case skipBadDate:
			stats.SkippedBadDate++
		case skipMissingMetric:
			stats.SkippedMissingMetric++
		case skipMalformed:
			stats.SkippedMalformed++
		}
	}

	stats.RowsOut = len(records)
	return records, stats, nil
}

type skipReason int

const (
	skipNone skipReason = iota
	skipBadDate
	skipMissingMetric
	skipMalformed
)

func transformRow(header Header, row []string) (Record, skipReason) {
	get := func(name string) (string, bool) {
		i, ok := header[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	// Every required column passed ParseHeader, so a miss here means the
	// row itself is short.
	for _, name := range requiredSourceColumns {
		if _, ok := get(name); !ok {
			return Record{}, skipMalformed
		}
	}

	var rec Record

	periodBegin, _ := get("period_begin")
	periodEnd, _ := get("period_end")
	begin, err := time.Parse(periodDateLayout, periodBegin)
	if err != nil {
		return Record{}, skipBadDate
	}
	end, err := time.Parse(periodDateLayout, periodEnd)
	if err != nil {
		return Record{}, skipBadDate
	}
	rec.PeriodBegin = periodBegin
	rec.PeriodEnd = periodEnd
	rec.PeriodBeginYear = begin.Format("2006")
	rec.PeriodEndYear = end.Format("2006")
	rec.PeriodBeginMonth = begin.Format("Jan")
	rec.PeriodEndMonth = end.Format("Jan")

	rec.RegionType, _ = get("region_type")
	rec.SeasonallyAdj, _ = get("is_seasonally_adjusted")
	rec.State, _ = get("state")
	rec.StateCode, _ = get("state_code")
	rec.PropertyType, _ = get("property_type")
	rec.ParentMetroCode, _ = get("parent_metro_region_metro_code")
	rec.LastUpdated, _ = get("last_updated")

	// Downstream consumers split on commas, so strip them from free-text
	// geography before they reach the delimited output.
	city, _ := get("city")
	rec.City = cleanText(city)

	ids := []struct {
		name string
		dst  *int32
	}{
		{"region_type_id", &rec.RegionTypeID},
		{"table_id", &rec.TableID},
		{"property_type_id", &rec.PropertyTypeID},
	}
	for _, id := range ids {
		raw, _ := get(id.name)
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return Record{}, skipMalformed
		}
		*id.dst = int32(n)
	}

	metrics := []struct {
		name string
		dst  *float64
	}{
		{"median_sale_price", &rec.MedianSalePrice},
		{"median_list_price", &rec.MedianListPrice},
		{"median_ppsf", &rec.MedianPPSF},
		{"median_list_ppsf", &rec.MedianListPPSF},
		{"homes_sold", &rec.HomesSold},
		{"inventory", &rec.Inventory},
		{"months_of_supply", &rec.MonthsOfSupply},
		{"median_dom", &rec.MedianDOM},
		{"avg_sale_to_list", &rec.AvgSaleToList},
		{"sold_above_list", &rec.SoldAboveList},
	}
	for _, m := range metrics {
		raw, _ := get(m.name)
		if raw == "" || strings.EqualFold(raw, "na") {
			return Record{}, skipMissingMetric
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Record{}, skipMissingMetric
		}
		*m.dst = v
	}

	return rec, skipNone
}

// cleanText strips thousands-separator punctuation from a free-text field.
func cleanText(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
