// Package tracker holds the market-tracker dataset schema and the
// transform stage that reshapes raw rows into the destination table shape.
package tracker

import (
	"fmt"
	"strconv"
)

// Record is one cleaned row of the market-tracker dataset.
type Record struct {
	PeriodBegin      string
	PeriodEnd        string
	PeriodBeginYear  string
	PeriodEndYear    string
	PeriodBeginMonth string
	PeriodEndMonth   string

	RegionType     string
	RegionTypeID   int32
	TableID        int32
	SeasonallyAdj  string
	City           string
	State          string
	StateCode      string
	PropertyType   string
	PropertyTypeID int32

	MedianSalePrice float64
	MedianListPrice float64
	MedianPPSF      float64
	MedianListPPSF  float64
	HomesSold       float64
	Inventory       float64
	MonthsOfSupply  float64
	MedianDOM       float64
	AvgSaleToList   float64
	SoldAboveList   float64

	ParentMetroCode string
	LastUpdated     string
}

// Columns is the destination table schema: names and order are a fixed
// contract with the warehouse table and must not change without a
// coordinated migration.
var Columns = []string{
	"period_begin",
	"period_end",
	"period_begin_in_years",
	"period_end_in_years",
	"period_begin_in_months",
	"period_end_in_months",
	"region_type",
	"region_type_id",
	"table_id",
	"is_seasonally_adjusted",
	"city",
	"state",
	"state_code",
	"property_type",
	"property_type_id",
	"median_sale_price",
	"median_list_price",
	"median_ppsf",
	"median_list_ppsf",
	"homes_sold",
	"inventory",
	"months_of_supply",
	"median_dom",
	"avg_sale_to_list",
	"sold_above_list",
	"parent_metro_region_metro_code",
	"last_updated",
}

// requiredSourceColumns are the columns the raw file must carry. The four
// derived *_in_years / *_in_months columns are computed here, not read.
var requiredSourceColumns = []string{
	"period_begin",
	"period_end",
	"region_type",
	"region_type_id",
	"table_id",
	"is_seasonally_adjusted",
	"city",
	"state",
	"state_code",
	"property_type",
	"property_type_id",
	"median_sale_price",
	"median_list_price",
	"median_ppsf",
	"median_list_ppsf",
	"homes_sold",
	"inventory",
	"months_of_supply",
	"median_dom",
	"avg_sale_to_list",
	"sold_above_list",
	"parent_metro_region_metro_code",
	"last_updated",
}

// Header maps source column names to their index in a raw row.
type Header map[string]int

// ParseHeader builds a Header from the raw file's header row. A missing
// required column means the source file is structurally incompatible,
// which is fatal for the run.
func ParseHeader(cols []string) (Header, error) {
	h := make(Header, len(cols))
	for i, name := range cols {
		h[name] = i
	}
	for _, name := range requiredSourceColumns {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("source header is missing required column %q", name)
		}
	}
	return h, nil
}

// Row serializes the record into the destination column order.
func (r Record) Row() []string {
	return []string{
		r.PeriodBegin,
		r.PeriodEnd,
		r.PeriodBeginYear,
		r.PeriodEndYear,
		r.PeriodBeginMonth,
		r.PeriodEndMonth,
		r.RegionType,
		strconv.FormatInt(int64(r.RegionTypeID), 10),
		strconv.FormatInt(int64(r.TableID), 10),
		r.SeasonallyAdj,
		r.City,
		r.State,
		r.StateCode,
		r.PropertyType,
		strconv.FormatInt(int64(r.PropertyTypeID), 10),
		formatMetric(r.MedianSalePrice),
		formatMetric(r.MedianListPrice),
		formatMetric(r.MedianPPSF),
		formatMetric(r.MedianListPPSF),
		formatMetric(r.HomesSold),
		formatMetric(r.Inventory),
		formatMetric(r.MonthsOfSupply),
		formatMetric(r.MedianDOM),
		formatMetric(r.AvgSaleToList),
		formatMetric(r.SoldAboveList),
		r.ParentMetroCode,
		r.LastUpdated,
	}
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
