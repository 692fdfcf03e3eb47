package load

import (
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"market_etl/internal/tracker"
)

// parquetRow mirrors tracker.Columns; field names here are the warehouse
// table contract.
type parquetRow struct {
	PeriodBegin      string  `parquet:"name=period_begin, type=BYTE_ARRAY, convertedtype=UTF8"`
	PeriodEnd        string  `parquet:"name=period_end, type=BYTE_ARRAY, convertedtype=UTF8"`
	PeriodBeginYear  string  `parquet:"name=period_begin_in_years, type=BYTE_ARRAY, convertedtype=UTF8"`
	PeriodEndYear    string  `parquet:"name=period_end_in_years, type=BYTE_ARRAY, convertedtype=UTF8"`
	PeriodBeginMonth string  `parquet:"name=period_begin_in_months, type=BYTE_ARRAY, convertedtype=UTF8"`
	PeriodEndMonth   string  `parquet:"name=period_end_in_months, type=BYTE_ARRAY, convertedtype=UTF8"`
	RegionType       string  `parquet:"name=region_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	RegionTypeID     int32   `parquet:"name=region_type_id, type=INT32"`
	TableID          int32   `parquet:"name=table_id, type=INT32"`
	SeasonallyAdj    string  `parquet:"name=is_seasonally_adjusted, type=BYTE_ARRAY, convertedtype=UTF8"`
	City             string  `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	State            string  `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8"`
	StateCode        string  `parquet:"name=state_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	PropertyType     string  `parquet:"name=property_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	PropertyTypeID   int32   `parquet:"name=property_type_id, type=INT32"`
	MedianSalePrice  float64 `parquet:"name=median_sale_price, type=DOUBLE"`
	MedianListPrice  float64 `parquet:"name=median_list_price, type=DOUBLE"`
	MedianPPSF       float64 `parquet:"name=median_ppsf, type=DOUBLE"`
	MedianListPPSF   float64 `parquet:"name=median_list_ppsf, type=DOUBLE"`
	HomesSold        float64 `parquet:"name=homes_sold, type=DOUBLE"`
	Inventory        float64 `parquet:"name=inventory, type=DOUBLE"`
	MonthsOfSupply   float64 `parquet:"name=months_of_supply, type=DOUBLE"`
	MedianDOM        float64 `parquet:"name=median_dom, type=DOUBLE"`
	AvgSaleToList    float64 `parquet:"name=avg_sale_to_list, type=DOUBLE"`
	SoldAboveList    float64 `parquet:"name=sold_above_list, type=DOUBLE"`
	ParentMetroCode  string  `parquet:"name=parent_metro_region_metro_code, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastUpdated      string  `parquet:"name=last_updated, type=BYTE_ARRAY, convertedtype=UTF8"`
}

func toParquetRow(r tracker.Record) parquetRow {
	return parquetRow{
		PeriodBegin:      r.PeriodBegin,
		PeriodEnd:        r.PeriodEnd,
		PeriodBeginYear:  r.PeriodBeginYear,
		PeriodEndYear:    r.PeriodEndYear,
		PeriodBeginMonth: r.PeriodBeginMonth,
		PeriodEndMonth:   r.PeriodEndMonth,
		RegionType:       r.RegionType,
		RegionTypeID:     r.RegionTypeID,
		TableID:          r.TableID,
		SeasonallyAdj:    r.SeasonallyAdj,
		City:             r.City,
		State:            r.State,
		StateCode:        r.StateCode,
		PropertyType:     r.PropertyType,
		PropertyTypeID:   r.PropertyTypeID,
		MedianSalePrice:  r.MedianSalePrice,
		MedianListPrice:  r.MedianListPrice,
		MedianPPSF:       r.MedianPPSF,
		MedianListPPSF:   r.MedianListPPSF,
		HomesSold:        r.HomesSold,
		Inventory:        r.Inventory,
		MonthsOfSupply:   r.MonthsOfSupply,
		MedianDOM:        r.MedianDOM,
		AvgSaleToList:    r.AvgSaleToList,
		SoldAboveList:    r.SoldAboveList,
		ParentMetroCode:  r.ParentMetroCode,
		LastUpdated:      r.LastUpdated,
	}
}

// WriteParquet writes records as a Snappy-compressed parquet file.
func WriteParquet(path string, records []tracker.Record) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create local file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 4)
	if err != nil {
		fw.Close()
		os.Remove(path)
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, rec := range records {
		if err := pw.Write(toParquetRow(rec)); err != nil {
			fw.Close()
			os.Remove(path)
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
		// Flush periodically for large files
		if (i+1)%100000 == 0 {
			if err := pw.Flush(true); err != nil {
				fw.Close()
				os.Remove(path)
				return fmt.Errorf("failed to flush parquet writer: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(path)
		return fmt.Errorf("error in WriteStop: %w", err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("error closing file writer: %w", err)
	}
	return nil
}
