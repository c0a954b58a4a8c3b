package pipeline

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"

	"github.com/gridsink/meterflow/internal/metrics"
	"github.com/gridsink/meterflow/internal/models"
)

// Output column order: the timestamp key first, then cleaned columns, flag,
// hour totals, day-max flags.
var exportHeader = []string{
	"timestamp",
	"grid_purchase",
	"grid_feedin",
	"direct_consumption",
	"direct_consumption_flag",
	"grid_purchase_total",
	"grid_feedin_total",
	"max_grid_purchase_hour",
	"max_grid_feedin_hour",
}

const exportTimeLayout = "2006-01-02 15:04:05"

// Export serializes the table to a delimited file. An empty table is not
// written at all; write failures are logged and swallowed.
func Export(t *models.Table, dest string, delimiter rune) Status {
	if t.Empty() {
		log.Printf("exporter: no data to export")
		return StatusSkipped
	}

	f, err := os.Create(dest)
	if err != nil {
		log.Printf("exporter: create %s: %v", dest, err)
		return StatusFailed
	}

	w := csv.NewWriter(f)
	w.Comma = delimiter

	if err := w.Write(exportHeader); err != nil {
		log.Printf("exporter: write header to %s: %v", dest, err)
		f.Close()
		return StatusFailed
	}
	for _, r := range t.Records {
		row := []string{
			r.Timestamp.Format(exportTimeLayout),
			strconv.FormatInt(r.GridPurchase, 10),
			strconv.FormatInt(r.GridFeedin, 10),
			strconv.FormatInt(r.DirectConsumption, 10),
			strconv.FormatBool(r.DirectConsumptionFlag),
			strconv.FormatInt(r.GridPurchaseTotal, 10),
			strconv.FormatInt(r.GridFeedinTotal, 10),
			strconv.FormatBool(r.MaxGridPurchaseHour),
			strconv.FormatBool(r.MaxGridFeedinHour),
		}
		if err := w.Write(row); err != nil {
			log.Printf("exporter: write row to %s: %v", dest, err)
			f.Close()
			return StatusFailed
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Printf("exporter: flush %s: %v", dest, err)
		f.Close()
		return StatusFailed
	}
	if err := f.Close(); err != nil {
		log.Printf("exporter: close %s: %v", dest, err)
		return StatusFailed
	}

	log.Printf("exporter: exported dataset with %d rows and %d columns", t.Len(), len(exportHeader))
	metrics.RowsExported.Set(float64(t.Len()))
	return StatusOK
}
