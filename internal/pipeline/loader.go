package pipeline

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"log"

	"github.com/gridsink/meterflow/internal/metrics"
	"github.com/gridsink/meterflow/internal/models"
	"github.com/gridsink/meterflow/internal/source"
)

// Load parses the delimited source fully into memory. A missing source is a
// recoverable warning; any other failure is a recoverable error. Both yield
// an empty table, so callers treat "no data" as "nothing this cycle", never
// as fatal.
func Load(src source.Source, delimiter rune) (*models.RawTable, Status) {
	rc, err := src.Open()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("loader: source not found: %s", src)
			return models.NewRawTable(), StatusSkipped
		}
		log.Printf("loader: open %s: %v", src, err)
		return models.NewRawTable(), StatusFailed
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.Comma = delimiter
	records, err := r.ReadAll()
	if err != nil {
		log.Printf("loader: parse %s: %v", src, err)
		return models.NewRawTable(), StatusFailed
	}
	if len(records) == 0 {
		log.Printf("loader: source %s has no header row", src)
		return models.NewRawTable(), StatusOK
	}

	table := &models.RawTable{Columns: records[0], Rows: records[1:]}
	log.Printf("loader: loaded dataset with %d rows and %d columns", len(table.Rows), len(table.Columns))
	metrics.RowsLoaded.Set(float64(len(table.Rows)))
	return table, StatusOK
}
