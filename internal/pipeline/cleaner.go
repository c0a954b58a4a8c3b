package pipeline

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gridsink/meterflow/internal/models"
)

// devTestSentinel marks fixture rows injected by the upstream meter; they
// are never valid readings.
const devTestSentinel = "Dev test"

// Timestamp layouts accepted from the raw source, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Clean normalizes a raw table into a timestamp-keyed one. The rule order is
// fixed: sentinel rows are dropped before numeric coercion, timestamps are
// keyed before duplicates collapse, and the consumption flag is computed
// last. A table missing any required column is unusable, not partially
// usable, and cleans to empty.
func Clean(raw *models.RawTable) (*models.Table, Status) {
	if raw.Empty() {
		log.Printf("cleaner: table is empty, skipping cleaning")
		return models.NewTable(), StatusSkipped
	}

	if !raw.HasColumns(models.RequiredColumns) {
		log.Printf("cleaner: missing required columns in dataset (have %v)", raw.Columns)
		return models.NewTable(), StatusFailed
	}

	cleaned := models.NewTable()
	seen := make(map[time.Time]bool, len(raw.Rows))
	for _, row := range raw.Rows {
		if raw.Field(row, "direct_consumption") == devTestSentinel {
			continue
		}

		// Unparseable metrics become 0; the row itself survives. The
		// redundant date column is dropped by never reading it, and integer
		// fields cannot go null past this point.
		rec := models.Record{
			GridPurchase:      coerceMetric(raw.Field(row, "grid_purchase")),
			GridFeedin:        coerceMetric(raw.Field(row, "grid_feedin")),
			DirectConsumption: coerceMetric(raw.Field(row, "direct_consumption")),
		}

		ts, ok := parseTimestamp(raw.Field(row, "timestamp"))
		if !ok {
			// Rows without a parseable timestamp cannot be keyed.
			continue
		}
		if seen[ts] {
			// Duplicate timestamps collapse to the first occurrence.
			continue
		}
		seen[ts] = true

		rec.Timestamp = ts
		rec.DirectConsumptionFlag = rec.DirectConsumption > 0
		cleaned.Records = append(cleaned.Records, rec)
	}

	log.Printf("cleaner: cleaned %d of %d rows", cleaned.Len(), len(raw.Rows))
	return cleaned, StatusOK
}

// coerceMetric converts a numeric-or-text field to an integer. Values that
// fail numeric parsing become 0 rather than dropping the row.
func coerceMetric(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	// Sources occasionally emit metrics as floats; truncate like an
	// integer cast would.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
