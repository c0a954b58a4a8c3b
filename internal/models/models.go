package models

import "time"

// Required header columns of a raw measurements file. The optional date
// column duplicates timestamp and is never carried forward.
var RequiredColumns = []string{"timestamp", "grid_purchase", "grid_feedin", "direct_consumption"}

// RawTable is a delimited file parsed fully into memory: one header row and
// zero or more data rows, all values still text. No uniqueness or ordering
// guarantees.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

func NewRawTable() *RawTable {
	return &RawTable{}
}

func (t *RawTable) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// ColumnIndex returns the position of a named column, or -1 if absent.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumns reports whether every named column is present in the header.
func (t *RawTable) HasColumns(names []string) bool {
	for _, n := range names {
		if t.ColumnIndex(n) < 0 {
			return false
		}
	}
	return true
}

// Field returns the value of a named column in a row, or "" when the column
// is absent or the row is short.
func (t *RawTable) Field(row []string, name string) string {
	i := t.ColumnIndex(name)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Record is one cleaned meter reading keyed by timestamp. The aggregate
// fields are zero until the hour-metrics stage fills them in.
type Record struct {
	Timestamp             time.Time
	GridPurchase          int64
	GridFeedin            int64
	DirectConsumption     int64
	DirectConsumptionFlag bool

	// Hour-of-day totals, broadcast to every record sharing the hour bucket.
	GridPurchaseTotal int64
	GridFeedinTotal   int64

	// Whether this record holds its calendar day's maximum value.
	MaxGridPurchaseHour bool
	MaxGridFeedinHour   bool
}

// Table is a cleaned, timestamp-keyed set of records. Timestamps are unique;
// input order is preserved.
type Table struct {
	Records []Record
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Empty() bool {
	return t == nil || len(t.Records) == 0
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
