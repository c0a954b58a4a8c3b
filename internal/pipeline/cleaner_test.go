package pipeline

import (
	"testing"
	"time"

	"github.com/gridsink/meterflow/internal/models"
)

func rawTable(rows ...[]string) *models.RawTable {
	return &models.RawTable{
		Columns: []string{"timestamp", "grid_purchase", "grid_feedin", "direct_consumption"},
		Rows:    rows,
	}
}

func TestClean_EmptyTable(t *testing.T) {
	cleaned, status := Clean(models.NewRawTable())
	if status != StatusSkipped {
		t.Errorf("status = %q, want skipped", status)
	}
	if !cleaned.Empty() {
		t.Errorf("cleaned.Len() = %d, want 0", cleaned.Len())
	}
}

func TestClean_MissingRequiredColumn(t *testing.T) {
	raw := &models.RawTable{
		Columns: []string{"timestamp", "grid_purchase", "grid_feedin"},
		Rows:    [][]string{{"2024-01-01 00:00:00", "1", "2"}},
	}

	cleaned, status := Clean(raw)
	if status != StatusFailed {
		t.Errorf("status = %q, want failed", status)
	}
	if !cleaned.Empty() {
		t.Errorf("cleaned.Len() = %d, want 0", cleaned.Len())
	}
}

func TestClean_DropsDevTestRows(t *testing.T) {
	raw := rawTable(
		[]string{"2024-01-01 00:00:00", "100", "20", "Dev test"},
		[]string{"2024-01-01 01:00:00", "50", "30", "10"},
	)

	cleaned, status := Clean(raw)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}
	if cleaned.Len() != 1 {
		t.Fatalf("cleaned.Len() = %d, want 1", cleaned.Len())
	}
	if cleaned.Records[0].GridPurchase != 50 {
		t.Errorf("GridPurchase = %d, want 50", cleaned.Records[0].GridPurchase)
	}
}

func TestClean_UnparseableMetricBecomesZero(t *testing.T) {
	raw := rawTable(
		[]string{"2024-01-01 00:00:00", "abc", "30", ""},
	)

	cleaned, status := Clean(raw)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}
	if cleaned.Len() != 1 {
		t.Fatalf("cleaned.Len() = %d, want 1", cleaned.Len())
	}
	r := cleaned.Records[0]
	if r.GridPurchase != 0 {
		t.Errorf("GridPurchase = %d, want 0", r.GridPurchase)
	}
	if r.GridFeedin != 30 {
		t.Errorf("GridFeedin = %d, want 30", r.GridFeedin)
	}
	if r.DirectConsumption != 0 {
		t.Errorf("DirectConsumption = %d, want 0", r.DirectConsumption)
	}
	if r.DirectConsumptionFlag {
		t.Error("DirectConsumptionFlag = true, want false")
	}
}

func TestClean_DropsUnparseableTimestamps(t *testing.T) {
	raw := rawTable(
		[]string{"not a time", "1", "2", "3"},
		[]string{"", "1", "2", "3"},
		[]string{"2024-01-01 00:00:00", "1", "2", "3"},
	)

	cleaned, status := Clean(raw)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}
	if cleaned.Len() != 1 {
		t.Fatalf("cleaned.Len() = %d, want 1", cleaned.Len())
	}
}

func TestClean_DuplicateTimestampKeepsFirst(t *testing.T) {
	raw := rawTable(
		[]string{"2024-01-01 00:00:00", "100", "20", "Dev test"},
		[]string{"2024-01-01 01:00:00", "abc", "30", "10"},
		[]string{"2024-01-01 01:00:00", "50", "30", "10"},
	)

	cleaned, status := Clean(raw)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}
	if cleaned.Len() != 1 {
		t.Fatalf("cleaned.Len() = %d, want 1", cleaned.Len())
	}

	r := cleaned.Records[0]
	want := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %s, want %s", r.Timestamp, want)
	}
	// The first occurrence wins even though its metric was coerced to zero.
	if r.GridPurchase != 0 {
		t.Errorf("GridPurchase = %d, want 0", r.GridPurchase)
	}
	if r.GridFeedin != 30 {
		t.Errorf("GridFeedin = %d, want 30", r.GridFeedin)
	}
	if r.DirectConsumption != 10 {
		t.Errorf("DirectConsumption = %d, want 10", r.DirectConsumption)
	}
	if !r.DirectConsumptionFlag {
		t.Error("DirectConsumptionFlag = false, want true")
	}
}

func TestClean_IgnoresExtraDateColumn(t *testing.T) {
	raw := &models.RawTable{
		Columns: []string{"timestamp", "date", "grid_purchase", "grid_feedin", "direct_consumption"},
		Rows: [][]string{
			{"2024-01-01 00:00:00", "2024-01-01", "1", "2", "3"},
		},
	}

	cleaned, status := Clean(raw)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}
	if cleaned.Len() != 1 {
		t.Fatalf("cleaned.Len() = %d, want 1", cleaned.Len())
	}
	if cleaned.Records[0].GridPurchase != 1 {
		t.Errorf("GridPurchase = %d, want 1", cleaned.Records[0].GridPurchase)
	}
}

func TestClean_AlreadyCleanDataUnchanged(t *testing.T) {
	raw := rawTable(
		[]string{"2024-01-01 00:00:00", "1", "2", "0"},
		[]string{"2024-01-01 01:00:00", "3", "4", "5"},
	)

	cleaned, status := Clean(raw)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}
	if cleaned.Len() != 2 {
		t.Fatalf("cleaned.Len() = %d, want 2", cleaned.Len())
	}
	if cleaned.Records[0].DirectConsumptionFlag {
		t.Error("record 0 flag = true, want false")
	}
	if !cleaned.Records[1].DirectConsumptionFlag {
		t.Error("record 1 flag = false, want true")
	}
}

func TestCoerceMetric(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"42", 42},
		{" 42 ", 42},
		{"-7", -7},
		{"3.9", 3},
		{"", 0},
		{"abc", 0},
		{"1e2", 100},
	}
	for _, tt := range tests {
		if got := coerceMetric(tt.in); got != tt.want {
			t.Errorf("coerceMetric(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
