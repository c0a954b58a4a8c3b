package pipeline

import (
	"testing"
	"time"

	"github.com/gridsink/meterflow/internal/models"
)

func record(ts string, purchase, feedin int64) models.Record {
	parsed, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		panic(err)
	}
	return models.Record{Timestamp: parsed, GridPurchase: purchase, GridFeedin: feedin}
}

func TestAddHourMetrics_EmptyTable(t *testing.T) {
	in := models.NewTable()
	out, status := AddHourMetrics(in)
	if status != StatusSkipped {
		t.Errorf("status = %q, want skipped", status)
	}
	if out != in {
		t.Error("empty input not returned unchanged")
	}
}

func TestAddHourMetrics_TotalsSpanDays(t *testing.T) {
	in := &models.Table{Records: []models.Record{
		record("2024-01-01 14:00:00", 100, 10),
		record("2024-01-02 14:30:00", 50, 20),
		record("2024-01-01 09:00:00", 7, 3),
	}}

	out, status := AddHourMetrics(in)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}
	if out.Len() != 3 {
		t.Fatalf("out.Len() = %d, want 3", out.Len())
	}

	// Both hour-14 records get the cross-day hour total.
	for _, i := range []int{0, 1} {
		if out.Records[i].GridPurchaseTotal != 150 {
			t.Errorf("record %d GridPurchaseTotal = %d, want 150", i, out.Records[i].GridPurchaseTotal)
		}
		if out.Records[i].GridFeedinTotal != 30 {
			t.Errorf("record %d GridFeedinTotal = %d, want 30", i, out.Records[i].GridFeedinTotal)
		}
	}
	if out.Records[2].GridPurchaseTotal != 7 {
		t.Errorf("record 2 GridPurchaseTotal = %d, want 7", out.Records[2].GridPurchaseTotal)
	}
}

func TestAddHourMetrics_DayMaxFlags(t *testing.T) {
	in := &models.Table{Records: []models.Record{
		record("2024-01-01 00:00:00", 10, 5),
		record("2024-01-01 01:00:00", 99, 1),
		record("2024-01-02 00:00:00", 3, 8),
	}}

	out, status := AddHourMetrics(in)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}

	if out.Records[0].MaxGridPurchaseHour {
		t.Error("record 0 MaxGridPurchaseHour = true, want false")
	}
	if !out.Records[1].MaxGridPurchaseHour {
		t.Error("record 1 MaxGridPurchaseHour = false, want true")
	}
	if !out.Records[0].MaxGridFeedinHour {
		t.Error("record 0 MaxGridFeedinHour = false, want true")
	}
	// Day 2 has a single record, so it is its own maximum.
	if !out.Records[2].MaxGridPurchaseHour || !out.Records[2].MaxGridFeedinHour {
		t.Error("record 2 should hold both day maxima")
	}
}

func TestAddHourMetrics_TiesFlagAllHolders(t *testing.T) {
	in := &models.Table{Records: []models.Record{
		record("2024-01-01 00:00:00", 42, 1),
		record("2024-01-01 01:00:00", 42, 2),
		record("2024-01-01 02:00:00", 10, 2),
	}}

	out, status := AddHourMetrics(in)
	if status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}

	if !out.Records[0].MaxGridPurchaseHour || !out.Records[1].MaxGridPurchaseHour {
		t.Error("tied purchase maxima should both be flagged")
	}
	if out.Records[2].MaxGridPurchaseHour {
		t.Error("record 2 MaxGridPurchaseHour = true, want false")
	}
	if !out.Records[1].MaxGridFeedinHour || !out.Records[2].MaxGridFeedinHour {
		t.Error("tied feedin maxima should both be flagged")
	}
}

func TestAddHourMetrics_DoesNotMutateInput(t *testing.T) {
	in := &models.Table{Records: []models.Record{
		record("2024-01-01 00:00:00", 10, 5),
	}}

	if _, status := AddHourMetrics(in); status != StatusOK {
		t.Fatalf("status = %q, want ok", status)
	}
	if in.Records[0].GridPurchaseTotal != 0 {
		t.Error("input table was mutated")
	}
}
