package pipeline

import (
	"log"

	"github.com/gridsink/meterflow/internal/models"
)

// AddHourMetrics appends hour-of-day totals and day-maximum flags to a
// cleaned table. The totals are global hour-of-day buckets: every record in
// hour bucket 14 gets the sum of all 14:00 readings across every day in the
// table, not a per-day sum. Day maxima are per calendar day, and ties flag
// every record holding the maximum.
func AddHourMetrics(t *models.Table) (*models.Table, Status) {
	if t.Empty() {
		log.Printf("aggregator: table is empty, skipping hour metrics")
		return t, StatusSkipped
	}

	var purchaseTotals, feedinTotals [24]int64
	for _, r := range t.Records {
		h := r.Timestamp.Hour()
		purchaseTotals[h] += r.GridPurchase
		feedinTotals[h] += r.GridFeedin
	}

	type dayMax struct {
		purchase int64
		feedin   int64
	}
	maxByDay := make(map[string]dayMax)
	for _, r := range t.Records {
		d := dayKey(r)
		m, ok := maxByDay[d]
		if !ok {
			maxByDay[d] = dayMax{purchase: r.GridPurchase, feedin: r.GridFeedin}
			continue
		}
		if r.GridPurchase > m.purchase {
			m.purchase = r.GridPurchase
		}
		if r.GridFeedin > m.feedin {
			m.feedin = r.GridFeedin
		}
		maxByDay[d] = m
	}

	out := &models.Table{Records: make([]models.Record, len(t.Records))}
	for i, r := range t.Records {
		h := r.Timestamp.Hour()
		r.GridPurchaseTotal = purchaseTotals[h]
		r.GridFeedinTotal = feedinTotals[h]

		m := maxByDay[dayKey(r)]
		r.MaxGridPurchaseHour = r.GridPurchase == m.purchase
		r.MaxGridFeedinHour = r.GridFeedin == m.feedin
		out.Records[i] = r
	}

	log.Printf("aggregator: added hour metrics to %d rows", out.Len())
	return out, StatusOK
}

func dayKey(r models.Record) string {
	return r.Timestamp.Format("2006-01-02")
}
