package ledger

import "CandleLedger/internal/model"

// Merge appends rec unless a record with the same date exists, then keeps
// only the newest limit entries. It never mutates records. The bool reports
// whether rec was added.
func Merge(records []model.DailyRecord, rec model.DailyRecord, limit int) ([]model.DailyRecord, bool) {
	for _, r := range records {
		if r.Date == rec.Date {
			return records, false
		}
	}
	merged := make([]model.DailyRecord, 0, len(records)+1)
	merged = append(merged, records...)
	merged = append(merged, rec)
	if limit > 0 && len(merged) > limit {
		merged = merged[len(merged)-limit:]
	}
	return merged, true
}
