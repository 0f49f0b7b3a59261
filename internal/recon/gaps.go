package recon

import (
	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

const hoursPerDay = 24.0

// GapDetector annotates day gaps between consecutive transactions and
// attributes balance-diff changes that occur right after a significant gap
// to missing statement days. It never alters the balance calculation; the
// attribution exists so downstream triage can separate missing-data
// mismatches from other causes.
type GapDetector struct {
	thresholdDays float64
}

// NewGapDetector returns a detector treating gaps above thresholdDays as
// significant.
func NewGapDetector(thresholdDays float64) *GapDetector {
	return &GapDetector{thresholdDays: thresholdDays}
}

// Annotate fills GapBeforeDays on every row and returns the count of
// diff changes preceded by a significant gap, plus whether any such
// attribution was made.
func (d *GapDetector) Annotate(rows []*domain.ProcessedTransaction) (gapRelated int, missingDays bool) {
	for i, row := range rows {
		if i == 0 {
			continue
		}
		gap := row.Timestamp.Sub(rows[i-1].Timestamp).Hours() / hoursPerDay
		row.GapBeforeDays = gap
		if gap > d.thresholdDays && row.BalanceDiffChanged {
			gapRelated++
			missingDays = true
		}
	}
	return gapRelated, missingDays
}
