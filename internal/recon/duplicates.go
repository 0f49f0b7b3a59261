package recon

import (
	"strings"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

// identityKey builds the composite duplicate key: transaction ID, the
// date-truncated timestamp, the amount and the type label. Transaction IDs
// alone repeat legitimately across providers, so the full combination is
// required.
func identityKey(tx *domain.Transaction) string {
	return strings.Join([]string{
		tx.ID,
		tx.Timestamp.UTC().Format("2006-01-02"),
		tx.Amount.String(),
		tx.TypeLabel,
	}, "|")
}

// markDuplicates flags every row whose identity key was already seen earlier
// in the same statement and returns the duplicate count. Duplicates stay in
// the balance calculation: providers legitimately emit repeated identical
// transactions, so the count is reported for audit only.
func markDuplicates(rows []*domain.ProcessedTransaction) int {
	seen := make(map[string]struct{}, len(rows))
	count := 0
	for _, row := range rows {
		key := identityKey(&row.Transaction)
		if _, ok := seen[key]; ok {
			row.IsDuplicate = true
			count++
			continue
		}
		seen[key] = struct{}{}
	}
	return count
}
