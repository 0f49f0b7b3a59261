package recon

import (
	"strings"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

// DetectSpecialType classifies a transaction by case-insensitive substring
// match on the provider's type label.
func DetectSpecialType(typeLabel string) domain.SpecialType {
	label := strings.ToLower(typeLabel)
	switch {
	case strings.Contains(label, "commission disbursement"):
		return domain.SpecialCommissionDisbursement
	case strings.Contains(label, "deallocation transfer"):
		return domain.SpecialDeallocationTransfer
	case strings.Contains(label, "rollback"):
		return domain.SpecialRollback
	case strings.Contains(label, "transaction reversal"):
		return domain.SpecialTransactionReversal
	default:
		return domain.SpecialNormal
	}
}

// AmountsSigned resolves the statement's sign convention once, from the
// first transaction. Only the unsigned format with a usable direction on
// the first row is treated as unsigned; anything else falls back to signed.
func AmountsSigned(format domain.FormatKind, txs []domain.Transaction) bool {
	if format != domain.FormatUnsignedFeeSeparate {
		return true
	}
	if len(txs) == 0 {
		return true
	}
	switch txs[0].Direction {
	case domain.DirectionCredit, domain.DirectionDebit:
		return false
	}
	return true
}
