package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether an unsigned-amount transaction credits or
// debits the account. Signed formats leave it empty and carry the sign on
// the amount itself.
type Direction string

const (
	DirectionCredit  Direction = "CREDIT"
	DirectionDebit   Direction = "DEBIT"
	DirectionUnknown Direction = ""
)

// SpecialType tags transactions whose effect on the running balance
// deviates from the default arithmetic.
type SpecialType string

const (
	// SpecialNormal applies the standard format rule.
	SpecialNormal SpecialType = "NORMAL"

	// SpecialCommissionDisbursement is a transfer between two sub-wallets of
	// the same account; its contribution to the balance is inverted relative
	// to the literal amount sign.
	SpecialCommissionDisbursement SpecialType = "COMMISSION_DISBURSEMENT"

	// SpecialDeallocationTransfer never changes the running balance.
	SpecialDeallocationTransfer SpecialType = "DEALLOCATION_TRANSFER"

	// SpecialRollback never changes the running balance.
	SpecialRollback SpecialType = "ROLLBACK"

	// SpecialTransactionReversal is tagged for audit but handled identically
	// to NORMAL. Providers emit reversals that both do and do not affect the
	// underlying balance within the same export, with no distinguishing
	// field, so the engine applies them normally and leaves any resulting
	// balance diff visible for audit.
	SpecialTransactionReversal SpecialType = "TRANSACTION_REVERSAL"
)

// Transaction is one parsed statement row, immutable once parsed.
// Transaction IDs may repeat across statements; within one statement the
// combination of ID, date, amount and type label identifies a row.
type Transaction struct {
	ID        string    `json:"transaction_id"`
	Timestamp time.Time `json:"timestamp"`

	// TypeLabel is the provider's free-text description, used for
	// special-type and implicit-fee detection.
	TypeLabel string `json:"type_label"`

	// Amount is signed or unsigned depending on the statement format.
	Amount decimal.Decimal `json:"amount"`

	// Fee may be zero when the format embeds fees in the amount.
	Fee decimal.Decimal `json:"fee"`

	// ReportedBalance is the statement's own running balance at this row.
	ReportedBalance decimal.Decimal `json:"reported_balance"`

	// HasReportedBalance is false when the row's balance column was empty or
	// unparseable. Missing on the first row it is a structural failure;
	// elsewhere a recoverable quality issue.
	HasReportedBalance bool `json:"has_reported_balance"`

	// Direction is present only in unsigned formats.
	Direction Direction `json:"direction,omitempty"`

	// QualityIssues counts fields that were coerced or defaulted while this
	// row was converted from the parser collaborator's raw record.
	QualityIssues int `json:"quality_issues,omitempty"`
}

// ProcessedTransaction is a Transaction enriched by the reconciliation
// engine. CalculatedBalance at row i is a deterministic pure function of row
// i-1's calculated balance and row i's own fields.
type ProcessedTransaction struct {
	Transaction

	IsDuplicate bool        `json:"is_duplicate"`
	SpecialType SpecialType `json:"special_type"`

	// ImplicitFee is a fee (positive) or cashback (negative) inferred from
	// the type label, not present in the statement's own fee column.
	ImplicitFee decimal.Decimal `json:"implicit_fee"`

	CalculatedBalance decimal.Decimal `json:"calculated_balance"`

	// BalanceDiff is ReportedBalance minus CalculatedBalance.
	BalanceDiff decimal.Decimal `json:"balance_diff"`

	// BalanceDiffChanged is true when BalanceDiff moved beyond epsilon
	// relative to the previous row's diff.
	BalanceDiffChanged bool `json:"balance_diff_changed"`

	// GapBeforeDays is the day gap separating this row from its predecessor.
	// Zero for the first row.
	GapBeforeDays float64 `json:"gap_before_days"`
}
