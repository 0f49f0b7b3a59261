package recon

import (
	"github.com/shopspring/decimal"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

// balanceState carries the running calculation between rows. It is a value
// type so the optimizer can fork it cheaply while scoring candidate
// orderings.
type balanceState struct {
	calc decimal.Decimal
	diff decimal.Decimal
}

// rowEffect returns one row's contribution to the running balance under the
// statement's format convention.
//
// Unsigned format: direction gives the sign, the separate fee is always
// deducted. Signed with separate fee: amount and fee are both signed and
// add directly. Signed with embedded fee: the amount already includes the
// provider fee. Implicit fees only exist for signed amounts and are
// deducted from the effective value.
func rowEffect(sctx *domain.StatementContext, row *domain.ProcessedTransaction) decimal.Decimal {
	switch row.SpecialType {
	case domain.SpecialDeallocationTransfer, domain.SpecialRollback:
		return decimal.Zero
	}

	amount := row.Amount
	if row.SpecialType == domain.SpecialCommissionDisbursement {
		// Transfer between sub-wallets of the same account: the balance
		// moves opposite to the literal amount sign.
		amount = amount.Neg()
	}

	if !sctx.AmountsSigned {
		eff := amount
		if row.Direction == domain.DirectionDebit {
			eff = eff.Neg()
		}
		return eff.Sub(row.Fee)
	}

	var eff decimal.Decimal
	if sctx.Format == domain.FormatSignedFeeEmbedded {
		eff = amount
	} else {
		eff = amount.Add(row.Fee)
	}
	return eff.Sub(row.ImplicitFee)
}

// deriveOpeningBalance inverts the first row's effect on the statement's
// own first reported balance.
func deriveOpeningBalance(sctx *domain.StatementContext, rows []*domain.ProcessedTransaction) (decimal.Decimal, error) {
	if len(rows) == 0 {
		return decimal.Zero, &StructuralError{Reason: "statement has no transactions"}
	}
	first := rows[0]
	if !first.HasReportedBalance {
		return decimal.Zero, &StructuralError{Reason: "first transaction has no reported balance"}
	}
	return first.ReportedBalance.Sub(rowEffect(sctx, first)), nil
}

// Calculator walks a transaction sequence once, producing the calculated
// balance and the per-row diff against the statement's own reported
// balance.
type Calculator struct {
	epsilon decimal.Decimal
}

// NewCalculator returns a calculator using the given diff tolerance.
func NewCalculator(epsilon decimal.Decimal) *Calculator {
	return &Calculator{epsilon: epsilon}
}

// advance applies one row to the running state and fills the row's
// calculated fields. Rows without a reported balance carry the previous
// diff forward; commission disbursements do the same because the same-wallet
// transfer only makes the inconsistency visible once it resurfaces later.
func (c *Calculator) advance(sctx *domain.StatementContext, st *balanceState, row *domain.ProcessedTransaction) {
	row.CalculatedBalance = st.calc.Add(rowEffect(sctx, row))

	prevDiff := st.diff
	switch {
	case row.SpecialType == domain.SpecialCommissionDisbursement:
		row.BalanceDiff = prevDiff
	case !row.HasReportedBalance:
		row.BalanceDiff = prevDiff
	default:
		row.BalanceDiff = row.ReportedBalance.Sub(row.CalculatedBalance)
	}
	row.BalanceDiffChanged = row.BalanceDiff.Sub(prevDiff).Abs().GreaterThan(c.epsilon)

	st.calc = row.CalculatedBalance
	st.diff = row.BalanceDiff
}

// Run derives the opening balance and computes every row's calculated
// balance and diff in statement order. It mutates the rows and records the
// opening balance on the context.
func (c *Calculator) Run(sctx *domain.StatementContext, rows []*domain.ProcessedTransaction) error {
	opening, err := deriveOpeningBalance(sctx, rows)
	if err != nil {
		return err
	}
	sctx.OpeningBalance = opening

	st := balanceState{calc: opening}
	for _, row := range rows {
		c.advance(sctx, &st, row)
	}
	return nil
}
