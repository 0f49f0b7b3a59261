package recon

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

// runID derives a stable identifier for a statement's verification result.
// Name-based so that re-running the engine on identical input produces
// byte-identical results.
func runID(statementID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("verification:"+statementID)).String()
}

// buildVerdict aggregates the reconciliation pass into one immutable
// VerificationResult. The balance matches when the final row's diff is zero
// within epsilon; duplicates and quality issues downgrade a matching
// statement to WARNING.
func buildVerdict(state *State, epsilon decimal.Decimal) *domain.VerificationResult {
	res := &domain.VerificationResult{
		RunID:                    runID(state.Statement.ID),
		StatementID:              state.Statement.ID,
		DuplicateCount:           state.DuplicateCount,
		MissingDaysDetected:      state.MissingDaysDetected,
		GapRelatedBalanceChanges: state.GapRelatedChanges,
		QualityIssues:            state.QualityIssues,
	}

	changes := 0
	for _, row := range state.Rows {
		if row.BalanceDiffChanged {
			changes++
		}
	}
	res.BalanceDiffChanges = changes
	if n := len(state.Rows); n > 0 {
		res.BalanceDiffChangeRatio = float64(changes) / float64(n)
	}

	last := state.Rows[len(state.Rows)-1]
	if last.BalanceDiff.Abs().LessThanOrEqual(epsilon) {
		res.BalanceMatch = domain.BalanceMatchSuccess
	} else {
		res.BalanceMatch = domain.BalanceMatchFailed
	}

	// The declared closing balance should agree with the statement's own
	// last reported balance; a mismatch is a quality issue, not a balance
	// failure.
	if declared := state.Context.DeclaredClosingBalance; declared != nil && last.HasReportedBalance {
		if declared.Sub(last.ReportedBalance).Abs().GreaterThan(epsilon) {
			res.QualityIssues++
		}
	}

	switch {
	case res.BalanceMatch == domain.BalanceMatchFailed:
		res.Status = domain.VerificationFail
		res.Reason = fmt.Sprintf("closing balance does not reconcile: final diff %s", last.BalanceDiff.String())
	case res.DuplicateCount > 0 || res.QualityIssues > 0:
		res.Status = domain.VerificationWarning
		res.Reason = fmt.Sprintf("balance reconciles with %d duplicate(s) and %d quality issue(s)",
			res.DuplicateCount, res.QualityIssues)
	default:
		res.Status = domain.VerificationPass
	}
	return res
}

// structuralVerdict builds the FAIL result for a statement that could not
// be reconciled at all.
func structuralVerdict(state *State, serr *StructuralError) *domain.VerificationResult {
	return &domain.VerificationResult{
		RunID:          runID(state.Statement.ID),
		StatementID:    state.Statement.ID,
		BalanceMatch:   domain.BalanceMatchFailed,
		DuplicateCount: state.DuplicateCount,
		QualityIssues:  state.QualityIssues,
		Status:         domain.VerificationFail,
		Reason:         serr.Reason,
	}
}
