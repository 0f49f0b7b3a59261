package recon

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebran-flow/fraud-detection-sub001/internal/classify"
	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
	"github.com/ebran-flow/fraud-detection-sub001/internal/logger"
)

func testCtx() context.Context {
	return logger.WithContext(context.Background(), logger.NewWithWriter(io.Discard))
}

func signedTx(id string, ts time.Time, amount, reported int64, label string) domain.Transaction {
	return domain.Transaction{
		ID:                 id,
		Timestamp:          ts,
		TypeLabel:          label,
		Amount:             dec(amount),
		ReportedBalance:    dec(reported),
		HasReportedBalance: true,
	}
}

func TestEngineReconcile_CleanStatementPasses(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	stmt := &domain.Statement{
		ID:     "STMT-PASS",
		Format: domain.FormatSignedFeeSeparate,
		Metadata: domain.StatementMetadata{
			Producer:     "iText 7.1",
			Author:       "provider",
			FormatFamily: classify.FamilyFormat1,
			CreatedAt:    base,
			ModifiedAt:   base,
		},
		Transactions: []domain.Transaction{
			signedTx("T1", base, 1000, 6000, "Cash In"),
			signedTx("T2", base.Add(time.Hour), -500, 5500, "Cash Out"),
			signedTx("T3", base.Add(2*time.Hour), 250, 5750, "Cash In"),
		},
	}

	engine := NewEngine(DefaultOptions(), classify.Default())
	report, err := engine.Reconcile(testCtx(), stmt)
	require.NoError(t, err)

	assert.Equal(t, domain.VerificationPass, report.Verification.Status)
	assert.Equal(t, domain.BalanceMatchSuccess, report.Verification.BalanceMatch)
	assert.Equal(t, domain.LevelNoIssues, report.Classification.Level)
	assert.Equal(t, "Balance verification successful", report.Classification.Reason)
	assert.Len(t, report.Transactions, 3)
}

func TestEngineReconcile_Idempotent(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	makeStatement := func() *domain.Statement {
		return &domain.Statement{
			ID:     "STMT-IDEM",
			Format: domain.FormatSignedFeeSeparate,
			Metadata: domain.StatementMetadata{
				FormatFamily: classify.FamilyFormat1,
				CreatedAt:    base,
				ModifiedAt:   base.Add(time.Hour),
			},
			Transactions: []domain.Transaction{
				signedTx("T1", base, 1000, 6000, "Cash In"),
				signedTx("T2", base.Add(time.Hour), -500, 9999, "Cash Out"), // mismatch
				signedTx("T3", base.Add(time.Hour), 250, 5750, "Cash In"),
			},
		}
	}

	engine := NewEngine(DefaultOptions(), classify.Default())

	first, err := engine.Reconcile(testCtx(), makeStatement())
	require.NoError(t, err)
	second, err := engine.Reconcile(testCtx(), makeStatement())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "identical input must produce byte-identical reports")
}

func TestEngineReconcile_StructuralFailureIsReport(t *testing.T) {
	stmt := &domain.Statement{
		ID:     "STMT-EMPTY",
		Format: domain.FormatSignedFeeSeparate,
	}

	engine := NewEngine(DefaultOptions(), classify.Default())
	report, err := engine.Reconcile(testCtx(), stmt)

	require.NoError(t, err, "structural failures must not abort batch processing")
	require.NotNil(t, report.Verification)
	assert.Equal(t, domain.VerificationFail, report.Verification.Status)
	assert.Equal(t, "statement has no transactions", report.Verification.Reason)
	require.NotNil(t, report.Classification)
}

func TestEngineReconcile_UnsignedStatement(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tx := func(id string, ts time.Time, amount, fee, reported int64, dir domain.Direction) domain.Transaction {
		out := signedTx(id, ts, amount, reported, "Cash Movement")
		out.Fee = dec(fee)
		out.Direction = dir
		return out
	}
	stmt := &domain.Statement{
		ID:     "STMT-UNSIGNED",
		Format: domain.FormatUnsignedFeeSeparate,
		Transactions: []domain.Transaction{
			tx("T1", base, 1000, 0, 6000, domain.DirectionCredit),
			tx("T2", base.Add(time.Hour), 500, 20, 5480, domain.DirectionDebit),
		},
	}

	engine := NewEngine(DefaultOptions(), classify.Default())
	report, err := engine.Reconcile(testCtx(), stmt)
	require.NoError(t, err)

	assert.Equal(t, domain.VerificationPass, report.Verification.Status)
	assert.Equal(t, domain.LevelNoIssues, report.Classification.Level)
}

func TestEngineReconcile_DuplicateDowngradesButOverrideHolds(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	dup := signedTx("T1", base, 1000, 6000, "Cash In")
	stmt := &domain.Statement{
		ID:     "STMT-DUP",
		Format: domain.FormatSignedFeeSeparate,
		Transactions: []domain.Transaction{
			dup,
			signedTx("T1", base, 1000, 7000, "Cash In"),
			signedTx("T2", base.Add(time.Hour), -500, 6500, "Cash Out"),
		},
	}

	engine := NewEngine(DefaultOptions(), classify.Default())
	report, err := engine.Reconcile(testCtx(), stmt)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Verification.DuplicateCount)
	assert.Equal(t, domain.VerificationWarning, report.Verification.Status)
	// The balance still reconciles, so the classification override applies.
	assert.Equal(t, domain.LevelNoIssues, report.Classification.Level)
}

func TestEngineReconcile_GapChangesBoundedByTotalChanges(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	stmt := &domain.Statement{
		ID:     "STMT-GAP",
		Format: domain.FormatSignedFeeSeparate,
		Transactions: []domain.Transaction{
			signedTx("T1", base, 1000, 6000, "Cash In"),
			signedTx("T2", base.AddDate(0, 0, 5), -500, 9000, "Cash Out"),
			signedTx("T3", base.AddDate(0, 0, 5).Add(time.Hour), 100, 7777, "Cash In"),
		},
	}

	engine := NewEngine(DefaultOptions(), classify.Default())
	report, err := engine.Reconcile(testCtx(), stmt)
	require.NoError(t, err)

	v := report.Verification
	assert.LessOrEqual(t, v.GapRelatedBalanceChanges, v.BalanceDiffChanges)
	assert.True(t, v.MissingDaysDetected)
	assert.Equal(t, domain.VerificationFail, v.Status)
}
