package recon

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type rowSpec struct {
	amount     int64
	fee        int64
	reported   int64
	noReported bool
	direction  domain.Direction
	special    domain.SpecialType
	implicit   string
}

func buildRows(specs []rowSpec) []*domain.ProcessedTransaction {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := make([]*domain.ProcessedTransaction, len(specs))
	for i, s := range specs {
		row := &domain.ProcessedTransaction{
			Transaction: domain.Transaction{
				ID:                 "TX" + string(rune('A'+i)),
				Timestamp:          base.Add(time.Duration(i) * time.Hour),
				Amount:             dec(s.amount),
				Fee:                dec(s.fee),
				ReportedBalance:    dec(s.reported),
				HasReportedBalance: !s.noReported,
				Direction:          s.direction,
			},
			SpecialType: s.special,
		}
		if s.implicit != "" {
			row.ImplicitFee, _ = decimal.NewFromString(s.implicit)
		}
		rows[i] = row
	}
	return rows
}

func signedCtx(format domain.FormatKind) *domain.StatementContext {
	return &domain.StatementContext{Format: format, AmountsSigned: true}
}

func unsignedCtx() *domain.StatementContext {
	return &domain.StatementContext{Format: domain.FormatUnsignedFeeSeparate, AmountsSigned: false}
}

func TestDeriveOpeningBalance(t *testing.T) {
	tests := []struct {
		name string
		sctx *domain.StatementContext
		row  rowSpec
		want int64
	}{
		{
			name: "unsigned credit",
			sctx: unsignedCtx(),
			row:  rowSpec{amount: 500, fee: 50, reported: 1450, direction: domain.DirectionCredit},
			want: 1000,
		},
		{
			name: "unsigned debit",
			sctx: unsignedCtx(),
			row:  rowSpec{amount: 500, fee: 50, reported: 450, direction: domain.DirectionDebit},
			want: 1000,
		},
		{
			name: "signed with separate fee",
			sctx: signedCtx(domain.FormatSignedFeeSeparate),
			row:  rowSpec{amount: -500, fee: -50, reported: 450},
			want: 1000,
		},
		{
			name: "signed with embedded fee",
			sctx: signedCtx(domain.FormatSignedFeeEmbedded),
			row:  rowSpec{amount: -500, reported: 500},
			want: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := buildRows([]rowSpec{tt.row})
			got, err := deriveOpeningBalance(tt.sctx, rows)
			if err != nil {
				t.Fatalf("deriveOpeningBalance() error = %v", err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("deriveOpeningBalance() = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestDeriveOpeningBalance_Structural(t *testing.T) {
	sctx := signedCtx(domain.FormatSignedFeeSeparate)

	var serr *StructuralError
	_, err := deriveOpeningBalance(sctx, nil)
	if !errors.As(err, &serr) {
		t.Fatalf("empty statement: error = %v, want StructuralError", err)
	}

	rows := buildRows([]rowSpec{{amount: 100, noReported: true}})
	_, err = deriveOpeningBalance(sctx, rows)
	if !errors.As(err, &serr) {
		t.Fatalf("missing first balance: error = %v, want StructuralError", err)
	}
}

func TestCalculatorRun_SignedSeparateFee(t *testing.T) {
	// Opening derives to 1000; each row then adds amount + fee.
	sctx := signedCtx(domain.FormatSignedFeeSeparate)
	rows := buildRows([]rowSpec{
		{amount: 500, reported: 1500},
		{amount: -300, fee: -20, reported: 1180},
		{amount: 100, reported: 1300}, // reported disagrees by 20
	})

	calc := NewCalculator(decimal.NewFromFloat(0.01))
	if err := calc.Run(sctx, rows); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !sctx.OpeningBalance.Equal(dec(1000)) {
		t.Errorf("opening balance = %s, want 1000", sctx.OpeningBalance)
	}

	wantCalc := []int64{1500, 1180, 1280}
	wantDiff := []int64{0, 0, 20}
	wantChanged := []bool{false, false, true}
	for i, row := range rows {
		if !row.CalculatedBalance.Equal(dec(wantCalc[i])) {
			t.Errorf("row %d calculated = %s, want %d", i, row.CalculatedBalance, wantCalc[i])
		}
		if !row.BalanceDiff.Equal(dec(wantDiff[i])) {
			t.Errorf("row %d diff = %s, want %d", i, row.BalanceDiff, wantDiff[i])
		}
		if row.BalanceDiffChanged != wantChanged[i] {
			t.Errorf("row %d changed = %v, want %v", i, row.BalanceDiffChanged, wantChanged[i])
		}
	}
}

func TestCalculatorRun_UnsignedDirections(t *testing.T) {
	sctx := unsignedCtx()
	rows := buildRows([]rowSpec{
		{amount: 500, fee: 0, reported: 1500, direction: domain.DirectionCredit},
		{amount: 300, fee: 20, reported: 1180, direction: domain.DirectionDebit},
	})

	calc := NewCalculator(decimal.NewFromFloat(0.01))
	if err := calc.Run(sctx, rows); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !sctx.OpeningBalance.Equal(dec(1000)) {
		t.Errorf("opening balance = %s, want 1000", sctx.OpeningBalance)
	}
	if !rows[1].CalculatedBalance.Equal(dec(1180)) {
		t.Errorf("debit row calculated = %s, want 1180", rows[1].CalculatedBalance)
	}
	if !rows[1].BalanceDiff.IsZero() {
		t.Errorf("debit row diff = %s, want 0", rows[1].BalanceDiff)
	}
}

func TestCalculatorRun_SpecialTypes(t *testing.T) {
	sctx := signedCtx(domain.FormatSignedFeeSeparate)
	rows := buildRows([]rowSpec{
		{amount: 100, reported: 1100},
		{amount: 999, reported: 1100, special: domain.SpecialDeallocationTransfer},
		{amount: -999, reported: 1100, special: domain.SpecialRollback},
		{amount: 200, reported: 900, special: domain.SpecialCommissionDisbursement},
	})

	calc := NewCalculator(decimal.NewFromFloat(0.01))
	if err := calc.Run(sctx, rows); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Deallocation and rollback have no balance effect.
	if !rows[1].CalculatedBalance.Equal(dec(1100)) {
		t.Errorf("deallocation calculated = %s, want 1100", rows[1].CalculatedBalance)
	}
	if !rows[2].CalculatedBalance.Equal(dec(1100)) {
		t.Errorf("rollback calculated = %s, want 1100", rows[2].CalculatedBalance)
	}

	// Commission disbursement negates the amount and carries the previous
	// diff forward without flagging a change.
	if !rows[3].CalculatedBalance.Equal(dec(900)) {
		t.Errorf("commission calculated = %s, want 900", rows[3].CalculatedBalance)
	}
	if !rows[3].BalanceDiff.IsZero() {
		t.Errorf("commission diff = %s, want carried 0", rows[3].BalanceDiff)
	}
	if rows[3].BalanceDiffChanged {
		t.Error("commission row flagged as changed")
	}
}

func TestCalculatorRun_MissingBalanceCarriesDiff(t *testing.T) {
	sctx := signedCtx(domain.FormatSignedFeeSeparate)
	rows := buildRows([]rowSpec{
		{amount: 100, reported: 1150}, // opening 1050, diff 0
		{amount: 200, noReported: true},
		{amount: -50, reported: 1230}, // calculated 1200, diff 30
	})

	calc := NewCalculator(decimal.NewFromFloat(0.01))
	if err := calc.Run(sctx, rows); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !rows[1].BalanceDiff.IsZero() {
		t.Errorf("missing-balance row diff = %s, want carried 0", rows[1].BalanceDiff)
	}
	if rows[1].BalanceDiffChanged {
		t.Error("missing-balance row flagged as changed")
	}
	if !rows[2].BalanceDiff.Equal(dec(30)) {
		t.Errorf("final diff = %s, want 30", rows[2].BalanceDiff)
	}
	if !rows[2].BalanceDiffChanged {
		t.Error("final row should flag the diff change")
	}
}

func TestCalculatorRun_ImplicitFeeDeducted(t *testing.T) {
	sctx := signedCtx(domain.FormatSignedFeeSeparate)
	rows := buildRows([]rowSpec{
		{amount: -10000, reported: 89950, implicit: "50"},
	})

	calc := NewCalculator(decimal.NewFromFloat(0.01))
	if err := calc.Run(sctx, rows); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !sctx.OpeningBalance.Equal(dec(100000)) {
		t.Errorf("opening balance = %s, want 100000", sctx.OpeningBalance)
	}
	if !rows[0].BalanceDiff.IsZero() {
		t.Errorf("diff = %s, want 0", rows[0].BalanceDiff)
	}
}

func TestCalculatorEpsilon(t *testing.T) {
	sctx := signedCtx(domain.FormatSignedFeeSeparate)

	run := func(epsilon float64) bool {
		rows := buildRows([]rowSpec{
			{amount: 100, reported: 1100},
		})
		rows = append(rows, buildRows([]rowSpec{
			{amount: 100, reported: 1200},
		})...)
		// Nudge the second reported balance by 0.01.
		rows[1].ReportedBalance = rows[1].ReportedBalance.Add(decimal.NewFromFloat(0.01))

		calc := NewCalculator(decimal.NewFromFloat(epsilon))
		if err := calc.Run(sctx, rows); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return rows[1].BalanceDiffChanged
	}

	if !run(0.005) {
		t.Error("0.01 drift above epsilon 0.005 should count as a change")
	}
	if run(0.02) {
		t.Error("0.01 drift within epsilon 0.02 should not count as a change")
	}
}
