package recon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

func TestDetectSpecialType(t *testing.T) {
	tests := []struct {
		label string
		want  domain.SpecialType
	}{
		{"Commission Disbursement to agent float", domain.SpecialCommissionDisbursement},
		{"COMMISSION DISBURSEMENT", domain.SpecialCommissionDisbursement},
		{"Deallocation Transfer from sub-wallet", domain.SpecialDeallocationTransfer},
		{"Batch rollback", domain.SpecialRollback},
		{"Transaction Reversal for TX123", domain.SpecialTransactionReversal},
		{"Customer Payment IND02", domain.SpecialNormal},
		{"Cash In", domain.SpecialNormal},
		{"", domain.SpecialNormal},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got := DetectSpecialType(tt.label)
			if got != tt.want {
				t.Errorf("DetectSpecialType(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestAmountsSigned(t *testing.T) {
	tx := func(dir domain.Direction) domain.Transaction {
		return domain.Transaction{
			ID:                 "t1",
			Timestamp:          time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Amount:             decimal.NewFromInt(500),
			ReportedBalance:    decimal.NewFromInt(1500),
			HasReportedBalance: true,
			Direction:          dir,
		}
	}

	tests := []struct {
		name   string
		format domain.FormatKind
		txs    []domain.Transaction
		want   bool
	}{
		{"signed csv format", domain.FormatSignedFeeSeparate, []domain.Transaction{tx(domain.DirectionUnknown)}, true},
		{"signed embedded format", domain.FormatSignedFeeEmbedded, []domain.Transaction{tx(domain.DirectionUnknown)}, true},
		{"unsigned with credit direction", domain.FormatUnsignedFeeSeparate, []domain.Transaction{tx(domain.DirectionCredit)}, false},
		{"unsigned with debit direction", domain.FormatUnsignedFeeSeparate, []domain.Transaction{tx(domain.DirectionDebit)}, false},
		{"unsigned missing direction falls back to signed", domain.FormatUnsignedFeeSeparate, []domain.Transaction{tx(domain.DirectionUnknown)}, true},
		{"unsigned empty statement", domain.FormatUnsignedFeeSeparate, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AmountsSigned(tt.format, tt.txs)
			if got != tt.want {
				t.Errorf("AmountsSigned() = %v, want %v", got, tt.want)
			}
		})
	}
}
