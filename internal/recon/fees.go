package recon

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ind02FeeRate is the 0.5% charge on IND02 transactions whose fee never
	// appears in the statement's own fee column.
	ind02FeeRate = decimal.NewFromFloat(0.005)

	// merchantCashbackRate is the 4% cashback on single-step merchant
	// payments, added back to the balance.
	merchantCashbackRate = decimal.NewFromFloat(0.04)
)

// ImplicitFee computes the fee (positive, deducted from balance) or
// cashback (negative, added back) inferable from the type label. The two
// adjustments are additive, not mutually exclusive.
//
// It applies only to signed-amount statements, and must be applied to every
// signed format uniformly: restricting it to a single sub-format caused a
// regression where other signed layouts accumulated spurious balance diffs.
func ImplicitFee(typeLabel string, amount decimal.Decimal) decimal.Decimal {
	label := strings.ToUpper(typeLabel)
	fee := decimal.Zero
	if strings.Contains(label, "IND02") && !strings.Contains(label, "IND01") {
		fee = fee.Add(amount.Abs().Mul(ind02FeeRate))
	}
	if strings.Contains(label, "MERCHANT PAYMENT OTHER SINGLE STEP") {
		fee = fee.Sub(amount.Abs().Mul(merchantCashbackRate))
	}
	return fee
}
