package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormatKind identifies the provider-specific statement layout. It decides
// the sign convention of amounts and where fees live.
type FormatKind string

const (
	// FormatUnsignedFeeSeparate carries unsigned magnitudes with an explicit
	// credit/debit direction and a separate fee column (typical PDF export).
	FormatUnsignedFeeSeparate FormatKind = "UNSIGNED_FEE_SEPARATE"

	// FormatSignedFeeSeparate carries signed amounts and a separate signed
	// fee column (typical CSV export).
	FormatSignedFeeSeparate FormatKind = "SIGNED_FEE_SEPARATE"

	// FormatSignedFeeEmbedded carries signed amounts with fees already folded
	// into the amount; implicit fees still apply on top.
	FormatSignedFeeEmbedded FormatKind = "SIGNED_FEE_EMBEDDED"
)

// StatementMetadata holds the file-level metadata the classifier rules key
// on. For PDF statements these come from the document info dictionary.
type StatementMetadata struct {
	Producer   string    `json:"producer"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	// HeaderManipulations counts detected header-row manipulations found by
	// the upstream parser.
	HeaderManipulations int `json:"header_manipulations"`

	// FormatFamily selects which classifier rule family applies
	// ("format_1" or "format_2").
	FormatFamily string `json:"format_family"`
}

// Statement is the engine's input contract: an already-parsed, ordered
// transaction list plus the format tag and declared balances. The engine
// never reads files or talks to a database.
type Statement struct {
	ID           string            `json:"statement_id"`
	Format       FormatKind        `json:"format_kind"`
	Metadata     StatementMetadata `json:"metadata"`
	Transactions []Transaction     `json:"transactions"`

	// DeclaredClosingBalance is the closing balance the statement claims,
	// nil when the upstream parser could not extract one.
	DeclaredClosingBalance *decimal.Decimal `json:"declared_closing_balance,omitempty"`
}

// StatementContext is the per-statement configuration derived before the
// balance walk. It is an explicit value passed into every engine function
// so concurrent statements cannot leak format state into each other.
type StatementContext struct {
	Format FormatKind

	// AmountsSigned is resolved once per statement from the first
	// transaction: unsigned only when the format says so and the first row
	// carries a usable direction.
	AmountsSigned bool

	// OpeningBalance is derived by inverting the first row's effect on the
	// statement's own first reported balance.
	OpeningBalance decimal.Decimal

	DeclaredClosingBalance *decimal.Decimal
}
