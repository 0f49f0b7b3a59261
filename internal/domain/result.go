package domain

// BalanceMatch is the statement-level verdict on whether the final
// calculated and reported balances agree.
type BalanceMatch string

const (
	BalanceMatchSuccess BalanceMatch = "Success"
	BalanceMatchFailed  BalanceMatch = "Failed"
)

// VerificationStatus is the overall outcome of reconciling one statement.
type VerificationStatus string

const (
	VerificationPass    VerificationStatus = "PASS"
	VerificationWarning VerificationStatus = "WARNING"
	VerificationFail    VerificationStatus = "FAIL"
)

// VerificationResult is produced once per reconciliation run and is
// immutable thereafter; a re-run produces a new result.
type VerificationResult struct {
	RunID       string `json:"run_id"`
	StatementID string `json:"statement_id"`

	BalanceMatch BalanceMatch `json:"balance_match"`

	DuplicateCount         int     `json:"duplicate_count"`
	BalanceDiffChanges     int     `json:"balance_diff_changes"`
	BalanceDiffChangeRatio float64 `json:"balance_diff_change_ratio"`

	MissingDaysDetected      bool `json:"missing_days_detected"`
	GapRelatedBalanceChanges int  `json:"gap_related_balance_changes"`

	// QualityIssues counts every row-level coercion and default applied
	// while reconciling. Nothing is silently dropped.
	QualityIssues int `json:"quality_issues"`

	Status VerificationStatus `json:"verification_status"`
	Reason string             `json:"reason,omitempty"`
}

// ClassificationLevel is the discrete fraud-risk label.
type ClassificationLevel string

const (
	LevelNoIssues     ClassificationLevel = "NO_ISSUES"
	LevelWarning      ClassificationLevel = "WARNING"
	LevelCritical     ClassificationLevel = "CRITICAL"
	LevelFatal        ClassificationLevel = "FATAL"
	LevelUnclassified ClassificationLevel = "UNCLASSIFIED"
)

// ClassificationResult is derived from statement metadata plus the balance
// match override, one per statement.
type ClassificationResult struct {
	Level  ClassificationLevel `json:"level"`
	Reason string              `json:"reason"`

	// Rule names the rule-table entry that matched, empty when the balance
	// match override or the UNCLASSIFIED fallback decided the level.
	Rule string `json:"rule,omitempty"`
}

// ReconciliationReport is the engine's full output for one statement: the
// enriched rows for audit/export plus both statement-level results.
type ReconciliationReport struct {
	StatementID    string                  `json:"statement_id"`
	Transactions   []*ProcessedTransaction `json:"transactions"`
	Verification   *VerificationResult     `json:"verification"`
	Classification *ClassificationResult   `json:"classification"`
}
