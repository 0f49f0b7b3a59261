package recon

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
)

// timestampLayouts are tried in order when coercing transaction timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// StatementFromRecord converts a parser collaborator's generic JSON record
// into a Statement. Malformed row-level fields are coerced to best-effort
// values and counted on the row; only a missing statement ID, format kind
// or transaction list is an error, since nothing can be reconciled without
// them.
func StatementFromRecord(record map[string]interface{}) (*domain.Statement, error) {
	id, err := getStringField(record, "statement_id", true)
	if err != nil {
		return nil, fmt.Errorf("StatementFromRecord: %w", err)
	}
	formatStr, err := getStringField(record, "format_kind", true)
	if err != nil {
		return nil, fmt.Errorf("StatementFromRecord: %w", err)
	}
	format, err := parseFormatKind(formatStr)
	if err != nil {
		return nil, fmt.Errorf("StatementFromRecord: %w", err)
	}

	stmt := &domain.Statement{
		ID:     id,
		Format: format,
	}

	if metaAny, ok := record["metadata"].(map[string]interface{}); ok {
		stmt.Metadata = metadataFromRecord(metaAny)
	}

	if closing, ok := coerceDecimal(record["declared_closing_balance"]); ok {
		stmt.DeclaredClosingBalance = &closing
	}

	txAny, ok := record["transactions"]
	if !ok {
		return nil, fmt.Errorf("StatementFromRecord: missing 'transactions' key")
	}
	txSlice, ok := txAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("StatementFromRecord: 'transactions' is %T, want []interface{}", txAny)
	}

	stmt.Transactions = make([]domain.Transaction, 0, len(txSlice))
	for i, item := range txSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("StatementFromRecord: transaction %d is %T, want map[string]interface{}", i, item)
		}
		stmt.Transactions = append(stmt.Transactions, transactionFromRecord(obj))
	}
	return stmt, nil
}

// transactionFromRecord coerces one row, counting every defaulted field as
// a quality issue instead of failing the statement.
func transactionFromRecord(obj map[string]interface{}) domain.Transaction {
	tx := domain.Transaction{}

	if s, err := getStringField(obj, "transaction_id", false); err == nil {
		tx.ID = s
	} else {
		tx.QualityIssues++
	}
	if s, err := getStringField(obj, "type_label", false); err == nil {
		tx.TypeLabel = s
	} else {
		tx.QualityIssues++
	}

	if ts, ok := coerceTimestamp(obj["timestamp"]); ok {
		tx.Timestamp = ts
	} else {
		tx.QualityIssues++
	}

	if amount, ok := coerceDecimal(obj["amount"]); ok {
		tx.Amount = amount
	} else {
		tx.Amount = decimal.Zero
		tx.QualityIssues++
	}

	if fee, ok := coerceDecimal(obj["fee"]); ok {
		tx.Fee = fee
	} else {
		tx.Fee = decimal.Zero
		if _, present := obj["fee"]; present {
			tx.QualityIssues++
		}
	}

	if balance, ok := coerceDecimal(obj["reported_balance"]); ok {
		tx.ReportedBalance = balance
		tx.HasReportedBalance = true
	} else {
		tx.QualityIssues++
	}

	if s, err := getStringField(obj, "direction", false); err == nil {
		tx.Direction = parseDirection(s)
	}

	return tx
}

func metadataFromRecord(obj map[string]interface{}) domain.StatementMetadata {
	meta := domain.StatementMetadata{}
	meta.Producer, _ = getStringField(obj, "producer", false)
	meta.Author, _ = getStringField(obj, "author", false)
	meta.FormatFamily, _ = getStringField(obj, "format_family", false)
	if ts, ok := coerceTimestamp(obj["created_at"]); ok {
		meta.CreatedAt = ts
	}
	if ts, ok := coerceTimestamp(obj["modified_at"]); ok {
		meta.ModifiedAt = ts
	}
	if n, ok := coerceDecimal(obj["header_manipulations"]); ok {
		meta.HeaderManipulations = int(n.IntPart())
	}
	return meta
}

func parseFormatKind(s string) (domain.FormatKind, error) {
	switch domain.FormatKind(strings.ToUpper(strings.TrimSpace(s))) {
	case domain.FormatUnsignedFeeSeparate:
		return domain.FormatUnsignedFeeSeparate, nil
	case domain.FormatSignedFeeSeparate:
		return domain.FormatSignedFeeSeparate, nil
	case domain.FormatSignedFeeEmbedded:
		return domain.FormatSignedFeeEmbedded, nil
	default:
		return "", fmt.Errorf("unknown format kind %q", s)
	}
}

func parseDirection(s string) domain.Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDIT", "CR", "C":
		return domain.DirectionCredit
	case "DEBIT", "DR", "D":
		return domain.DirectionDebit
	default:
		return domain.DirectionUnknown
	}
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", fmt.Errorf("field %q not present", key)
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	case float64:
		// Numeric IDs arrive as JSON numbers from some parsers.
		return decimal.NewFromFloat(val).String(), nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

// coerceDecimal accepts JSON numbers and numeric strings, tolerating the
// thousands separators and currency noise providers leave in amount cells.
func coerceDecimal(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case string:
		cleaned := strings.TrimSpace(val)
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		cleaned = strings.TrimSuffix(cleaned, "UGX")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

func coerceTimestamp(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
