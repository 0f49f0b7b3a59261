package recon

// StructuralError marks a statement-level failure: the statement cannot be
// reconciled at all (empty transaction list, missing first reported
// balance). It fails that statement only; batch processing of other
// statements continues.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return e.Reason
}
