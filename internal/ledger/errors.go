package ledger

import "fmt"

// InvalidTransactionError reports a malformed quantity or direction.
type InvalidTransactionError struct {
	Index  int
	Reason string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid stock transaction at position %d: %s", e.Index, e.Reason)
}

// UnknownEntryTypeError reports an entry type outside incoming, outgoing and adjustment.
type UnknownEntryTypeError struct {
	Index     int
	EntryType EntryType
}

func (e *UnknownEntryTypeError) Error() string {
	return fmt.Sprintf("unknown entry type %q at position %d", string(e.EntryType), e.Index)
}
