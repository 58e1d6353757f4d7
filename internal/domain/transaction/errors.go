package transaction

import (
	"github.com/google/uuid"
)

// ValidationError rejects a single malformed inbound record
type ValidationError struct {
	ExternalID string
	Reason     string
}

func (e ValidationError) Error() string {
	if e.ExternalID == "" {
		return "invalid record: " + e.Reason
	}
	return "invalid record " + e.ExternalID + ": " + e.Reason
}

// Is matches any ValidationError when the target carries no reason
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	if t.Reason == "" && t.ExternalID == "" {
		return true
	}
	return e == t
}

// ErrDuplicateTransaction indicates a (provider, external_id) uniqueness violation
type ErrDuplicateTransaction struct {
	Provider   string
	ExternalID string
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction: " + e.Provider + "/" + e.ExternalID
}

// Is implements the errors.Is interface for ErrDuplicateTransaction
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	if t.Provider == "" && t.ExternalID == "" {
		return true
	}
	return e.Provider == t.Provider && e.ExternalID == t.ExternalID
}

// ErrTransactionNotFound indicates missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
