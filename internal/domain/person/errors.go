package person

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrPersonNotFound indicates missing person
type ErrPersonNotFound struct {
	PersonID uuid.UUID
}

func (e ErrPersonNotFound) Error() string {
	return "person not found: " + e.PersonID.String()
}

// Is implements the errors.Is interface for ErrPersonNotFound
func (e ErrPersonNotFound) Is(target error) bool {
	t, ok := target.(ErrPersonNotFound)
	if !ok {
		return false
	}
	if t.PersonID == uuid.Nil {
		return true
	}
	return e.PersonID == t.PersonID
}

// ConsistencyError reports stored LTV totals diverging from the recomputed ones
type ConsistencyError struct {
	PersonID   uuid.UUID
	Stored     LTV
	Recomputed LTV
}

func (e ConsistencyError) Error() string {
	return fmt.Sprintf("ltv drift for person %s: stored all=%d recomputed all=%d (max field diff %d)",
		e.PersonID, e.Stored.All, e.Recomputed.All, e.Stored.Diff(e.Recomputed))
}

// Is implements the errors.Is interface for ConsistencyError
func (e ConsistencyError) Is(target error) bool {
	t, ok := target.(ConsistencyError)
	if !ok {
		return false
	}
	if t.PersonID == uuid.Nil {
		return true
	}
	return e.PersonID == t.PersonID
}
