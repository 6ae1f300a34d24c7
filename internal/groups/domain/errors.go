package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument marks a structurally invalid reference passed to an API.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidKeyFormat marks malformed separator usage in a composite key.
	ErrInvalidKeyFormat = fmt.Errorf("%w: invalid composite key format", ErrInvalidArgument)

	// ErrValidationFailed is the sentinel behind *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrDuplicateBatchUID is the sentinel behind *DuplicateBatchUIDError.
	ErrDuplicateBatchUID = errors.New("duplicate batch_uid")

	// ErrNotFound is the sentinel behind *GroupNotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrStore is the sentinel behind *StoreError.
	ErrStore = errors.New("store error")
)

// ValidationWarning is a single field-level rule violation.
type ValidationWarning struct {
	Field   string
	Message string
}

func (w ValidationWarning) String() string {
	return w.Field + ": " + w.Message
}

// ValidationError collects every rule violation found on an aggregate.
type ValidationError struct {
	Warnings []ValidationWarning
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Warnings))
	for _, w := range e.Warnings {
		msgs = append(msgs, w.String())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// HasField reports whether any warning names field.
func (e *ValidationError) HasField(field string) bool {
	for _, w := range e.Warnings {
		if w.Field == field {
			return true
		}
	}
	return false
}

// DuplicateBatchUIDError is returned when a persist would leave batch_uid
// shared with another group. The persist was rolled back.
type DuplicateBatchUIDError struct {
	BatchUID string
	GroupID  ID
	CourseID ID
}

func (e *DuplicateBatchUIDError) Error() string {
	return fmt.Sprintf("batch_uid %q is already used by another group (group=%s course=%s)",
		e.BatchUID, e.GroupID, e.CourseID)
}

func (e *DuplicateBatchUIDError) Unwrap() error { return ErrDuplicateBatchUID }

// GroupNotFoundError is returned by single-record loads.
type GroupNotFoundError struct {
	ID       ID
	BatchUID string
}

func (e *GroupNotFoundError) Error() string {
	if e.BatchUID != "" {
		return fmt.Sprintf("group not found: batch_uid=%q", e.BatchUID)
	}
	return fmt.Sprintf("group not found: %s", e.ID)
}

func (e *GroupNotFoundError) Unwrap() error { return ErrNotFound }

// AmbiguousBatchUIDError is returned when a load expecting one group finds several.
type AmbiguousBatchUIDError struct {
	BatchUID string
	Count    int
}

func (e *AmbiguousBatchUIDError) Error() string {
	return fmt.Sprintf("batch_uid %q matches %d groups", e.BatchUID, e.Count)
}

// StoreError wraps a backend failure with the operation that hit it.
// Code is the SQLSTATE when the backend reported one.
type StoreError struct {
	Op   string
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("failed to %s (sqlstate %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }
