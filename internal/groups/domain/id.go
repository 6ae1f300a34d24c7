package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a persisted Group or GroupCode.
// The zero value is UnsetID and marks an entity that has not been stored yet.
type ID int64

// UnsetID is the identity of an entity that has never been persisted.
const UnsetID ID = 0

// UnsetIDNumber is what Number reports for an unset ID.
const UnsetIDNumber int64 = -1

// IsPersisted reports whether the ID was assigned by the store.
func (id ID) IsPersisted() bool {
	return id > 0
}

// Number returns the numeric external representation, or UnsetIDNumber.
func (id ID) Number() int64 {
	if !id.IsPersisted() {
		return UnsetIDNumber
	}
	return int64(id)
}

// String renders persisted ids in the external `_<n>_1` form and "new" otherwise.
func (id ID) String() string {
	if !id.IsPersisted() {
		return "new"
	}
	return fmt.Sprintf("_%d_1", int64(id))
}

// ParseID accepts either the external `_<n>_1` form or a bare number.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnsetID, fmt.Errorf("%w: empty id", ErrInvalidArgument)
	}

	raw := s
	if strings.HasPrefix(s, "_") {
		parts := strings.Split(s, "_")
		// "_123_1" splits into ["", "123", "1"]
		if len(parts) != 3 || parts[1] == "" {
			return UnsetID, fmt.Errorf("%w: malformed id %q", ErrInvalidArgument, s)
		}
		raw = parts[1]
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return UnsetID, fmt.Errorf("%w: malformed id %q", ErrInvalidArgument, s)
	}
	return ID(n), nil
}
