package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Separator splits a batch_uid into its source and local id.
	Separator = "#"

	// DefaultSource marks keys synthesized by this registry from a group's own id.
	DefaultSource = "bblearn"
)

// EncodeSourcedID renders source and localID as a single batch_uid.
func EncodeSourcedID(source, localID string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", fmt.Errorf("%w: source is empty", ErrInvalidKeyFormat)
	}
	if strings.TrimSpace(localID) == "" {
		return "", fmt.Errorf("%w: local id is empty", ErrInvalidKeyFormat)
	}
	if strings.Contains(source, Separator) {
		return "", fmt.Errorf("%w: source %q contains %q", ErrInvalidKeyFormat, source, Separator)
	}
	return source + Separator + localID, nil
}

// SourceOf returns the part of batchUID before the first separator.
// Plain tokens have no source.
func SourceOf(batchUID string) string {
	source, _, found := strings.Cut(batchUID, Separator)
	if !found {
		return ""
	}
	return source
}

// LocalIDOf returns the part of batchUID after the first separator,
// or the whole value for a plain token.
func LocalIDOf(batchUID string) string {
	_, localID, found := strings.Cut(batchUID, Separator)
	if !found {
		return batchUID
	}
	return localID
}

// DefaultBatchUID synthesizes the key of a group that has no explicit one.
// It returns "" for groups that are not persisted.
func DefaultBatchUID(groupID ID) string {
	if !groupID.IsPersisted() {
		return ""
	}
	uid, _ := EncodeSourcedID(DefaultSource, strconv.FormatInt(groupID.Number(), 10))
	return uid
}

// GroupIDFromDefault reverses DefaultBatchUID.
// ok is false unless batchUID has exactly the default form.
func GroupIDFromDefault(batchUID string) (ID, bool) {
	if SourceOf(batchUID) != DefaultSource {
		return UnsetID, false
	}
	n, err := strconv.ParseInt(LocalIDOf(batchUID), 10, 64)
	if err != nil || n <= 0 || DefaultBatchUID(ID(n)) != batchUID {
		return UnsetID, false
	}
	return ID(n), true
}
