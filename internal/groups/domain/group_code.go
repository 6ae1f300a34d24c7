package domain

import (
	"fmt"
	"strings"
)

// GroupCode binds a batch_uid to a group. It keeps denormalized references
// to the group and the group's course; they are lookup keys, not ownership.
type GroupCode struct {
	id       ID
	groupID  ID
	courseID ID
	batchUID string
}

// NewGroupCode creates an unsaved code. batchUID is trimmed.
func NewGroupCode(groupID, courseID ID, batchUID string) *GroupCode {
	return &GroupCode{
		groupID:  groupID,
		courseID: courseID,
		batchUID: strings.TrimSpace(batchUID),
	}
}

// ReconstituteGroupCode rebuilds a code from storage.
func ReconstituteGroupCode(id, groupID, courseID ID, batchUID string) *GroupCode {
	return &GroupCode{
		id:       id,
		groupID:  groupID,
		courseID: courseID,
		batchUID: batchUID,
	}
}

func (c *GroupCode) ID() ID { return c.id }
func (c *GroupCode) GroupID() ID { return c.groupID }
func (c *GroupCode) CourseID() ID { return c.courseID }
func (c *GroupCode) IsNew() bool { return !c.id.IsPersisted() }
func (c *GroupCode) RawBatchUID() string { return c.batchUID }

// SetID is called by the persistence layer after inserting.
func (c *GroupCode) SetID(id ID) { c.id = id }

func (c *GroupCode) SetGroupID(id ID) { c.groupID = id }
func (c *GroupCode) SetCourseID(id ID) { c.courseID = id }

// BatchUID returns the stored key, or the synthesized default key when
// none is set and the group is persisted.
func (c *GroupCode) BatchUID() string {
	if c.batchUID == "" {
		return DefaultBatchUID(c.groupID)
	}
	return c.batchUID
}

// HasExplicitBatchUID reports whether a key was set rather than synthesized.
func (c *GroupCode) HasExplicitBatchUID() bool {
	return c.batchUID != ""
}

// SetBatchUID stores a trimmed plain or composite key.
func (c *GroupCode) SetBatchUID(uid string) {
	c.batchUID = strings.TrimSpace(uid)
}

// SetSourcedID stores source#localID after trimming both parts.
func (c *GroupCode) SetSourcedID(source, localID string) error {
	uid, err := EncodeSourcedID(strings.TrimSpace(source), strings.TrimSpace(localID))
	if err != nil {
		return err
	}
	c.batchUID = uid
	return nil
}

// Source returns the source part of the effective key.
func (c *GroupCode) Source() string {
	return SourceOf(c.BatchUID())
}

// LocalID returns the local id part of the effective key.
func (c *GroupCode) LocalID() string {
	return LocalIDOf(c.BatchUID())
}

// Validate checks the code as a standalone record.
func (c *GroupCode) Validate() error {
	return warningsToError(c.warnings(false))
}

func (c *GroupCode) warnings(pendingGroup bool) []ValidationWarning {
	return checkRules(codeRules{
		CourseID:     c.courseID,
		GroupID:      c.groupID,
		BatchUID:     c.batchUID,
		PendingGroup: pendingGroup,
	})
}

func (c *GroupCode) String() string {
	return fmt.Sprintf("GroupCode{id=%s batch_uid='%s' group=%s course=%s}",
		c.id, c.batchUID, c.groupID, c.courseID)
}
