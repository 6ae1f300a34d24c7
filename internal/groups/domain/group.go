// Package domain contains the course group aggregate and the composite-key
// (batch_uid) rules that bind external identifiers to groups.
//
// A Group owns its GroupCode records. The primary code is loaded lazily from
// a CodeLoader the first time it is read on a persisted group. When no code
// carries an explicit batch_uid, the effective key is synthesized from the
// group id (see DefaultBatchUID) and is never written back.
package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// CodeLoader fetches the codes stored for a group.
type CodeLoader interface {
	FindByGroupID(ctx context.Context, groupID ID) ([]*GroupCode, error)
}

// Group is a course-scoped membership entity. A group set is a Group that
// other groups reference through their set id.
type Group struct {
	id         ID
	courseID   ID
	title      string
	isGroupSet bool
	setID      ID
	available  bool

	code            lazyCode
	codes           CodeLoader
	batchUIDChanged bool
}

// NewGroup creates an unsaved group in courseID.
func NewGroup(courseID ID, title string) *Group {
	g := &Group{
		courseID:  courseID,
		title:     title,
		available: true,
	}
	g.code.value = NewGroupCode(UnsetID, courseID, "")
	return g
}

// ReconstituteGroup rebuilds a group from storage. Its code is loaded on
// first access once a CodeLoader is attached.
func ReconstituteGroup(id, courseID ID, title string, isGroupSet bool, setID ID, available bool) *Group {
	g := &Group{
		id:         id,
		courseID:   courseID,
		title:      title,
		isGroupSet: isGroupSet,
		setID:      setID,
		available:  available,
	}
	g.code.value = NewGroupCode(id, courseID, "")
	return g
}

// AttachCodeLoader sets the source used for the lazy code load.
func (g *Group) AttachCodeLoader(loader CodeLoader) {
	g.codes = loader
}

func (g *Group) ID() ID { return g.id }

// SetID is called by the persistence layer after inserting.
func (g *Group) SetID(id ID) { g.id = id }

func (g *Group) IsNew() bool { return !g.id.IsPersisted() }
func (g *Group) CourseID() ID { return g.courseID }
func (g *Group) Title() string { return g.title }
func (g *Group) IsGroupSet() bool { return g.isGroupSet }
func (g *Group) GroupSetID() ID { return g.setID }
func (g *Group) IsAvailable() bool { return g.available }
func (g *Group) BatchUIDChanged() bool { return g.batchUIDChanged }

func (g *Group) SetCourseID(id ID) { g.courseID = id }
func (g *Group) SetTitle(title string) { g.title = title }
func (g *Group) SetIsGroupSet(v bool) { g.isGroupSet = v }
func (g *Group) SetGroupSetID(setID ID) { g.setID = setID }
func (g *Group) SetAvailable(v bool) { g.available = v }

// Code returns the group's primary code, loading it on first access.
// The returned code always carries the group's current id and course.
func (g *Group) Code(ctx context.Context) (*GroupCode, error) {
	code, err := g.code.get(ctx, g.id, g.codes)
	if err != nil {
		return nil, fmt.Errorf("failed to load code for group %s: %w", g.id, err)
	}
	code.SetGroupID(g.id)
	code.SetCourseID(g.courseID)
	return code, nil
}

// BatchUID returns the effective batch_uid.
func (g *Group) BatchUID(ctx context.Context) (string, error) {
	code, err := g.Code(ctx)
	if err != nil {
		return "", err
	}
	return code.BatchUID(), nil
}

// SetBatchUID replaces the group's key with a trimmed plain or composite key.
func (g *Group) SetBatchUID(ctx context.Context, uid string) error {
	code, err := g.Code(ctx)
	if err != nil {
		return err
	}
	before := code.BatchUID()
	code.SetBatchUID(uid)
	g.trackChange(before, code.BatchUID())
	return nil
}

// SetSourcedID replaces the group's key with source#localID.
func (g *Group) SetSourcedID(ctx context.Context, source, localID string) error {
	code, err := g.Code(ctx)
	if err != nil {
		return err
	}
	before := code.BatchUID()
	if err := code.SetSourcedID(source, localID); err != nil {
		return err
	}
	g.trackChange(before, code.BatchUID())
	return nil
}

// Source returns the source part of the effective key.
func (g *Group) Source(ctx context.Context) (string, error) {
	uid, err := g.BatchUID(ctx)
	if err != nil {
		return "", err
	}
	return SourceOf(uid), nil
}

// LocalID returns the local id part of the effective key.
func (g *Group) LocalID(ctx context.Context) (string, error) {
	uid, err := g.BatchUID(ctx)
	if err != nil {
		return "", err
	}
	return LocalIDOf(uid), nil
}

func (g *Group) trackChange(before, after string) {
	if before != after {
		g.batchUIDChanged = true
	}
}

// MarkCodePersisted records code as the loaded primary code after a commit
// and clears the change flag.
func (g *Group) MarkCodePersisted(code *GroupCode) {
	g.code.set(code)
	g.batchUIDChanged = false
}

// Validate checks the group and its primary code and reports every
// violation in a single *ValidationError.
func (g *Group) Validate(ctx context.Context) error {
	warnings := checkRules(groupRules{
		CourseID: g.courseID,
		Title:    g.title,
	})

	code, err := g.Code(ctx)
	if err != nil {
		return err
	}
	for _, w := range code.warnings(g.IsNew()) {
		if !slices.Contains(warnings, w) {
			warnings = append(warnings, w)
		}
	}
	return warningsToError(warnings)
}

func (g *Group) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Group{id=%s", g.id)
	if code, _ := g.code.peek(); code != nil && code.HasExplicitBatchUID() {
		fmt.Fprintf(&b, " batch_uid='%s'", code.RawBatchUID())
	} else if !g.IsNew() {
		fmt.Fprintf(&b, " batch_uid='%s'", DefaultBatchUID(g.id))
	}
	if g.isGroupSet {
		b.WriteString(" groupset")
	} else if g.setID.IsPersisted() {
		fmt.Fprintf(&b, " set=%s", g.setID)
	}
	if g.courseID.IsPersisted() {
		fmt.Fprintf(&b, " course=%s", g.courseID)
	}
	fmt.Fprintf(&b, " title='%s'}", g.title)
	return b.String()
}
