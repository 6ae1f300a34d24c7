package domain

import (
	"context"
	"fmt"
	"strings"
)

// Selector picks which kinds of groups a course listing returns.
type Selector int

const (
	SelectGroups Selector = iota
	SelectGroupSets
	SelectBoth
)

func (s Selector) String() string {
	switch s {
	case SelectGroups:
		return "groups"
	case SelectGroupSets:
		return "sets"
	case SelectBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseSelector accepts "groups", "sets" or "both".
func ParseSelector(s string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "groups", "":
		return SelectGroups, nil
	case "sets", "groupsets":
		return SelectGroupSets, nil
	case "both", "all":
		return SelectBoth, nil
	default:
		return SelectGroups, fmt.Errorf("%w: unknown selector %q", ErrInvalidArgument, s)
	}
}

// CodeScope narrows a batch_uid count.
type CodeScope struct {
	// CourseID limits the count to one course. UnsetID counts every course.
	CourseID ID
	// ExcludeGroupID leaves out codes owned by this group. UnsetID excludes nothing.
	ExcludeGroupID ID
}

// GroupRepository stores group rows.
type GroupRepository interface {
	// Save persists g. For new groups (ID unset) it inserts and sets the ID.
	Save(ctx context.Context, g *Group) error

	// FindByID returns *GroupNotFoundError when no row exists.
	FindByID(ctx context.Context, id ID) (*Group, error)

	// FindByCourseID lists the groups of a course, ordered by id.
	FindByCourseID(ctx context.Context, courseID ID, sel Selector) ([]*Group, error)

	// FindByBatchUID lists the groups owning a code with exactly uid.
	FindByBatchUID(ctx context.Context, uid string) ([]*Group, error)

	// MemberIDs lists the groups whose set id is setID.
	MemberIDs(ctx context.Context, setID ID) ([]ID, error)

	// AddToGroupSet points groupID at setID. It reports whether a row changed.
	AddToGroupSet(ctx context.Context, groupID, setID ID) (bool, error)

	// Delete removes one group row. A missing row is not an error.
	Delete(ctx context.Context, id ID) error

	// DeleteGroupSet removes a set and its member group rows. The codes of
	// those groups are left in place.
	DeleteGroupSet(ctx context.Context, setID ID) error
}

// GroupCodeRepository stores batch_uid records.
type GroupCodeRepository interface {
	// Save persists c. For new codes (ID unset) it inserts and sets the ID.
	Save(ctx context.Context, c *GroupCode) error

	FindByGroupID(ctx context.Context, groupID ID) ([]*GroupCode, error)
	FindByBatchUID(ctx context.Context, uid string) ([]*GroupCode, error)

	// FindByBatchUIDPrefix matches prefix literally; LIKE wildcards in it are escaped.
	FindByBatchUIDPrefix(ctx context.Context, prefix string) ([]*GroupCode, error)

	// FindByGroupSetID lists the codes of the set's members, not the set's own.
	FindByGroupSetID(ctx context.Context, setID ID) ([]*GroupCode, error)

	FindAll(ctx context.Context) ([]*GroupCode, error)

	CountByBatchUID(ctx context.Context, uid string, scope CodeScope) (int, error)

	// DeleteByGroupID removes every code of a group. No codes is not an error.
	DeleteByGroupID(ctx context.Context, groupID ID) error
}

// Repositories is a set of repositories bound to one connection or transaction.
type Repositories struct {
	Groups GroupRepository
	Codes  GroupCodeRepository
}

// Store is the transactional backing store.
type Store interface {
	// Repositories returns repositories outside any transaction.
	Repositories() Repositories

	// RunInTx runs fn in one transaction. An error from fn rolls back every
	// write made through the repositories it was given.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	Close() error
}
