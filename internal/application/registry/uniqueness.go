package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/zjrosen/admingroup/internal/groups/domain"
)

// UniquenessPolicy selects the final stage of the persist pipeline.
type UniquenessPolicy string

const (
	// PolicyGlobal rejects a batch_uid shared with any other group.
	PolicyGlobal UniquenessPolicy = "global"
	// PolicyCourse rejects a batch_uid shared with another group of the same course.
	PolicyCourse UniquenessPolicy = "course"
	// PolicyPermissive skips the check.
	PolicyPermissive UniquenessPolicy = "permissive"
)

// ParseUniquenessPolicy maps a config value to a policy. Empty means global.
func ParseUniquenessPolicy(s string) (UniquenessPolicy, error) {
	switch p := UniquenessPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyGlobal, nil
	case PolicyGlobal, PolicyCourse, PolicyPermissive:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown uniqueness policy %q", domain.ErrInvalidArgument, s)
	}
}

// UniquenessChecker answers whether a batch_uid may be assigned to a group.
// It counts stored codes, so it sees the caller's own uncommitted writes
// when built over transaction-bound repositories.
type UniquenessChecker struct {
	codes domain.GroupCodeRepository
}

// NewUniquenessChecker wraps a code repository.
func NewUniquenessChecker(codes domain.GroupCodeRepository) *UniquenessChecker {
	return &UniquenessChecker{codes: codes}
}

// IsUnique reports whether uid conflicts with no other group. A blank uid
// is never unique.
//
// With a persisted exclude, codes of that group are ignored and uid is
// unique when no others remain. Without one, uid is unique while at most
// one code carries it.
func (c *UniquenessChecker) IsUnique(ctx context.Context, uid string, exclude domain.ID) (bool, error) {
	return c.check(ctx, uid, domain.CodeScope{ExcludeGroupID: exclude})
}

// IsUniqueInScope is IsUnique restricted to codes of courseID.
func (c *UniquenessChecker) IsUniqueInScope(ctx context.Context, courseID domain.ID, uid string, exclude domain.ID) (bool, error) {
	if err := requirePersisted("scope id", courseID); err != nil {
		return false, err
	}
	return c.check(ctx, uid, domain.CodeScope{CourseID: courseID, ExcludeGroupID: exclude})
}

func (c *UniquenessChecker) check(ctx context.Context, uid string, scope domain.CodeScope) (bool, error) {
	if strings.TrimSpace(uid) == "" {
		return false, nil
	}
	if !scope.ExcludeGroupID.IsPersisted() {
		scope.ExcludeGroupID = domain.UnsetID
	}

	n, err := c.codes.CountByBatchUID(ctx, uid, scope)
	if err != nil {
		return false, err
	}
	if scope.ExcludeGroupID.IsPersisted() {
		return n == 0, nil
	}
	return n <= 1, nil
}
