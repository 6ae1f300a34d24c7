package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/admingroup/internal/groups/domain"
	"github.com/zjrosen/admingroup/internal/testutil"
)

func TestUniqueness_SingleOwner(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	groups := testutil.NewBuilder(t, store).
		WithGroup("g1").
		WithGroup("g2").
		Build()
	checker := NewUniquenessChecker(store.Repositories().Codes)
	g1, g2 := groups["g1"].ID(), groups["g2"].ID()

	unique, err := checker.IsUnique(ctx, "foo", domain.UnsetID)
	require.NoError(t, err)
	require.True(t, unique, "unused uid is unique")

	require.NoError(t, store.Repositories().Codes.Save(ctx, domain.NewGroupCode(g1, testutil.DefaultCourse, "foo")))

	unique, err = checker.IsUnique(ctx, "foo", domain.UnsetID)
	require.NoError(t, err)
	require.True(t, unique, "one owner is still unique")

	unique, err = checker.IsUnique(ctx, "foo", g1)
	require.NoError(t, err)
	require.True(t, unique, "owner itself is excluded")

	unique, err = checker.IsUnique(ctx, "foo", g2)
	require.NoError(t, err)
	require.False(t, unique, "another group already owns it")
}

func TestUniqueness_CourseScope(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	testutil.NewBuilder(t, store).
		WithGroup("a", testutil.Course(3), testutil.BatchUIDs("foo")).
		WithGroup("b", testutil.Course(4), testutil.BatchUIDs("foo")).
		Build()
	checker := NewUniquenessChecker(store.Repositories().Codes)

	unique, err := checker.IsUniqueInScope(ctx, domain.ID(3), "foo", domain.UnsetID)
	require.NoError(t, err)
	require.True(t, unique, "only one owner inside course 3")

	unique, err = checker.IsUnique(ctx, "foo", domain.UnsetID)
	require.NoError(t, err)
	require.False(t, unique, "two owners across courses")
}

func TestUniqueness_InScopeRequiresPersistedScope(t *testing.T) {
	checker := NewUniquenessChecker(testutil.NewTestStore(t).Repositories().Codes)

	_, err := checker.IsUniqueInScope(context.Background(), domain.UnsetID, "foo", domain.UnsetID)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUniqueness_EmptyUIDNeverUnique(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	groups := testutil.NewBuilder(t, store).WithGroup("g1").Build()
	checker := NewUniquenessChecker(store.Repositories().Codes)

	for _, uid := range []string{"", "   "} {
		for _, exclude := range []domain.ID{domain.UnsetID, groups["g1"].ID(), domain.ID(999)} {
			unique, err := checker.IsUnique(ctx, uid, exclude)
			require.NoError(t, err)
			require.False(t, unique, "uid %q exclude %s", uid, exclude)

			unique, err = checker.IsUniqueInScope(ctx, testutil.DefaultCourse, uid, exclude)
			require.NoError(t, err)
			require.False(t, unique)
		}
	}
}

// Uniqueness without exclusion flips to false at the second owner, stays
// false while owners are added, and returns only once one owner is left.
func TestUniqueness_MonotonicProperty(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	repos := store.Repositories()
	checker := NewUniquenessChecker(repos.Codes)

	next := domain.ID(1000)
	rapid.Check(t, func(rt *rapid.T) {
		next++
		uid := "uid-" + next.String()
		adds := rapid.IntRange(1, 6).Draw(rt, "adds")

		owners := make([]domain.ID, 0, adds)
		for i := 0; i < adds; i++ {
			owner := next*10 + domain.ID(i)
			require.NoError(rt, repos.Codes.Save(ctx, domain.NewGroupCode(owner, testutil.DefaultCourse, uid)))
			owners = append(owners, owner)

			unique, err := checker.IsUnique(ctx, uid, domain.UnsetID)
			require.NoError(rt, err)
			require.Equal(rt, len(owners) <= 1, unique, "after %d owners", len(owners))
		}

		for len(owners) > 0 {
			require.NoError(rt, repos.Codes.DeleteByGroupID(ctx, owners[len(owners)-1]))
			owners = owners[:len(owners)-1]

			unique, err := checker.IsUnique(ctx, uid, domain.UnsetID)
			require.NoError(rt, err)
			require.Equal(rt, len(owners) <= 1, unique, "after removal, %d owners", len(owners))
		}
	})
}

func TestParseUniquenessPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    UniquenessPolicy
		wantErr bool
	}{
		{in: "", want: PolicyGlobal},
		{in: "global", want: PolicyGlobal},
		{in: " Course ", want: PolicyCourse},
		{in: "permissive", want: PolicyPermissive},
		{in: "strict", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUniquenessPolicy(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
