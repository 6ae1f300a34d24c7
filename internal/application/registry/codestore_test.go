package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/admingroup/internal/groups/domain"
	"github.com/zjrosen/admingroup/internal/testutil"
)

func batchUIDs(codes []*domain.GroupCode) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, c.BatchUID())
	}
	return out
}

func TestGroupCodeStore_UnsetIDsAreRejected(t *testing.T) {
	ctx := context.Background()
	codes := NewGroupCodeStore(testutil.NewTestStore(t).Repositories().Codes)

	_, err := codes.LoadByGroupID(ctx, domain.UnsetID)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = codes.LoadByGroupSetID(ctx, domain.UnsetID)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	require.ErrorIs(t, codes.DeleteByGroupID(ctx, domain.UnsetID), domain.ErrInvalidArgument)
}

func TestGroupCodeStore_LoadByGroupID_Empty(t *testing.T) {
	store := testutil.NewTestStore(t)
	groups := testutil.NewBuilder(t, store).WithGroup("bare").Build()
	codes := NewGroupCodeStore(store.Repositories().Codes)

	found, err := codes.LoadByGroupID(context.Background(), groups["bare"].ID())
	require.NoError(t, err)
	require.NotNil(t, found, "no codes is an empty list")
	require.Empty(t, found)
}

func TestGroupCodeStore_LoadBySourcedID(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	testutil.NewBuilder(t, store).
		WithGroup("one", testutil.BatchUIDs("junit#foo", "junit#bar")).
		WithGroup("two", testutil.BatchUIDs("ng#baz", "junit")).
		Build()
	codes := NewGroupCodeStore(store.Repositories().Codes)

	found, err := codes.LoadBySourcedID(ctx, "junit", "foo")
	require.NoError(t, err)
	require.Equal(t, []string{"junit#foo"}, batchUIDs(found))

	found, err = codes.LoadBySourcedID(ctx, "junit", "")
	require.NoError(t, err)
	require.Equal(t, []string{"junit#foo", "junit#bar"}, batchUIDs(found), "plain token 'junit' has no source")

	found, err = codes.LoadBySourcedID(ctx, "ng", "")
	require.NoError(t, err)
	require.Equal(t, []string{"ng#baz"}, batchUIDs(found))

	_, err = codes.LoadBySourcedID(ctx, "a#b", "")
	require.ErrorIs(t, err, domain.ErrInvalidKeyFormat)

	_, err = codes.LoadBySourcedID(ctx, "", "foo")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestGroupCodeStore_EmptySourcedIDLoadsAll(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	testutil.NewBuilder(t, store).WithCourseTestData().Build()
	codes := NewGroupCodeStore(store.Repositories().Codes)

	all, err := codes.LoadAll(ctx)
	require.NoError(t, err)
	bySourced, err := codes.LoadBySourcedID(ctx, "", "")
	require.NoError(t, err)

	require.Len(t, bySourced, len(all))
	require.Equal(t, batchUIDs(all), batchUIDs(bySourced))
}

func TestGroupCodeStore_LoadByGroupSetID(t *testing.T) {
	store := testutil.NewTestStore(t)
	groups := testutil.NewBuilder(t, store).WithCourseTestData().Build()
	codes := NewGroupCodeStore(store.Repositories().Codes)

	found, err := codes.LoadByGroupSetID(context.Background(), groups["set"].ID())
	require.NoError(t, err)
	require.Equal(t, []string{"sis#alpha", "sis#beta"}, batchUIDs(found), "the set's own key is excluded")
}

func TestGroupCodeStore_PersistAndDelete(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	groups := testutil.NewBuilder(t, store).WithGroup("g").Build()
	codes := NewGroupCodeStore(store.Repositories().Codes)
	id := groups["g"].ID()

	code := domain.NewGroupCode(id, testutil.DefaultCourse, "x")
	require.NoError(t, codes.Persist(ctx, code))
	code.SetBatchUID("y")
	require.NoError(t, codes.Persist(ctx, code))

	found, err := codes.LoadByBatchUID(ctx, "y")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, code.ID(), found[0].ID())

	require.NoError(t, codes.DeleteByGroupID(ctx, id))
	require.NoError(t, codes.DeleteByGroupID(ctx, id), "second delete is a no-op")

	found, err = codes.LoadByGroupID(ctx, id)
	require.NoError(t, err)
	require.Empty(t, found)
}
