package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/admingroup/internal/groups/domain"
)

// Builder accumulates groups and inserts them in order, bypassing the
// persist pipeline so tests can seed states it would reject.
type Builder struct {
	t      *testing.T
	store  domain.Store
	groups []groupData
}

// NewBuilder creates a builder for the given store.
func NewBuilder(t *testing.T, store domain.Store) *Builder {
	t.Helper()
	return &Builder{t: t, store: store}
}

// WithGroup adds a plain group.
func (b *Builder) WithGroup(name string, opts ...GroupOption) *Builder {
	g := defaultGroup(name)
	for _, opt := range opts {
		opt(&g)
	}
	b.groups = append(b.groups, g)
	return b
}

// WithGroupSet adds a group set.
func (b *Builder) WithGroupSet(name string, opts ...GroupOption) *Builder {
	g := defaultGroup(name)
	g.isGroupSet = true
	for _, opt := range opts {
		opt(&g)
	}
	b.groups = append(b.groups, g)
	return b
}

// Build inserts everything in one transaction and returns the saved groups
// by name.
func (b *Builder) Build() map[string]*domain.Group {
	b.t.Helper()
	saved := make(map[string]*domain.Group, len(b.groups))

	err := b.store.RunInTx(context.Background(), func(ctx context.Context, repos domain.Repositories) error {
		for _, data := range b.groups {
			g := domain.NewGroup(data.courseID, data.title)
			g.SetIsGroupSet(data.isGroupSet)
			g.SetAvailable(data.available)
			if data.setName != "" {
				set, ok := saved[data.setName]
				if !ok {
					return fmt.Errorf("group set %q must be added before %q", data.setName, data.name)
				}
				g.SetGroupSetID(set.ID())
			}
			if err := repos.Groups.Save(ctx, g); err != nil {
				return err
			}
			for _, uid := range data.batchUIDs {
				if err := repos.Codes.Save(ctx, domain.NewGroupCode(g.ID(), data.courseID, uid)); err != nil {
					return err
				}
			}
			saved[data.name] = g
		}
		return nil
	})
	require.NoError(b.t, err)
	return saved
}
