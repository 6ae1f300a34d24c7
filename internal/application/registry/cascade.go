package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/admingroup/internal/groups/domain"
	"github.com/zjrosen/admingroup/internal/log"
	"github.com/zjrosen/admingroup/internal/tracing"
)

// DeleteOrder selects whether codes or group rows are removed first.
type DeleteOrder string

const (
	// DeleteKeysFirst never leaves a code whose group row is already gone.
	DeleteKeysFirst DeleteOrder = "keys-first"
	// DeleteGroupFirst removes group rows, then their codes.
	DeleteGroupFirst DeleteOrder = "group-first"
)

// ParseDeleteOrder maps a config value to an order. Empty means keys-first.
func ParseDeleteOrder(s string) (DeleteOrder, error) {
	switch o := DeleteOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return DeleteKeysFirst, nil
	case DeleteKeysFirst, DeleteGroupFirst:
		return o, nil
	default:
		return "", fmt.Errorf("%w: unknown delete order %q", domain.ErrInvalidArgument, s)
	}
}

// DeletedGroup describes one group row removed by a cascade.
type DeletedGroup struct {
	ID         domain.ID
	CourseID   domain.ID
	IsGroupSet bool
}

// CascadeDeleter removes a group with its codes, and a group set with all
// of its members and their codes, in one transaction.
type CascadeDeleter struct {
	store  domain.Store
	order  DeleteOrder
	tracer trace.Tracer
}

// NewCascadeDeleter creates a deleter. A nil tracer disables spans.
func NewCascadeDeleter(store domain.Store, order DeleteOrder, tracer trace.Tracer) *CascadeDeleter {
	if order == "" {
		order = DeleteKeysFirst
	}
	return &CascadeDeleter{store: store, order: order, tracer: tracer}
}

// Delete removes the group id and reports every group row removed, the
// group itself first. A missing group is not an error and removes nothing.
func (d *CascadeDeleter) Delete(ctx context.Context, id domain.ID) (deleted []DeletedGroup, err error) {
	if err := requirePersisted("group id", id); err != nil {
		return nil, err
	}

	ctx, op := tracing.Start(ctx, d.tracer, tracing.SpanDelete,
		attribute.Int64(tracing.AttrGroupID, int64(id)),
		attribute.String(tracing.AttrDeleteOrder, string(d.order)),
	)
	defer func() { op.End(err) }()

	err = d.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		deleted = nil

		g, err := repos.Groups.FindByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		op.SetAttributes(attribute.Bool(tracing.AttrGroupSet, g.IsGroupSet()))

		if !g.IsGroupSet() {
			deleted = []DeletedGroup{{ID: id, CourseID: g.CourseID()}}
			return d.inOrder(op,
				func() error { return repos.Codes.DeleteByGroupID(ctx, id) },
				func() error { return repos.Groups.Delete(ctx, id) },
			)
		}

		// Members must be listed before the set delete removes them.
		members, err := repos.Groups.MemberIDs(ctx, id)
		if err != nil {
			return err
		}
		op.Event(tracing.EventMembersLoaded, attribute.Int(tracing.AttrMemberCount, len(members)))

		deleted = append(deleted, DeletedGroup{ID: id, CourseID: g.CourseID(), IsGroupSet: true})
		for _, m := range members {
			deleted = append(deleted, DeletedGroup{ID: m, CourseID: g.CourseID()})
		}
		return d.inOrder(op,
			func() error {
				for _, dg := range deleted {
					if err := repos.Codes.DeleteByGroupID(ctx, dg.ID); err != nil {
						return err
					}
				}
				return nil
			},
			func() error { return repos.Groups.DeleteGroupSet(ctx, id) },
		)
	})
	if err != nil {
		log.ErrorErr(log.CatDelete, "Delete rolled back", err, "op", op.ID, "group", id.String())
		return nil, fmt.Errorf("delete group %s: %w", id, err)
	}

	if len(deleted) == 0 {
		log.Debug(log.CatDelete, "Delete of missing group ignored", "op", op.ID, "group", id.String())
	} else {
		log.Debug(log.CatDelete, "Deleted groups", "op", op.ID, "group", id.String(), "count", len(deleted), "order", string(d.order))
	}
	return deleted, nil
}

func (d *CascadeDeleter) inOrder(op *tracing.Operation, deleteKeys, deleteGroups func() error) error {
	steps := []struct {
		run   func() error
		event string
	}{
		{deleteKeys, tracing.EventKeysDeleted},
		{deleteGroups, tracing.EventGroupsDeleted},
	}
	if d.order == DeleteGroupFirst {
		steps[0], steps[1] = steps[1], steps[0]
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return err
		}
		op.Event(step.event)
	}
	return nil
}
