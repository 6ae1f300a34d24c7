// Package registry is the application layer of the course group registry.
//
// Registry is the entry point. It loads groups with their composite keys
// attached, persists them through the PersistCoordinator, deletes them
// through the CascadeDeleter and publishes a GroupEvent after each commit.
// GroupCodeStore and UniquenessChecker are exposed for direct key queries.
//
// All collaborators are constructed once and injected; nothing in this
// package holds process-wide state.
package registry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/admingroup/internal/cachemanager"
	"github.com/zjrosen/admingroup/internal/flags"
	"github.com/zjrosen/admingroup/internal/groups/domain"
	"github.com/zjrosen/admingroup/internal/log"
	"github.com/zjrosen/admingroup/internal/pubsub"
	"github.com/zjrosen/admingroup/internal/tracing"
)

// GroupSnapshot is the cached row of a group. Loads rebuild a fresh
// aggregate from it so callers never share instances.
type GroupSnapshot struct {
	ID         domain.ID
	CourseID   domain.ID
	Title      string
	IsGroupSet bool
	SetID      domain.ID
	Available  bool
}

func snapshotOf(g *domain.Group) GroupSnapshot {
	return GroupSnapshot{
		ID:         g.ID(),
		CourseID:   g.CourseID(),
		Title:      g.Title(),
		IsGroupSet: g.IsGroupSet(),
		SetID:      g.GroupSetID(),
		Available:  g.IsAvailable(),
	}
}

// GroupCacheKey keys the group snapshot cache.
type GroupCacheKey string

func cacheKey(id domain.ID) GroupCacheKey {
	return GroupCacheKey(id.String())
}

// Options configures a Registry. The zero value is strict global
// uniqueness, keys-first deletes, default flags, no cache, no tracing.
type Options struct {
	Policy      UniquenessPolicy
	DeleteOrder DeleteOrder
	Flags       *flags.Registry

	// Cache enables read-through caching of group rows when non-nil.
	Cache    cachemanager.CacheManager[GroupCacheKey, GroupSnapshot]
	CacheTTL time.Duration

	Tracer trace.Tracer
}

// Registry is the facade over groups and their composite keys.
type Registry struct {
	store       domain.Store
	codes       *GroupCodeStore
	checker     *UniquenessChecker
	coordinator *PersistCoordinator
	deleter     *CascadeDeleter
	flags       *flags.Registry
	broker      *pubsub.Broker[GroupEvent]
	groups      *cachemanager.ReadThroughCache[GroupCacheKey, GroupSnapshot, domain.ID]
	tracer      trace.Tracer
}

// New creates a Registry over store.
func New(store domain.Store, opts Options) *Registry {
	fl := opts.Flags
	if fl == nil {
		fl = flags.New(nil)
	}
	repos := store.Repositories()

	r := &Registry{
		store:       store,
		codes:       NewGroupCodeStore(repos.Codes),
		checker:     NewUniquenessChecker(repos.Codes),
		coordinator: NewPersistCoordinator(store, opts.Policy, opts.Tracer),
		deleter:     NewCascadeDeleter(store, opts.DeleteOrder, opts.Tracer),
		flags:       fl,
		broker:      pubsub.NewBroker[GroupEvent](),
		tracer:      opts.Tracer,
	}
	r.groups = cachemanager.NewReadThroughCache(opts.Cache, r.fetchSnapshot, opts.CacheTTL, opts.Cache == nil)
	return r
}

// Codes returns the composite-key store.
func (r *Registry) Codes() *GroupCodeStore { return r.codes }

// Uniqueness returns the checker used for ad-hoc queries.
func (r *Registry) Uniqueness() *UniquenessChecker { return r.checker }

// Subscribe streams change events until ctx is done.
func (r *Registry) Subscribe(ctx context.Context) <-chan pubsub.Event[GroupEvent] {
	return r.broker.Subscribe(ctx)
}

// Close stops event delivery. The store is owned by the caller.
func (r *Registry) Close() {
	r.broker.Close()
}

func (r *Registry) fetchSnapshot(ctx context.Context, id domain.ID) (GroupSnapshot, error) {
	g, err := r.store.Repositories().Groups.FindByID(ctx, id)
	if err != nil {
		return GroupSnapshot{}, err
	}
	return snapshotOf(g), nil
}

func (r *Registry) fromSnapshot(s GroupSnapshot) *domain.Group {
	g := domain.ReconstituteGroup(s.ID, s.CourseID, s.Title, s.IsGroupSet, s.SetID, s.Available)
	g.AttachCodeLoader(r.codes)
	return g
}

func (r *Registry) attach(groups []*domain.Group) []*domain.Group {
	for _, g := range groups {
		g.AttachCodeLoader(r.codes)
	}
	return groups
}

// LoadGroupByID returns *domain.GroupNotFoundError when id does not exist.
func (r *Registry) LoadGroupByID(ctx context.Context, id domain.ID) (g *domain.Group, err error) {
	if err := requirePersisted("group id", id); err != nil {
		return nil, err
	}
	ctx, op := tracing.Start(ctx, r.tracer, tracing.SpanLoadByID, attribute.Int64(tracing.AttrGroupID, int64(id)))
	defer func() { op.End(err) }()

	s, err := r.groups.Get(ctx, cacheKey(id), id)
	if err != nil {
		return nil, err
	}
	return r.fromSnapshot(s), nil
}

// LoadByBatchUID returns every group carrying uid. When the shortcut flag
// is on, a default key resolves straight to the group it was built from.
func (r *Registry) LoadByBatchUID(ctx context.Context, uid string) (groups []*domain.Group, err error) {
	ctx, op := tracing.Start(ctx, r.tracer, tracing.SpanLoadByUID, attribute.String(tracing.AttrBatchUID, uid))
	defer func() {
		op.SetAttributes(attribute.Int(tracing.AttrResultCount, len(groups)))
		op.End(err)
	}()

	if id, ok := domain.GroupIDFromDefault(uid); ok && r.flags.Enabled(flags.FlagBatchUIDShortcut) {
		s, err := r.groups.Get(ctx, cacheKey(id), id)
		if errors.Is(err, domain.ErrNotFound) {
			return []*domain.Group{}, nil
		}
		if err != nil {
			return nil, err
		}
		log.Debug(log.CatRegistry, "Resolved default key", "op", op.ID, "batch_uid", uid, "group", id.String())
		return []*domain.Group{r.fromSnapshot(s)}, nil
	}

	groups, err = r.store.Repositories().Groups.FindByBatchUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return r.attach(groups), nil
}

// LoadSingleByBatchUID returns the one group carrying uid, or
// *domain.GroupNotFoundError / *domain.AmbiguousBatchUIDError.
func (r *Registry) LoadSingleByBatchUID(ctx context.Context, uid string) (*domain.Group, error) {
	groups, err := r.LoadByBatchUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	switch len(groups) {
	case 0:
		return nil, &domain.GroupNotFoundError{BatchUID: uid}
	case 1:
		return groups[0], nil
	default:
		return nil, &domain.AmbiguousBatchUIDError{BatchUID: uid, Count: len(groups)}
	}
}

// LoadByCourseID lists the course's groups, group sets, or both.
func (r *Registry) LoadByCourseID(ctx context.Context, courseID domain.ID, sel domain.Selector) (groups []*domain.Group, err error) {
	if err := requirePersisted("course id", courseID); err != nil {
		return nil, err
	}
	ctx, op := tracing.Start(ctx, r.tracer, tracing.SpanLoadByCourse, attribute.Int64(tracing.AttrCourseID, int64(courseID)))
	defer func() {
		op.SetAttributes(attribute.Int(tracing.AttrResultCount, len(groups)))
		op.End(err)
	}()

	groups, err = r.store.Repositories().Groups.FindByCourseID(ctx, courseID, sel)
	if err != nil {
		return nil, err
	}
	return r.attach(groups), nil
}

// AddGroupToGroupSet makes groupID a member of setID. It reports false when
// groupID does not exist.
func (r *Registry) AddGroupToGroupSet(ctx context.Context, groupID, setID domain.ID) (changed bool, err error) {
	if err := requirePersisted("group id", groupID); err != nil {
		return false, err
	}
	if err := requirePersisted("group set id", setID); err != nil {
		return false, err
	}
	ctx, op := tracing.Start(ctx, r.tracer, tracing.SpanAddToSet, attribute.Int64(tracing.AttrGroupID, int64(groupID)))
	defer func() { op.End(err) }()

	var g *domain.Group
	err = r.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		set, err := repos.Groups.FindByID(ctx, setID)
		if err != nil {
			return err
		}
		if !set.IsGroupSet() {
			return &domain.ValidationError{Warnings: []domain.ValidationWarning{
				{Field: "set_id", Message: "referenced group is not a group set"},
			}}
		}
		changed, err = repos.Groups.AddToGroupSet(ctx, groupID, setID)
		if err != nil || !changed {
			return err
		}
		g, err = repos.Groups.FindByID(ctx, groupID)
		return err
	})
	if err != nil {
		return false, err
	}

	r.groups.Invalidate(ctx, cacheKey(groupID))
	if changed {
		r.publish(pubsub.UpdatedEvent, GroupEvent{
			GroupID:     groupID,
			CourseID:    g.CourseID(),
			IsGroupSet:  g.IsGroupSet(),
			OperationID: op.ID,
		})
	}
	return changed, nil
}

// Persist validates and writes g with its composite key. See
// PersistCoordinator.Persist for the failure contract.
func (r *Registry) Persist(ctx context.Context, g *domain.Group) error {
	ctx, opID := tracing.EnsureOperationID(ctx)
	created := g.IsNew()

	if err := r.coordinator.Persist(ctx, g); err != nil {
		return err
	}

	r.groups.Invalidate(ctx, cacheKey(g.ID()))
	uid, err := g.BatchUID(ctx)
	if err != nil {
		return err
	}
	eventType := pubsub.UpdatedEvent
	if created {
		eventType = pubsub.CreatedEvent
	}
	r.publish(eventType, GroupEvent{
		GroupID:     g.ID(),
		CourseID:    g.CourseID(),
		IsGroupSet:  g.IsGroupSet(),
		BatchUID:    uid,
		OperationID: opID,
	})
	return nil
}

// DeleteGroupByID removes the group, or the group set with its members,
// and all their composite keys. Deleting a missing group is a no-op.
func (r *Registry) DeleteGroupByID(ctx context.Context, id domain.ID) error {
	ctx, opID := tracing.EnsureOperationID(ctx)

	deleted, err := r.deleter.Delete(ctx, id)
	if err != nil {
		return err
	}
	for _, dg := range deleted {
		r.groups.Invalidate(ctx, cacheKey(dg.ID))
		r.publish(pubsub.DeletedEvent, GroupEvent{
			GroupID:     dg.ID,
			CourseID:    dg.CourseID,
			IsGroupSet:  dg.IsGroupSet,
			OperationID: opID,
		})
	}
	return nil
}

func (r *Registry) publish(t pubsub.EventType, ev GroupEvent) {
	if !r.flags.Enabled(flags.FlagChangeEvents) {
		return
	}
	log.Debug(log.CatEvents, "Publishing group event", "type", string(t), "group", ev.GroupID.String(), "op", ev.OperationID)
	r.broker.Publish(t, ev)
}
