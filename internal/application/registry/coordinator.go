package registry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/admingroup/internal/groups/domain"
	"github.com/zjrosen/admingroup/internal/log"
	"github.com/zjrosen/admingroup/internal/tracing"
)

// PersistStage is the last stage a persist call reached.
type PersistStage int

const (
	StageValidating PersistStage = iota
	StageGroupPersisted
	StageCodePersisted
	StageVerified
)

func (s PersistStage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageGroupPersisted:
		return "group_persisted"
	case StageCodePersisted:
		return "code_persisted"
	case StageVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// verifyStage decides whether code may be committed.
type verifyStage func(ctx context.Context, checker *UniquenessChecker, code *domain.GroupCode) (bool, error)

func verifierFor(policy UniquenessPolicy) verifyStage {
	switch policy {
	case PolicyCourse:
		return func(ctx context.Context, checker *UniquenessChecker, code *domain.GroupCode) (bool, error) {
			return checker.IsUniqueInScope(ctx, code.CourseID(), code.BatchUID(), code.GroupID())
		}
	case PolicyPermissive:
		return func(context.Context, *UniquenessChecker, *domain.GroupCode) (bool, error) {
			return true, nil
		}
	default:
		return func(ctx context.Context, checker *UniquenessChecker, code *domain.GroupCode) (bool, error) {
			return checker.IsUnique(ctx, code.BatchUID(), code.GroupID())
		}
	}
}

// PersistCoordinator writes a group and its primary code in one
// transaction, then verifies the batch_uid under the configured policy
// before committing.
type PersistCoordinator struct {
	store  domain.Store
	policy UniquenessPolicy
	verify verifyStage
	tracer trace.Tracer
}

// NewPersistCoordinator creates a coordinator. A nil tracer disables spans.
func NewPersistCoordinator(store domain.Store, policy UniquenessPolicy, tracer trace.Tracer) *PersistCoordinator {
	if policy == "" {
		policy = PolicyGlobal
	}
	return &PersistCoordinator{
		store:  store,
		policy: policy,
		verify: verifierFor(policy),
		tracer: tracer,
	}
}

func (c *PersistCoordinator) Policy() UniquenessPolicy {
	return c.policy
}

// Persist validates g and writes it with its code.
//
// Validation failures return *domain.ValidationError before any write. A
// conflicting batch_uid returns *domain.DuplicateBatchUIDError and rolls
// back both writes. On any failure the ids of g and its code are restored
// to their values before the call; other in-memory changes are kept.
func (c *PersistCoordinator) Persist(ctx context.Context, g *domain.Group) (err error) {
	ctx, op := tracing.Start(ctx, c.tracer, tracing.SpanPersist,
		attribute.Int64(tracing.AttrCourseID, int64(g.CourseID())),
		attribute.String(tracing.AttrPolicy, string(c.policy)),
	)
	defer func() { op.End(err) }()

	stage := StageValidating
	if err := g.Validate(ctx); err != nil {
		log.Warn(log.CatPersist, "Group failed validation", "op", op.ID, "group", g.String(), "error", err)
		return err
	}
	op.Event(tracing.EventValidated)

	code, err := g.Code(ctx)
	if err != nil {
		return err
	}
	groupID, codeID := g.ID(), code.ID()
	op.SetAttributes(attribute.String(tracing.AttrBatchUID, code.BatchUID()))

	err = c.store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Groups.Save(ctx, g); err != nil {
			return err
		}
		stage = StageGroupPersisted
		op.Event(tracing.EventGroupPersisted, attribute.Int64(tracing.AttrGroupID, int64(g.ID())))

		code.SetGroupID(g.ID())
		code.SetCourseID(g.CourseID())
		if err := repos.Codes.Save(ctx, code); err != nil {
			return err
		}
		stage = StageCodePersisted
		op.Event(tracing.EventCodePersisted)

		ok, err := c.verify(ctx, NewUniquenessChecker(repos.Codes), code)
		if err != nil {
			return err
		}
		if !ok {
			op.Event(tracing.EventConflict)
			return &domain.DuplicateBatchUIDError{
				BatchUID: code.BatchUID(),
				GroupID:  g.ID(),
				CourseID: g.CourseID(),
			}
		}
		stage = StageVerified
		op.Event(tracing.EventVerified)
		return nil
	})
	if err != nil {
		g.SetID(groupID)
		code.SetID(codeID)
		code.SetGroupID(groupID)
		log.Warn(log.CatPersist, "Persist rolled back",
			"op", op.ID, "stage", stage.String(), "batch_uid", code.BatchUID(), "error", err)
		return fmt.Errorf("persist group: %w", err)
	}

	g.MarkCodePersisted(code)
	op.SetAttributes(attribute.Int64(tracing.AttrGroupID, int64(g.ID())))
	log.Debug(log.CatPersist, "Persisted group", "op", op.ID, "group", g.String())
	return nil
}
