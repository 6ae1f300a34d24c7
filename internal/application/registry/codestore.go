package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/zjrosen/admingroup/internal/groups/domain"
)

// GroupCodeStore reads and writes composite-key records. It performs no
// validation; callers persist codes through the PersistCoordinator unless
// they are repairing data.
type GroupCodeStore struct {
	codes domain.GroupCodeRepository
}

// NewGroupCodeStore wraps a code repository.
func NewGroupCodeStore(codes domain.GroupCodeRepository) *GroupCodeStore {
	return &GroupCodeStore{codes: codes}
}

// Persist inserts or updates code depending on whether it has an id.
func (s *GroupCodeStore) Persist(ctx context.Context, code *domain.GroupCode) error {
	return s.codes.Save(ctx, code)
}

// LoadByGroupID returns every code stored for groupID.
func (s *GroupCodeStore) LoadByGroupID(ctx context.Context, groupID domain.ID) ([]*domain.GroupCode, error) {
	if err := requirePersisted("group id", groupID); err != nil {
		return nil, err
	}
	return s.codes.FindByGroupID(ctx, groupID)
}

// FindByGroupID lets the store act as a domain.CodeLoader.
func (s *GroupCodeStore) FindByGroupID(ctx context.Context, groupID domain.ID) ([]*domain.GroupCode, error) {
	return s.LoadByGroupID(ctx, groupID)
}

// LoadByBatchUID returns codes whose batch_uid equals uid exactly.
func (s *GroupCodeStore) LoadByBatchUID(ctx context.Context, uid string) ([]*domain.GroupCode, error) {
	return s.codes.FindByBatchUID(ctx, uid)
}

// LoadBySourcedID matches source#localID exactly. With an empty localID it
// returns every code whose batch_uid starts with source#, and with both
// empty it returns all codes.
func (s *GroupCodeStore) LoadBySourcedID(ctx context.Context, source, localID string) ([]*domain.GroupCode, error) {
	if localID != "" {
		uid, err := domain.EncodeSourcedID(source, localID)
		if err != nil {
			return nil, err
		}
		return s.codes.FindByBatchUID(ctx, uid)
	}
	if source == "" {
		return s.codes.FindAll(ctx)
	}
	if strings.Contains(source, domain.Separator) {
		return nil, fmt.Errorf("%w: source %q contains %q", domain.ErrInvalidKeyFormat, source, domain.Separator)
	}
	return s.codes.FindByBatchUIDPrefix(ctx, source+domain.Separator)
}

// LoadByGroupSetID returns the codes of the set's members. The set's own
// code is not included.
func (s *GroupCodeStore) LoadByGroupSetID(ctx context.Context, setID domain.ID) ([]*domain.GroupCode, error) {
	if err := requirePersisted("group set id", setID); err != nil {
		return nil, err
	}
	return s.codes.FindByGroupSetID(ctx, setID)
}

func (s *GroupCodeStore) LoadAll(ctx context.Context) ([]*domain.GroupCode, error) {
	return s.codes.FindAll(ctx)
}

// DeleteByGroupID removes every code of groupID. Deleting none is not an error.
func (s *GroupCodeStore) DeleteByGroupID(ctx context.Context, groupID domain.ID) error {
	if err := requirePersisted("group id", groupID); err != nil {
		return err
	}
	return s.codes.DeleteByGroupID(ctx, groupID)
}

func requirePersisted(what string, id domain.ID) error {
	if !id.IsPersisted() {
		return fmt.Errorf("%w: %s is not set", domain.ErrInvalidArgument, what)
	}
	return nil
}
