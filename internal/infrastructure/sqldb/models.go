package sqldb

import (
	"time"

	"github.com/zjrosen/admingroup/internal/groups/domain"
)

// GroupModel is a course_groups row.
type GroupModel struct {
	ID         int64  `db:"id"`
	CourseID   int64  `db:"course_id"`
	Title      string `db:"title"`
	IsGroupSet bool   `db:"is_group_set"`
	SetID      *int64 `db:"set_id"` // nullable
	Available  bool   `db:"available"`
	CreatedAt  int64  `db:"created_at"` // Unix timestamp
	UpdatedAt  int64  `db:"updated_at"` // Unix timestamp
}

// GroupCodeModel is a group_codes row.
type GroupCodeModel struct {
	ID       int64  `db:"id"`
	GroupID  int64  `db:"group_id"`
	CourseID int64  `db:"course_id"`
	BatchUID string `db:"batch_uid"`
}

func toGroupModel(g *domain.Group, now time.Time) *GroupModel {
	m := &GroupModel{
		ID:         int64(g.ID()),
		CourseID:   int64(g.CourseID()),
		Title:      g.Title(),
		IsGroupSet: g.IsGroupSet(),
		Available:  g.IsAvailable(),
		CreatedAt:  now.Unix(),
		UpdatedAt:  now.Unix(),
	}
	if g.GroupSetID().IsPersisted() {
		setID := int64(g.GroupSetID())
		m.SetID = &setID
	}
	return m
}

func (m *GroupModel) toDomain() *domain.Group {
	setID := domain.UnsetID
	if m.SetID != nil {
		setID = domain.ID(*m.SetID)
	}
	return domain.ReconstituteGroup(
		domain.ID(m.ID),
		domain.ID(m.CourseID),
		m.Title,
		m.IsGroupSet,
		setID,
		m.Available,
	)
}

func toGroupCodeModel(c *domain.GroupCode) *GroupCodeModel {
	return &GroupCodeModel{
		ID:       int64(c.ID()),
		GroupID:  int64(c.GroupID()),
		CourseID: int64(c.CourseID()),
		BatchUID: c.RawBatchUID(),
	}
}

func (m *GroupCodeModel) toDomain() *domain.GroupCode {
	return domain.ReconstituteGroupCode(
		domain.ID(m.ID),
		domain.ID(m.GroupID),
		domain.ID(m.CourseID),
		m.BatchUID,
	)
}
