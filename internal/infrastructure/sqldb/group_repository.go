package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zjrosen/admingroup/internal/groups/domain"
)

const groupColumns = `id, course_id, title, is_group_set, set_id, available, created_at, updated_at`

// groupRepository implements domain.GroupRepository.
type groupRepository struct {
	ext sqlx.ExtContext
}

func newGroupRepository(ext sqlx.ExtContext) *groupRepository {
	return &groupRepository{ext: ext}
}

var _ domain.GroupRepository = (*groupRepository)(nil)

func prefixed(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// Save inserts new groups and updates existing ones.
func (r *groupRepository) Save(ctx context.Context, g *domain.Group) error {
	m := toGroupModel(g, time.Now())

	if g.IsNew() {
		var id int64
		err := r.ext.QueryRowxContext(ctx, r.ext.Rebind(
			`INSERT INTO course_groups (course_id, title, is_group_set, set_id, available, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			m.CourseID, m.Title, m.IsGroupSet, m.SetID, m.Available, m.CreatedAt, m.UpdatedAt,
		).Scan(&id)
		if err != nil {
			return storeError("insert group", err)
		}
		g.SetID(domain.ID(id))
		return nil
	}

	result, err := r.ext.ExecContext(ctx, r.ext.Rebind(
		`UPDATE course_groups SET course_id = ?, title = ?, is_group_set = ?, set_id = ?, available = ?, updated_at = ?
		 WHERE id = ?`),
		m.CourseID, m.Title, m.IsGroupSet, m.SetID, m.Available, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return storeError("update group", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return storeError("get rows affected", err)
	}
	if rows == 0 {
		return &domain.GroupNotFoundError{ID: g.ID()}
	}
	return nil
}

// FindByID returns *domain.GroupNotFoundError when no row exists.
func (r *groupRepository) FindByID(ctx context.Context, id domain.ID) (*domain.Group, error) {
	var m GroupModel
	err := sqlx.GetContext(ctx, r.ext, &m, r.ext.Rebind(
		`SELECT `+groupColumns+` FROM course_groups WHERE id = ?`), int64(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.GroupNotFoundError{ID: id}
	}
	if err != nil {
		return nil, storeError("find group by id", err)
	}
	return m.toDomain(), nil
}

func (r *groupRepository) FindByCourseID(ctx context.Context, courseID domain.ID, sel domain.Selector) ([]*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM course_groups WHERE course_id = ?`
	args := []any{int64(courseID)}
	switch sel {
	case domain.SelectGroups:
		query += ` AND is_group_set = ?`
		args = append(args, false)
	case domain.SelectGroupSets:
		query += ` AND is_group_set = ?`
		args = append(args, true)
	}
	query += ` ORDER BY id`

	return r.selectGroups(ctx, "find groups by course", query, args...)
}

func (r *groupRepository) FindByBatchUID(ctx context.Context, uid string) ([]*domain.Group, error) {
	query := `SELECT DISTINCT ` + prefixed(groupColumns, "g") + `
		FROM course_groups g
		JOIN group_codes c ON c.group_id = g.id
		WHERE c.batch_uid = ?
		ORDER BY g.id`
	return r.selectGroups(ctx, "find groups by batch_uid", query, uid)
}

func (r *groupRepository) selectGroups(ctx context.Context, op, query string, args ...any) ([]*domain.Group, error) {
	var models []GroupModel
	if err := sqlx.SelectContext(ctx, r.ext, &models, r.ext.Rebind(query), args...); err != nil {
		return nil, storeError(op, err)
	}
	groups := make([]*domain.Group, 0, len(models))
	for i := range models {
		groups = append(groups, models[i].toDomain())
	}
	return groups, nil
}

func (r *groupRepository) MemberIDs(ctx context.Context, setID domain.ID) ([]domain.ID, error) {
	var raw []int64
	err := sqlx.SelectContext(ctx, r.ext, &raw, r.ext.Rebind(
		`SELECT id FROM course_groups WHERE set_id = ? ORDER BY id`), int64(setID))
	if err != nil {
		return nil, storeError("list group set members", err)
	}
	ids := make([]domain.ID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, domain.ID(id))
	}
	return ids, nil
}

func (r *groupRepository) AddToGroupSet(ctx context.Context, groupID, setID domain.ID) (bool, error) {
	result, err := r.ext.ExecContext(ctx, r.ext.Rebind(
		`UPDATE course_groups SET set_id = ?, updated_at = ? WHERE id = ?`),
		int64(setID), time.Now().Unix(), int64(groupID),
	)
	if err != nil {
		return false, storeError("add group to group set", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, storeError("get rows affected", err)
	}
	return rows > 0, nil
}

func (r *groupRepository) Delete(ctx context.Context, id domain.ID) error {
	_, err := r.ext.ExecContext(ctx, r.ext.Rebind(`DELETE FROM course_groups WHERE id = ?`), int64(id))
	if err != nil {
		return storeError("delete group", err)
	}
	return nil
}

func (r *groupRepository) DeleteGroupSet(ctx context.Context, setID domain.ID) error {
	if _, err := r.ext.ExecContext(ctx, r.ext.Rebind(
		`DELETE FROM course_groups WHERE set_id = ?`), int64(setID)); err != nil {
		return storeError("delete group set members", err)
	}
	if _, err := r.ext.ExecContext(ctx, r.ext.Rebind(
		`DELETE FROM course_groups WHERE id = ?`), int64(setID)); err != nil {
		return storeError("delete group set", err)
	}
	return nil
}
