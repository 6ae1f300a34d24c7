package sqldb

import (
	"context"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/zjrosen/admingroup/internal/groups/domain"
)

const codeColumns = `id, group_id, course_id, batch_uid`

// groupCodeRepository implements domain.GroupCodeRepository.
type groupCodeRepository struct {
	ext sqlx.ExtContext
}

func newGroupCodeRepository(ext sqlx.ExtContext) *groupCodeRepository {
	return &groupCodeRepository{ext: ext}
}

var _ domain.GroupCodeRepository = (*groupCodeRepository)(nil)

// Save inserts new codes and updates existing ones.
func (r *groupCodeRepository) Save(ctx context.Context, c *domain.GroupCode) error {
	m := toGroupCodeModel(c)

	if c.IsNew() {
		var id int64
		err := r.ext.QueryRowxContext(ctx, r.ext.Rebind(
			`INSERT INTO group_codes (group_id, course_id, batch_uid) VALUES (?, ?, ?) RETURNING id`),
			m.GroupID, m.CourseID, m.BatchUID,
		).Scan(&id)
		if err != nil {
			return storeError("insert group code", err)
		}
		c.SetID(domain.ID(id))
		return nil
	}

	_, err := r.ext.ExecContext(ctx, r.ext.Rebind(
		`UPDATE group_codes SET group_id = ?, course_id = ?, batch_uid = ? WHERE id = ?`),
		m.GroupID, m.CourseID, m.BatchUID, m.ID,
	)
	if err != nil {
		return storeError("update group code", err)
	}
	return nil
}

func (r *groupCodeRepository) FindByGroupID(ctx context.Context, groupID domain.ID) ([]*domain.GroupCode, error) {
	return r.selectCodes(ctx, "find codes by group",
		`SELECT `+codeColumns+` FROM group_codes WHERE group_id = ? ORDER BY id`, int64(groupID))
}

func (r *groupCodeRepository) FindByBatchUID(ctx context.Context, uid string) ([]*domain.GroupCode, error) {
	return r.selectCodes(ctx, "find codes by batch_uid",
		`SELECT `+codeColumns+` FROM group_codes WHERE batch_uid = ? ORDER BY id`, uid)
}

// FindByBatchUIDPrefix compares a leading substring rather than using LIKE,
// so the match is case-sensitive and wildcard-free on every backend.
func (r *groupCodeRepository) FindByBatchUIDPrefix(ctx context.Context, prefix string) ([]*domain.GroupCode, error) {
	if prefix == "" {
		return r.FindAll(ctx)
	}
	return r.selectCodes(ctx, "find codes by batch_uid prefix",
		`SELECT `+codeColumns+` FROM group_codes WHERE substr(batch_uid, 1, ?) = ? ORDER BY id`,
		utf8.RuneCountInString(prefix), prefix)
}

func (r *groupCodeRepository) FindByGroupSetID(ctx context.Context, setID domain.ID) ([]*domain.GroupCode, error) {
	return r.selectCodes(ctx, "find codes by group set",
		`SELECT `+prefixed(codeColumns, "c")+`
		 FROM group_codes c
		 JOIN course_groups g ON g.id = c.group_id
		 WHERE g.set_id = ?
		 ORDER BY c.id`, int64(setID))
}

func (r *groupCodeRepository) FindAll(ctx context.Context) ([]*domain.GroupCode, error) {
	return r.selectCodes(ctx, "list codes", `SELECT `+codeColumns+` FROM group_codes ORDER BY id`)
}

func (r *groupCodeRepository) CountByBatchUID(ctx context.Context, uid string, scope domain.CodeScope) (int, error) {
	query := `SELECT COUNT(*) FROM group_codes WHERE batch_uid = ?`
	args := []any{uid}
	if scope.CourseID.IsPersisted() {
		query += ` AND course_id = ?`
		args = append(args, int64(scope.CourseID))
	}
	if scope.ExcludeGroupID.IsPersisted() {
		query += ` AND group_id <> ?`
		args = append(args, int64(scope.ExcludeGroupID))
	}

	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, r.ext.Rebind(query), args...); err != nil {
		return 0, storeError("count codes by batch_uid", err)
	}
	return count, nil
}

func (r *groupCodeRepository) DeleteByGroupID(ctx context.Context, groupID domain.ID) error {
	_, err := r.ext.ExecContext(ctx, r.ext.Rebind(`DELETE FROM group_codes WHERE group_id = ?`), int64(groupID))
	if err != nil {
		return storeError("delete codes by group", err)
	}
	return nil
}

func (r *groupCodeRepository) selectCodes(ctx context.Context, op, query string, args ...any) ([]*domain.GroupCode, error) {
	var models []GroupCodeModel
	if err := sqlx.SelectContext(ctx, r.ext, &models, r.ext.Rebind(query), args...); err != nil {
		return nil, storeError(op, err)
	}
	codes := make([]*domain.GroupCode, 0, len(models))
	for i := range models {
		codes = append(codes, models[i].toDomain())
	}
	return codes, nil
}
