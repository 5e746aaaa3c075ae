package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const listPermissionGroups = `-- name: ListPermissionGroups :many
SELECT id, name, description, grants, created_at FROM permission_groups ORDER BY name`

func (q *Queries) ListPermissionGroups(ctx context.Context) ([]PermissionGroup, error) {
	rows, err := q.db.Query(ctx, listPermissionGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PermissionGroup
	for rows.Next() {
		var i PermissionGroup
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.Grants, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertPermissionGroup = `-- name: InsertPermissionGroup :exec
INSERT INTO permission_groups (id, name, description, grants, created_at)
VALUES ($1, $2, $3, $4, $5)`

func (q *Queries) InsertPermissionGroup(ctx context.Context, arg PermissionGroup) error {
	_, err := q.db.Exec(ctx, insertPermissionGroup, arg.ID, arg.Name, arg.Description, arg.Grants, arg.CreatedAt)
	return err
}

const listUserPermissionGroups = `-- name: ListUserPermissionGroups :many
SELECT user_id, group_id FROM user_permission_groups
WHERE ($1::uuid IS NULL OR user_id = $1)
ORDER BY user_id`

func (q *Queries) ListUserPermissionGroups(ctx context.Context, userID pgtype.UUID) ([]UserPermissionGroup, error) {
	rows, err := q.db.Query(ctx, listUserPermissionGroups, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []UserPermissionGroup
	for rows.Next() {
		var i UserPermissionGroup
		if err := rows.Scan(&i.UserID, &i.GroupID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteUserPermissionGroups = `-- name: DeleteUserPermissionGroups :exec
DELETE FROM user_permission_groups WHERE user_id = $1`

func (q *Queries) DeleteUserPermissionGroups(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteUserPermissionGroups, userID)
	return err
}

// CopyUserPermissionGroups bulk-inserts memberships.
func (q *Queries) CopyUserPermissionGroups(ctx context.Context, rows []UserPermissionGroup) (int64, error) {
	return q.db.CopyFrom(ctx, pgx.Identifier{"user_permission_groups"}, []string{"user_id", "group_id"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return []any{rows[i].UserID, rows[i].GroupID}, nil
		}))
}
