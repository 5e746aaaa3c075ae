package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertAuditLog = `-- name: InsertAuditLog :exec
INSERT INTO audit_log (
    id, action, severity, entity, entity_id, actor_id, actor_name,
    ip_address, user_agent, rows_affected, detail, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func (q *Queries) InsertAuditLog(ctx context.Context, arg AuditLog) error {
	_, err := q.db.Exec(ctx, insertAuditLog,
		arg.ID, arg.Action, arg.Severity, arg.Entity, arg.EntityID, arg.ActorID, arg.ActorName,
		arg.IpAddress, arg.UserAgent, arg.RowsAffected, arg.Detail, arg.CreatedAt,
	)
	return err
}

const listAuditLog = `-- name: ListAuditLog :many
SELECT id, action, severity, entity, entity_id, actor_id, actor_name,
       ip_address, user_agent, rows_affected, detail, created_at
FROM audit_log
WHERE ($1::text = '' OR action = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`

type ListAuditLogParams struct {
	Action string
	Since  pgtype.Timestamptz
	Limit  int32
	Offset int32
}

func (q *Queries) ListAuditLog(ctx context.Context, arg ListAuditLogParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLog, arg.Action, arg.Since, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AuditLog
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(
			&i.ID,
			&i.Action,
			&i.Severity,
			&i.Entity,
			&i.EntityID,
			&i.ActorID,
			&i.ActorName,
			&i.IpAddress,
			&i.UserAgent,
			&i.RowsAffected,
			&i.Detail,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const purgeAuditLog = `-- name: PurgeAuditLog :execrows
DELETE FROM audit_log WHERE created_at < $1`

func (q *Queries) PurgeAuditLog(ctx context.Context, before pgtype.Timestamptz) (int64, error) {
	tag, err := q.db.Exec(ctx, purgeAuditLog, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
