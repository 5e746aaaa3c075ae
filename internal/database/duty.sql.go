package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const listDuty = `-- name: ListDuty :many
SELECT id, teacher_name, duty_date, notes, created_by, created_at
FROM duty_schedules
WHERE ($1::date IS NULL OR duty_date >= $1)
  AND ($2::date IS NULL OR duty_date <= $2)
  AND ($3::text = '' OR lower(teacher_name) = lower($3))
ORDER BY duty_date, teacher_name`

type ListDutyParams struct {
	From        pgtype.Date
	To          pgtype.Date
	TeacherName string
}

func (q *Queries) ListDuty(ctx context.Context, arg ListDutyParams) ([]DutySchedule, error) {
	rows, err := q.db.Query(ctx, listDuty, arg.From, arg.To, arg.TeacherName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DutySchedule
	for rows.Next() {
		var i DutySchedule
		if err := rows.Scan(&i.ID, &i.TeacherName, &i.DutyDate, &i.Notes, &i.CreatedBy, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countDutyRange = `-- name: CountDutyRange :one
SELECT count(*) FROM duty_schedules WHERE duty_date BETWEEN $1 AND $2`

func (q *Queries) CountDutyRange(ctx context.Context, from, to pgtype.Date) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countDutyRange, from, to).Scan(&n)
	return n, err
}

const deleteDutyRange = `-- name: DeleteDutyRange :execrows
DELETE FROM duty_schedules WHERE duty_date BETWEEN $1 AND $2`

func (q *Queries) DeleteDutyRange(ctx context.Context, from, to pgtype.Date) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteDutyRange, from, to)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CopyDuty bulk-inserts rows with the COPY protocol.
func (q *Queries) CopyDuty(ctx context.Context, rows []DutySchedule) (int64, error) {
	return q.db.CopyFrom(ctx, pgx.Identifier{"duty_schedules"},
		[]string{"id", "teacher_name", "duty_date", "notes", "created_by", "created_at"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.ID, r.TeacherName, r.DutyDate, r.Notes, r.CreatedBy, r.CreatedAt}, nil
		}))
}

const updateDuty = `-- name: UpdateDuty :execrows
UPDATE duty_schedules SET teacher_name = $2, duty_date = $3, notes = $4 WHERE id = $1`

func (q *Queries) UpdateDuty(ctx context.Context, arg DutySchedule) (int64, error) {
	tag, err := q.db.Exec(ctx, updateDuty, arg.ID, arg.TeacherName, arg.DutyDate, arg.Notes)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteDuty = `-- name: DeleteDuty :execrows
DELETE FROM duty_schedules WHERE id = $1`

func (q *Queries) DeleteDuty(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteDuty, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
