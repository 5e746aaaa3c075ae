package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const reportColumns = `id, kind, report_date, class_id, total_count, present_count, absent_count, absent_students, created_by, created_at`

func scanReport(row pgx.Row) (AttendanceReport, error) {
	var i AttendanceReport
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.ReportDate,
		&i.ClassID,
		&i.TotalCount,
		&i.PresentCount,
		&i.AbsentCount,
		&i.AbsentStudents,
		&i.CreatedBy,
		&i.CreatedAt,
	)
	return i, err
}

const insertReport = `-- name: InsertReport :exec
INSERT INTO attendance_reports (` + reportColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (q *Queries) InsertReport(ctx context.Context, arg AttendanceReport) error {
	_, err := q.db.Exec(ctx, insertReport,
		arg.ID, arg.Kind, arg.ReportDate, arg.ClassID, arg.TotalCount,
		arg.PresentCount, arg.AbsentCount, arg.AbsentStudents, arg.CreatedBy, arg.CreatedAt,
	)
	return err
}

const getReport = `-- name: GetReport :one
SELECT ` + reportColumns + ` FROM attendance_reports WHERE id = $1`

func (q *Queries) GetReport(ctx context.Context, id pgtype.UUID) (AttendanceReport, error) {
	return scanReport(q.db.QueryRow(ctx, getReport, id))
}

const listReports = `-- name: ListReports :many
SELECT ` + reportColumns + `
FROM attendance_reports
WHERE ($1::text = '' OR kind = $1)
  AND ($2::text = '' OR class_id = $2)
  AND ($3::date IS NULL OR report_date >= $3)
  AND ($4::date IS NULL OR report_date <= $4)
ORDER BY report_date DESC, created_at DESC
LIMIT NULLIF($5::int, 0)`

type ListReportsParams struct {
	Kind    string
	ClassID string
	From    pgtype.Date
	To      pgtype.Date
	Limit   int32
}

func (q *Queries) ListReports(ctx context.Context, arg ListReportsParams) ([]AttendanceReport, error) {
	rows, err := q.db.Query(ctx, listReports, arg.Kind, arg.ClassID, arg.From, arg.To, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AttendanceReport
	for rows.Next() {
		i, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteReport = `-- name: DeleteReport :execrows
DELETE FROM attendance_reports WHERE id = $1`

func (q *Queries) DeleteReport(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteReport, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
