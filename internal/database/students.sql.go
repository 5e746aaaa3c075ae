package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const studentColumns = `id, full_name, birth_date, gender, class_id, national_id, phone, address, room, meal_group, created_at`

func scanStudent(row pgx.Row) (Student, error) {
	var i Student
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.BirthDate,
		&i.Gender,
		&i.ClassID,
		&i.NationalID,
		&i.Phone,
		&i.Address,
		&i.Room,
		&i.MealGroup,
		&i.CreatedAt,
	)
	return i, err
}

const listStudents = `-- name: ListStudents :many
SELECT ` + studentColumns + `
FROM students
WHERE ($1::text = '' OR class_id = $1)
  AND ($2::text = '' OR meal_group = $2)
  AND ($3::text = '' OR room = $3)
ORDER BY class_id, full_name`

type ListStudentsParams struct {
	ClassID   string
	MealGroup string
	Room      string
}

func (q *Queries) ListStudents(ctx context.Context, arg ListStudentsParams) ([]Student, error) {
	rows, err := q.db.Query(ctx, listStudents, arg.ClassID, arg.MealGroup, arg.Room)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Student
	for rows.Next() {
		i, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getStudent = `-- name: GetStudent :one
SELECT ` + studentColumns + ` FROM students WHERE id = $1`

func (q *Queries) GetStudent(ctx context.Context, id pgtype.UUID) (Student, error) {
	return scanStudent(q.db.QueryRow(ctx, getStudent, id))
}

var studentCopyColumns = []string{
	"id", "full_name", "birth_date", "gender", "class_id",
	"national_id", "phone", "address", "room", "meal_group", "created_at",
}

// CopyStudents bulk-inserts rows with the COPY protocol.
func (q *Queries) CopyStudents(ctx context.Context, rows []Student) (int64, error) {
	return q.db.CopyFrom(ctx, pgx.Identifier{"students"}, studentCopyColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{
				r.ID, r.FullName, r.BirthDate, r.Gender, r.ClassID,
				r.NationalID, r.Phone, r.Address, r.Room, r.MealGroup, r.CreatedAt,
			}, nil
		}))
}

const updateStudent = `-- name: UpdateStudent :execrows
UPDATE students SET
    full_name = $2, birth_date = $3, gender = $4, class_id = $5, national_id = $6,
    phone = $7, address = $8, room = $9, meal_group = $10
WHERE id = $1`

func (q *Queries) UpdateStudent(ctx context.Context, arg Student) (int64, error) {
	tag, err := q.db.Exec(ctx, updateStudent,
		arg.ID, arg.FullName, arg.BirthDate, arg.Gender, arg.ClassID,
		arg.NationalID, arg.Phone, arg.Address, arg.Room, arg.MealGroup,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteStudent = `-- name: DeleteStudent :execrows
DELETE FROM students WHERE id = $1`

func (q *Queries) DeleteStudent(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteStudent, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
