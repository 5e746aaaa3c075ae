package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, full_name, username, phone, email, password_hash, roles, class_id, created_at`

func scanUser(row pgx.Row) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.FullName,
		&i.Username,
		&i.Phone,
		&i.Email,
		&i.PasswordHash,
		&i.Roles,
		&i.ClassID,
		&i.CreatedAt,
	)
	return i, err
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users ORDER BY full_name`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getUser = `-- name: GetUser :one
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, id pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUser, id))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const emailByLogin = `-- name: EmailByLogin :one
SELECT get_email_by_login($1)`

// EmailByLogin calls the get_email_by_login SQL function. The result is
// invalid when no account matches.
func (q *Queries) EmailByLogin(ctx context.Context, login string) (pgtype.Text, error) {
	var email pgtype.Text
	err := q.db.QueryRow(ctx, emailByLogin, login).Scan(&email)
	return email, err
}

const insertUser = `-- name: InsertUser :exec
INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (q *Queries) InsertUser(ctx context.Context, arg User) error {
	_, err := q.db.Exec(ctx, insertUser,
		arg.ID, arg.FullName, arg.Username, arg.Phone, arg.Email,
		arg.PasswordHash, arg.Roles, arg.ClassID, arg.CreatedAt,
	)
	return err
}
