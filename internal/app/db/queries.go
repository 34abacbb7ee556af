package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs the account statements against a DBTX.
type Queries struct {
	db DBTX
}

// New returns Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// User is one row of the users table.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	LastLoginAt  pgtype.Timestamptz
}

// CreateUserParams holds the columns supplied on registration.
type CreateUserParams struct {
	Username     string
	PasswordHash string
	Role         string
}

const userColumns = `id, username, password_hash, role, created_at, last_login_at`

const createUser = `INSERT INTO users (username, password_hash, role)
VALUES ($1, $2, $3)
RETURNING ` + userColumns

// CreateUser inserts a new account. A duplicate username fails with a unique violation.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Username, arg.PasswordHash, arg.Role)
	return scanUser(row)
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

// GetUserByUsername fetches one account; a missing account yields pgx.ErrNoRows.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByUsername, username)
	return scanUser(row)
}

const updateLastLogin = `UPDATE users SET last_login_at = now() WHERE id = $1`

// UpdateLastLogin stamps the account's last successful authentication.
func (q *Queries) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, updateLastLogin, id)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.LastLoginAt,
	)
	return u, err
}
