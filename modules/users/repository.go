package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/release-agent/pkg/pg"
)

// DB is the subset of pgxpool.Pool the repository needs; narrowed for tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides access to the users table.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, username, password, email, is_admin, is_active, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.IsAdmin, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persists a new user. Password must already be hashed by the caller.
func (r *Repository) Create(ctx context.Context, username, passwordHash, email string, isAdmin bool) (*User, error) {
	query := `
		INSERT INTO users (username, password, email, is_admin, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, username, passwordHash, email, isAdmin))
	if err != nil {
		return nil, fmt.Errorf("users: create: %w", err)
	}
	return u, nil
}

// GetByID loads a user by primary key. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("users: get by id: %w", err)
	}
	return u, nil
}

// GetByUsername loads a user by username. Returns (nil, nil) when absent.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("users: get by username: %w", err)
	}
	return u, nil
}

// List returns all users ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.IsAdmin, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// SetActive flips the activation flag. Deactivating a user revokes every
// token they own at verification time without touching the token records.
func (r *Repository) SetActive(ctx context.Context, id int64, isActive bool) error {
	if _, err := r.db.Exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, isActive); err != nil {
		return fmt.Errorf("users: set active: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if _, err := r.db.Exec(ctx, `UPDATE users SET password = $2 WHERE id = $1`, id, passwordHash); err != nil {
		return fmt.Errorf("users: update password: %w", err)
	}
	return nil
}
