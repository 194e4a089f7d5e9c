package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/release-agent/pkg/apitoken"
	"github.com/dmitrymomot/release-agent/pkg/pg"
)

// DB is the subset of pgxpool.Pool the repository needs; narrowed for tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides access to the tokens table.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new token record. Only the identifier hash is stored.
// A nil expiry is written as the far-future sentinel so the column stays
// NOT NULL.
func (r *Repository) Create(ctx context.Context, userID int64, name, hash string, expiresAt *time.Time) (*Token, error) {
	if expiresAt == nil {
		expiresAt = &apitoken.UnboundedExpiry
	}
	query := `
		INSERT INTO tokens (user_id, name, token, is_active, expires_at)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING id, user_id, name, token, is_active, expires_at, created_at, updated_at`

	var t Token
	err := r.db.QueryRow(ctx, query, userID, name, hash, expiresAt).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Hash, &t.IsActive, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("tokens: create: %w", err)
	}
	return &t, nil
}

// FindByHash loads a token and its owner's activity flag by identifier hash.
// Returns (nil, nil) when no record matches.
func (r *Repository) FindByHash(ctx context.Context, hash string) (*TokenWithOwner, error) {
	query := `
		SELECT t.id, t.user_id, t.name, t.token, t.is_active, t.expires_at,
		       t.created_at, t.updated_at, u.is_active
		FROM tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1`

	var t TokenWithOwner
	err := r.db.QueryRow(ctx, query, hash).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Hash, &t.IsActive, &t.ExpiresAt,
		&t.CreatedAt, &t.UpdatedAt, &t.OwnerActive,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("tokens: find by hash: %w", err)
	}
	return &t, nil
}

// GetByID loads a token by primary key. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Token, error) {
	query := `
		SELECT id, user_id, name, token, is_active, expires_at, created_at, updated_at
		FROM tokens
		WHERE id = $1`

	var t Token
	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Hash, &t.IsActive, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("tokens: get by id: %w", err)
	}
	return &t, nil
}

// List returns all tokens ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context) ([]Token, error) {
	query := `
		SELECT id, user_id, name, token, is_active, expires_at, created_at, updated_at
		FROM tokens
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tokens: list: %w", err)
	}
	defer rows.Close()

	var result []Token
	for rows.Next() {
		var t Token
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Name, &t.Hash, &t.IsActive, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("tokens: scan: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// SetActive flips the activation flag on the given tokens. Deactivation is
// the admin-side revocation action; it never touches the cryptographic
// expiry embedded in issued tokens.
func (r *Repository) SetActive(ctx context.Context, ids []int64, isActive bool) error {
	query := `
		UPDATE tokens
		SET is_active = $2, updated_at = NOW()
		WHERE id = ANY($1)`

	if _, err := r.db.Exec(ctx, query, ids, isActive); err != nil {
		return fmt.Errorf("tokens: set active: %w", err)
	}
	return nil
}

// Delete removes a token record permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("tokens: delete: %w", err)
	}
	return nil
}
