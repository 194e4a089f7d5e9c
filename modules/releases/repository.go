package releases

import (
	"context"
	"fmt"
	"time"

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

// Repository provides access to the releases table.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const releaseColumns = `id, version, notes, url, is_active, published_at`

// Create persists a new release. New releases start inactive so publishing
// is an explicit second step.
func (r *Repository) Create(ctx context.Context, version, notes, url string, publishedAt time.Time) (*Release, error) {
	query := `
		INSERT INTO releases (version, notes, url, is_active, published_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING ` + releaseColumns

	var rel Release
	err := r.db.QueryRow(ctx, query, version, notes, url, publishedAt).Scan(
		&rel.ID, &rel.Version, &rel.Notes, &rel.URL, &rel.IsActive, &rel.PublishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("releases: create: %w", err)
	}
	return &rel, nil
}

// GetByID loads a release by primary key. Returns (nil, nil) when absent.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Release, error) {
	var rel Release
	err := r.db.QueryRow(ctx, `SELECT `+releaseColumns+` FROM releases WHERE id = $1`, id).Scan(
		&rel.ID, &rel.Version, &rel.Notes, &rel.URL, &rel.IsActive, &rel.PublishedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("releases: get by id: %w", err)
	}
	return &rel, nil
}

// List returns all releases ordered by publication time, newest first.
func (r *Repository) List(ctx context.Context) ([]Release, error) {
	return r.queryMany(ctx, `SELECT `+releaseColumns+` FROM releases ORDER BY published_at DESC`)
}

// ListActive returns active releases ordered by publication time, oldest
// first, so the latest release is the last element of the feed.
func (r *Repository) ListActive(ctx context.Context) ([]Release, error) {
	return r.queryMany(ctx, `SELECT `+releaseColumns+` FROM releases WHERE is_active ORDER BY published_at ASC`)
}

func (r *Repository) queryMany(ctx context.Context, query string, args ...any) ([]Release, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("releases: query: %w", err)
	}
	defer rows.Close()

	var result []Release
	for rows.Next() {
		var rel Release
		if err := rows.Scan(&rel.ID, &rel.Version, &rel.Notes, &rel.URL, &rel.IsActive, &rel.PublishedAt); err != nil {
			return nil, fmt.Errorf("releases: scan: %w", err)
		}
		result = append(result, rel)
	}
	return result, rows.Err()
}

// Update replaces the mutable fields of a release.
func (r *Repository) Update(ctx context.Context, id int64, notes, url string, publishedAt time.Time) (*Release, error) {
	query := `
		UPDATE releases
		SET notes = $2, url = $3, published_at = $4
		WHERE id = $1
		RETURNING ` + releaseColumns

	var rel Release
	err := r.db.QueryRow(ctx, query, id, notes, url, publishedAt).Scan(
		&rel.ID, &rel.Version, &rel.Notes, &rel.URL, &rel.IsActive, &rel.PublishedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("releases: update: %w", err)
	}
	return &rel, nil
}

// SetActive flips the activation flag on the given releases.
func (r *Repository) SetActive(ctx context.Context, ids []int64, isActive bool) error {
	if _, err := r.db.Exec(ctx, `UPDATE releases SET is_active = $2 WHERE id = ANY($1)`, ids, isActive); err != nil {
		return fmt.Errorf("releases: set active: %w", err)
	}
	return nil
}

// Delete removes a release permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM releases WHERE id = $1`, id); err != nil {
		return fmt.Errorf("releases: delete: %w", err)
	}
	return nil
}
