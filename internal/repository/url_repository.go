package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/internal/service"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// URLRepository provides data access for shortened URLs using pgx.
type URLRepository struct {
	pool PoolInterface
}

// NewURLRepository creates a new URLRepository with the given pool.
func NewURLRepository(pool *pgxpool.Pool) *URLRepository {
	return &URLRepository{pool: pool}
}

// NewURLRepositoryWithPool creates a URLRepository with a custom pool
// interface. Primarily used for testing.
func NewURLRepositoryWithPool(pool PoolInterface) *URLRepository {
	return &URLRepository{pool: pool}
}

// UpsertLive inserts the record, or overwrites an expired record holding the
// same alias. The live-collision check and the write are a single statement,
// so two concurrent requests for the same alias cannot both succeed.
// Returns service.ErrAliasTaken when a live record already owns the alias.
func (r *URLRepository) UpsertLive(ctx context.Context, u *model.ShortenedURL) error {
	query := `
		INSERT INTO urls (id, alias, long_url, user_id, clicks, created_at, expires_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
		ON CONFLICT (alias) DO UPDATE
		SET id = EXCLUDED.id,
		    long_url = EXCLUDED.long_url,
		    user_id = EXCLUDED.user_id,
		    clicks = 0,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
		WHERE urls.expires_at IS NOT NULL AND urls.expires_at <= NOW()
		RETURNING alias`

	var alias string
	err := r.pool.QueryRow(ctx, query,
		u.ID, u.Alias, u.LongURL, u.UserID, u.CreatedAt, u.ExpiresAt).Scan(&alias)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.ErrAliasTaken
		}
		return fmt.Errorf("upsert url %s: %w", u.Alias, err)
	}
	return nil
}

// GetLiveByAlias retrieves the live record for an alias.
// Returns nil, nil when no live record exists (service layer handles this).
func (r *URLRepository) GetLiveByAlias(ctx context.Context, alias string) (*model.ShortenedURL, error) {
	query := `
		SELECT id, alias, long_url, user_id, clicks, created_at, expires_at
		FROM urls
		WHERE alias = $1 AND (expires_at IS NULL OR expires_at > NOW())`

	var u model.ShortenedURL
	err := r.pool.QueryRow(ctx, query, alias).Scan(
		&u.ID, &u.Alias, &u.LongURL, &u.UserID, &u.Clicks, &u.CreatedAt, &u.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get url by alias %s: %w", alias, err)
	}
	return &u, nil
}

// GetByID retrieves a record by id regardless of expiry.
// Returns nil, nil when not found.
func (r *URLRepository) GetByID(ctx context.Context, id string) (*model.ShortenedURL, error) {
	query := `
		SELECT id, alias, long_url, user_id, clicks, created_at, expires_at
		FROM urls WHERE id = $1`

	var u model.ShortenedURL
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Alias, &u.LongURL, &u.UserID, &u.Clicks, &u.CreatedAt, &u.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get url by id %s: %w", id, err)
	}
	return &u, nil
}

// ListByUser retrieves all records owned by a user, newest first.
// Returns an empty slice (not nil) when the user owns no links.
func (r *URLRepository) ListByUser(ctx context.Context, userID string) ([]model.ShortenedURL, error) {
	query := `
		SELECT id, alias, long_url, user_id, clicks, created_at, expires_at
		FROM urls WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list urls for user %s: %w", userID, err)
	}
	defer rows.Close()

	urls := []model.ShortenedURL{}
	for rows.Next() {
		var u model.ShortenedURL
		if err := rows.Scan(&u.ID, &u.Alias, &u.LongURL, &u.UserID, &u.Clicks, &u.CreatedAt, &u.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan url row: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate url rows: %w", err)
	}
	return urls, nil
}

// SetExpiry sets expires_at on every record in ids. Records absent from the
// table are skipped silently, which keeps the operation idempotent.
func (r *URLRepository) SetExpiry(ctx context.Context, ids []string, expiresAt time.Time) error {
	query := `UPDATE urls SET expires_at = $1 WHERE id = ANY($2)`

	if _, err := r.pool.Exec(ctx, query, expiresAt, ids); err != nil {
		return fmt.Errorf("set expiry on %d urls: %w", len(ids), err)
	}
	return nil
}

// Delete removes a record by id.
func (r *URLRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM urls WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete url %s: %w", id, err)
	}
	return nil
}

// IncrementClicks bumps the click counter for an alias. Best effort: the
// redirect must not fail because the counter write did.
func (r *URLRepository) IncrementClicks(ctx context.Context, alias string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE urls SET clicks = clicks + 1 WHERE alias = $1`, alias); err != nil {
		return fmt.Errorf("increment clicks for %s: %w", alias, err)
	}
	return nil
}
