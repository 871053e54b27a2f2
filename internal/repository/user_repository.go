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
	"github.com/quicklinkhq/quicklink/pkg/database"
)

const userColumns = `id, email, password_hash, subscription_plan_id, subscription_expires_at,
	api_key, api_plan_id, api_expires_at, can_set_custom_expiry, is_donor, created_at`

// UserRepository provides data access for users using pgx.
type UserRepository struct {
	pool PoolInterface
}

// NewUserRepository creates a new UserRepository with the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// NewUserRepositoryWithPool creates a UserRepository with a custom pool
// interface. Primarily used for testing.
func NewUserRepositoryWithPool(pool PoolInterface) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.SubscriptionPlanID, &u.SubscriptionExpiresAt,
		&u.APIKey, &u.APIPlanID, &u.APIExpiresAt, &u.CanSetCustomExpiry, &u.IsDonor, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Insert inserts a new user.
// Returns service.ErrEmailTaken when the email is already registered.
func (r *UserRepository) Insert(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, can_set_custom_expiry, is_donor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.CanSetCustomExpiry, u.IsDonor, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id.
// Returns nil, nil when not found (service layer handles this).
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
// Returns nil, nil when not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetForUpdate retrieves a user with a row lock (SELECT FOR UPDATE) inside a
// transaction. Returns service.ErrUserNotFound when the user doesn't exist.
func (r *UserRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.User, error) {
	u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user for update %s: %w", id, err)
	}
	return u, nil
}

// SetSubscription writes the main subscription clock and donor flag.
// Must not touch the API-access clock.
func (r *UserRepository) SetSubscription(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time, isDonor bool) error {
	query := `UPDATE users SET subscription_expires_at = $2, is_donor = $3 WHERE id = $1`

	if _, err := q.Exec(ctx, query, id, expiresAt, isDonor); err != nil {
		return fmt.Errorf("set subscription for user %s: %w", id, err)
	}
	return nil
}

// SetAPIExpiry writes the API-access clock. Must not touch the main
// subscription clock.
func (r *UserRepository) SetAPIExpiry(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time) error {
	query := `UPDATE users SET api_expires_at = $2 WHERE id = $1`

	if _, err := q.Exec(ctx, query, id, expiresAt); err != nil {
		return fmt.Errorf("set api expiry for user %s: %w", id, err)
	}
	return nil
}
