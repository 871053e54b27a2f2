package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quicklinkhq/quicklink/internal/model"
)

// AccountRepository defines the interface for account data access.
type AccountRepository interface {
	Insert(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// UserService provides registration, login and profile lookup.
type UserService struct {
	users AccountRepository
}

// NewUserService creates a new UserService with the given repository.
func NewUserService(users AccountRepository) *UserService {
	return &UserService{users: users}
}

// Register creates an account with a bcrypt-hashed password.
// Returns ErrEmailTaken when the email is already registered.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials. Returns ErrBadCredentials for an unknown email
// and for a wrong password alike, so the two cases are indistinguishable.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// GetByID returns a user profile. Returns ErrUserNotFound when the id does
// not resolve.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrInvalidRequest
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
