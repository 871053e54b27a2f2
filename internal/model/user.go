package model

import "time"

// User is an account record. The subscription and API-access expiries are
// independent clocks: extending one never touches the other.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	PasswordHash          string     `json:"-"`
	SubscriptionPlanID    *string    `json:"subscriptionPlanId"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt"`
	APIKey                *string    `json:"apiKey"`
	APIPlanID             *string    `json:"apiPlanId"`
	APIExpiresAt          *time.Time `json:"apiExpiresAt"`
	CanSetCustomExpiry    bool       `json:"canSetCustomExpiry"`
	IsDonor               bool       `json:"isDonor"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// HasActiveSubscription reports whether the main subscription clock is
// running at the given instant.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.After(now)
}

// HasAPIAccess reports whether an API-access record exists at all,
// regardless of its expiry.
func (u *User) HasAPIAccess() bool {
	return u.APIKey != nil
}

// RegisterRequest is the DTO for POST /api/users.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the DTO for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}
