package service

import "errors"

var (
	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAliasTaken is returned when a live (non-expired) record already holds the alias
	ErrAliasTaken = errors.New("alias taken")

	// ErrURLNotFound is returned when no live record exists for an alias or id
	ErrURLNotFound = errors.New("url not found")

	// ErrUserNotFound is returned when a referenced user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering with an email that is already in use
	ErrEmailTaken = errors.New("email already registered")

	// ErrBadCredentials is returned on a failed login
	ErrBadCredentials = errors.New("invalid email or password")

	// ErrForbidden is returned when the acting user lacks ownership or role
	ErrForbidden = errors.New("forbidden")

	// ErrCouponExists is returned when creating a coupon whose code is already in use
	ErrCouponExists = errors.New("coupon already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrCouponExhausted is returned when a coupon's usage limit has been reached
	ErrCouponExhausted = errors.New("coupon usage limit reached")

	// ErrProductNotFound is returned when a referenced product does not exist
	ErrProductNotFound = errors.New("product not found")

	// ErrOutOfStock is returned when a quantity-limited product has no stock left
	ErrOutOfStock = errors.New("product out of stock")

	// ErrGatewayUnavailable is returned when the requested payment provider is not configured
	ErrGatewayUnavailable = errors.New("payment provider not configured")
)
