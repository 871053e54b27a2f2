package model

import "time"

// ShortenedURL represents one short link. Alias is the storage key: at most
// one live (non-expired) record may exist per alias value.
type ShortenedURL struct {
	ID        string     `json:"id"`
	LongURL   string     `json:"longUrl"`
	Alias     string     `json:"alias"`
	ShortURL  string     `json:"shortUrl"`
	UserID    *string    `json:"userId"`
	Clicks    int64      `json:"clicks"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt"` // nil means permanent
}

// IsLive reports whether the record has not expired at the given instant.
func (u *ShortenedURL) IsLive(now time.Time) bool {
	return u.ExpiresAt == nil || u.ExpiresAt.After(now)
}

// CreateURLRequest is the DTO for POST /api/urls.
type CreateURLRequest struct {
	LongURL string  `json:"longUrl" validate:"required,notblank,url,max=2048"`
	Alias   string  `json:"alias" validate:"omitempty,alias"`
	UserID  *string `json:"userId" validate:"omitempty,notblank,max=64"`
}

// ExtendExpiryRequest is the DTO for PUT /api/urls. The operation is
// idempotent: repeating it with the same arguments leaves the same state.
type ExtendExpiryRequest struct {
	URLIDs       []string  `json:"urlIds" validate:"required,min=1,max=100,dive,required,max=64"`
	NewExpiresAt time.Time `json:"newExpiresAt" validate:"required"`
}
