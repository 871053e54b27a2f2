package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/internal/sluggen"
)

// URLRepositoryInterface defines the interface for URL data access.
type URLRepositoryInterface interface {
	UpsertLive(ctx context.Context, u *model.ShortenedURL) error
	GetLiveByAlias(ctx context.Context, alias string) (*model.ShortenedURL, error)
	GetByID(ctx context.Context, id string) (*model.ShortenedURL, error)
	ListByUser(ctx context.Context, userID string) ([]model.ShortenedURL, error)
	SetExpiry(ctx context.Context, ids []string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	IncrementClicks(ctx context.Context, alias string) error
}

// UserReader is the read-only slice of user data access the shortener needs.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// AliasCache caches alias -> long URL on the redirect path. Implementations
// must treat every failure as a miss; the database remains authoritative.
type AliasCache interface {
	Get(ctx context.Context, alias string) (string, bool, error)
	Set(ctx context.Context, alias, longURL string, ttl time.Duration) error
	Delete(ctx context.Context, alias string) error
}

// ShortenerService provides business logic for creating and resolving
// short links.
type ShortenerService struct {
	urls        URLRepositoryInterface
	users       UserReader
	gen         sluggen.Generator
	cache       AliasCache // nil when the cache is disabled
	baseURL     string
	aliasLength int
	cacheTTL    time.Duration
}

// NewShortenerService creates a new ShortenerService. cache may be nil.
func NewShortenerService(urls URLRepositoryInterface, users UserReader, gen sluggen.Generator, cache AliasCache, baseURL string, aliasLength int, cacheTTL time.Duration) *ShortenerService {
	return &ShortenerService{
		urls:        urls,
		users:       users,
		gen:         gen,
		cache:       cache,
		baseURL:     strings.TrimRight(baseURL, "/"),
		aliasLength: aliasLength,
		cacheTTL:    cacheTTL,
	}
}

// Shorten allocates an alias for a long URL and persists the record.
// A custom alias that collides with a live record fails with ErrAliasTaken;
// an alias whose only record is expired is overwritten. The expiry tier is
// resolved from the user state at call time.
func (s *ShortenerService) Shorten(ctx context.Context, req *model.CreateURLRequest) (*model.ShortenedURL, error) {
	if req == nil || strings.TrimSpace(req.LongURL) == "" {
		return nil, ErrInvalidRequest
	}

	alias := req.Alias
	if alias == "" {
		var err error
		alias, err = s.gen.Generate(s.aliasLength)
		if err != nil {
			return nil, fmt.Errorf("generate alias: %w", err)
		}
	}

	now := time.Now().UTC()

	var user *model.User
	if req.UserID != nil {
		var err error
		user, err = s.users.GetByID(ctx, *req.UserID)
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		// A userId that resolves to nothing is tolerated: the link is
		// created with the anonymous expiry tier.
	}

	u := &model.ShortenedURL{
		ID:        uuid.NewString(),
		LongURL:   req.LongURL,
		Alias:     alias,
		ShortURL:  s.baseURL + "/" + alias,
		UserID:    req.UserID,
		CreatedAt: now,
		ExpiresAt: ResolveExpiry(user, now),
	}

	if err := s.urls.UpsertLive(ctx, u); err != nil {
		return nil, err
	}

	if s.cache != nil {
		// Drop any stale mapping left by an expired record with this alias.
		if err := s.cache.Delete(ctx, alias); err != nil {
			log.Warn().Err(err).Str("alias", alias).Msg("cache invalidation failed")
		}
	}

	return u, nil
}

// Resolve returns the long URL for a live alias and bumps the click counter.
// Returns ErrURLNotFound when no live record exists.
func (s *ShortenerService) Resolve(ctx context.Context, alias string) (string, error) {
	if alias == "" {
		return "", ErrInvalidRequest
	}

	if s.cache != nil {
		longURL, hit, err := s.cache.Get(ctx, alias)
		if err != nil {
			log.Warn().Err(err).Str("alias", alias).Msg("cache read failed, falling back to database")
		} else if hit {
			s.countClick(ctx, alias)
			return longURL, nil
		}
	}

	u, err := s.urls.GetLiveByAlias(ctx, alias)
	if err != nil {
		return "", fmt.Errorf("resolve alias: %w", err)
	}
	if u == nil {
		return "", ErrURLNotFound
	}

	if s.cache != nil {
		ttl := s.cacheTTL
		if u.ExpiresAt != nil {
			if until := time.Until(*u.ExpiresAt); until < ttl {
				ttl = until
			}
		}
		if ttl > 0 {
			if err := s.cache.Set(ctx, alias, u.LongURL, ttl); err != nil {
				log.Warn().Err(err).Str("alias", alias).Msg("cache write failed")
			}
		}
	}

	s.countClick(ctx, alias)
	return u.LongURL, nil
}

func (s *ShortenerService) countClick(ctx context.Context, alias string) {
	if err := s.urls.IncrementClicks(ctx, alias); err != nil {
		log.Warn().Err(err).Str("alias", alias).Msg("click count update failed")
	}
}

// ListByUser returns all links owned by a user, newest first.
func (s *ShortenerService) ListByUser(ctx context.Context, userID string) ([]model.ShortenedURL, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	return s.urls.ListByUser(ctx, userID)
}

// ExtendExpiry sets a new expiry on every listed link. Idempotent: repeating
// the call with the same arguments leaves the same final state.
func (s *ShortenerService) ExtendExpiry(ctx context.Context, req *model.ExtendExpiryRequest) error {
	if req == nil || len(req.URLIDs) == 0 {
		return ErrInvalidRequest
	}
	return s.urls.SetExpiry(ctx, req.URLIDs, req.NewExpiresAt)
}

// Delete removes a link. Non-admin actors must own the link.
func (s *ShortenerService) Delete(ctx context.Context, id, actorUserID string, isAdmin bool) error {
	u, err := s.urls.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load url: %w", err)
	}
	if u == nil {
		return ErrURLNotFound
	}
	if !isAdmin {
		if u.UserID == nil || actorUserID == "" || *u.UserID != actorUserID {
			return ErrForbidden
		}
	}

	if err := s.urls.Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, u.Alias); err != nil {
			log.Warn().Err(err).Str("alias", u.Alias).Msg("cache invalidation failed")
		}
	}
	return nil
}
