package service

import (
	"time"

	"github.com/quicklinkhq/quicklink/internal/model"
)

// Link lifetimes per account tier.
const (
	AnonymousLinkTTL  = 24 * time.Hour
	RegisteredLinkTTL = 7 * 24 * time.Hour
	SubscriberLinkTTL = 365 * 24 * time.Hour
)

// ResolveExpiry computes the expiry for a newly created link from the user
// state at call time. A nil user covers both anonymous requests and userIds
// that resolve to no record; the latter deliberately falls back to the
// anonymous tier instead of erroring. A nil result means the link is
// permanent. Pure function; persists nothing.
func ResolveExpiry(user *model.User, now time.Time) *time.Time {
	if user == nil {
		t := now.Add(AnonymousLinkTTL)
		return &t
	}
	if user.CanSetCustomExpiry {
		return nil
	}
	if user.HasActiveSubscription(now) {
		t := now.Add(SubscriberLinkTTL)
		return &t
	}
	t := now.Add(RegisteredLinkTTL)
	return &t
}
