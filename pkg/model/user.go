package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

type UserID string

// Tier is the subscription level supplied by the auth provider.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
	TierBeta Tier = "beta"
)

// Validate checks if the tier is valid
func (t Tier) Validate() error {
	switch t {
	case TierFree, TierPaid, TierBeta:
		return nil
	default:
		return goerr.Wrap(ErrInvalidTier, "unknown tier", goerr.V("tier", t))
	}
}

type User struct {
	ID          UserID    `firestore:"id" yaml:"id"`
	DisplayName string    `firestore:"displayName" yaml:"display_name"`
	Tier        Tier      `firestore:"tier" yaml:"tier"`
	UpdatedAt   time.Time `firestore:"updatedAt" yaml:"updated_at"`
}

// NewGuest returns a free-tier user for identities unknown to the store.
func NewGuest(id UserID) *User {
	return &User{
		ID:          id,
		DisplayName: string(id),
		Tier:        TierFree,
	}
}

// RateLimitRecord is the per-user daily usage counter. Date uses the
// YYYY-MM-DD layout and the window tumbles at midnight.
type RateLimitRecord struct {
	UserID UserID `firestore:"userId" yaml:"user_id"`
	Count  int    `firestore:"count" yaml:"count"`
	Date   string `firestore:"date" yaml:"date"`
}

const DateLayout = "2006-01-02"

// Today formats now as a rate limit date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// ResetIfStale zeroes the counter when it belongs to another day.
func (r *RateLimitRecord) ResetIfStale(today string) {
	if r.Date != today {
		r.Count = 0
		r.Date = today
	}
}
