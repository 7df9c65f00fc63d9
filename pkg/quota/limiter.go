package quota

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/policy"
	"github.com/snaptheplant/fieldguide/pkg/repository"
	"github.com/snaptheplant/fieldguide/pkg/utils/logging"
)

// Status is the outcome of a quota evaluation
type Status struct {
	Allowed   bool
	Bypass    bool
	Count     int
	Limit     int
	Remaining int
	Date      string
}

// Limiter enforces the daily cap on vision analyses. The window tumbles at
// midnight of the limiter clock. It is an anti-abuse measure, not billing.
type Limiter struct {
	repo   repository.QuotaRepository
	policy policy.QuotaPolicy
	now    func() time.Time
}

// Option configures a Limiter
type Option func(*Limiter)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a Limiter
func New(repo repository.QuotaRepository, p policy.QuotaPolicy, opts ...Option) *Limiter {
	l := &Limiter{
		repo:   repo,
		policy: p,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newStatus(record *model.RateLimitRecord, limit int) *Status {
	return &Status{
		Allowed:   record.Count < limit,
		Count:     record.Count,
		Limit:     limit,
		Remaining: max(limit-record.Count, 0),
		Date:      record.Date,
	}
}

// Check reports whether the next call of user would be permitted without
// consuming anything.
func (l *Limiter) Check(ctx context.Context, user *model.User) (*Status, error) {
	decision, err := l.policy.Decide(ctx, user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decide quota", goerr.V("user_id", user.ID))
	}
	if decision.Bypass {
		return &Status{Allowed: true, Bypass: true}, nil
	}

	record, err := l.repo.GetQuota(ctx, user.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read quota", goerr.V("user_id", user.ID))
	}
	record.ResetIfStale(model.Today(l.now()))

	return newStatus(record, decision.DailyLimit), nil
}

// Acquire consumes one call for user. The counter is persisted before
// Acquire returns, so a call that crashes afterwards still counts. A denied
// call returns ErrQuotaExceeded and changes nothing.
func (l *Limiter) Acquire(ctx context.Context, user *model.User) (*Status, error) {
	decision, err := l.policy.Decide(ctx, user)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decide quota", goerr.V("user_id", user.ID))
	}
	if decision.Bypass {
		logging.From(ctx).Debug("quota bypassed", "user_id", user.ID, "tier", user.Tier)
		return &Status{Allowed: true, Bypass: true}, nil
	}

	today := model.Today(l.now())
	limit := decision.DailyLimit

	record, err := l.repo.UpdateQuota(ctx, user.ID, func(r *model.RateLimitRecord) error {
		r.ResetIfStale(today)
		if r.Count >= limit {
			return goerr.Wrap(model.ErrQuotaExceeded, "daily limit reached",
				goerr.V("count", r.Count),
				goerr.V("limit", limit))
		}
		r.Count++
		return nil
	})
	if err != nil {
		return nil, err
	}

	status := newStatus(record, limit)
	status.Allowed = true
	return status, nil
}
