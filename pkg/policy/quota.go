package policy

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/snaptheplant/fieldguide/pkg/model"
)

// DefaultDailyLimit applies when a policy does not define daily_limit
const DefaultDailyLimit = 15

// Decision tells the rate limiter how to treat one user
type Decision struct {
	// Bypass exempts the user from the daily cap entirely
	Bypass     bool
	DailyLimit int
}

// QuotaPolicy decides the daily cap of a user
type QuotaPolicy interface {
	Decide(ctx context.Context, user *model.User) (*Decision, error)
}

// Quota evaluates data.quota of a Rego policy with input {user_id, tier}
type Quota struct {
	query *rego.PreparedEvalQuery
}

var _ QuotaPolicy = (*Quota)(nil)

// NewQuota loads the quota policy from policyDir, or the embedded default
// when policyDir is empty.
func NewQuota(ctx context.Context, policyDir string) (*Quota, error) {
	modules, err := loadModules(policyDir)
	if err != nil {
		return nil, err
	}

	query, err := prepareQuery(ctx, modules, "data.quota")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare quota policy", goerr.V("dir", policyDir))
	}

	return &Quota{query: query}, nil
}

func (q *Quota) Decide(ctx context.Context, user *model.User) (*Decision, error) {
	input := map[string]any{
		"user_id": string(user.ID),
		"tier":    string(user.Tier),
	}

	rs, err := q.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate quota policy", goerr.V("user_id", user.ID))
	}

	decision := &Decision{DailyLimit: DefaultDailyLimit}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return decision, nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, goerr.New("invalid quota policy result", goerr.V("value", rs[0].Expressions[0].Value))
	}

	if v, ok := data["bypass"].(bool); ok {
		decision.Bypass = v
	}
	if v, ok := data["daily_limit"]; ok {
		limit, err := toInt(v)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid daily_limit in quota policy", goerr.V("value", v))
		}
		if limit < 0 {
			return nil, goerr.New("daily_limit must not be negative", goerr.V("value", limit))
		}
		decision.DailyLimit = limit
	}

	return decision, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, goerr.Wrap(err, "daily_limit is not an integer")
		}
		return int(i), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, goerr.New("daily_limit is not a number", goerr.V("type", n))
	}
}

// Fixed applies the same limit to every user and never bypasses
type Fixed int

var _ QuotaPolicy = Fixed(0)

func (f Fixed) Decide(ctx context.Context, user *model.User) (*Decision, error) {
	return &Decision{DailyLimit: int(f)}, nil
}
