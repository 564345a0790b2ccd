// Package plans holds subscription limits and quota checks.
package plans

import (
	"errors"
	"fmt"

	"github.com/zaplinker/backend/internal/models"
)

// Unlimited marks a limit that is never reached.
const Unlimited = -1

// ErrLimitReached is wrapped by every quota error.
var ErrLimitReached = errors.New("plan limit reached")

// Limits are the quotas attached to a plan.
type Limits struct {
	Plan                   models.Plan `json:"plan"`
	MaxWorkspaces          int         `json:"maxWorkspaces"`
	MaxNumbersPerWorkspace int         `json:"maxNumbersPerWorkspace"`
	APITokens              bool        `json:"apiTokens"`
}

var table = map[models.Plan]Limits{
	models.PlanFree:    {Plan: models.PlanFree, MaxWorkspaces: 10, MaxNumbersPerWorkspace: 5},
	models.PlanPro:     {Plan: models.PlanPro, MaxWorkspaces: 100, MaxNumbersPerWorkspace: 50},
	models.PlanPremium: {Plan: models.PlanPremium, MaxWorkspaces: Unlimited, MaxNumbersPerWorkspace: Unlimited, APITokens: true},
}

// For returns the limits of plan. Unknown plans get the free limits.
func For(plan models.Plan) Limits {
	if l, ok := table[plan]; ok {
		return l
	}
	return table[models.PlanFree]
}

func within(limit int, current int64) bool {
	return limit == Unlimited || current < int64(limit)
}

// CheckWorkspaceQuota fails when a user already owns the maximum number of workspaces.
func CheckWorkspaceQuota(plan models.Plan, current int64) error {
	l := For(plan)
	if within(l.MaxWorkspaces, current) {
		return nil
	}
	return fmt.Errorf("%w: the %s plan allows %d workspaces", ErrLimitReached, l.Plan, l.MaxWorkspaces)
}

// CheckNumberQuota fails when a workspace already holds the maximum number of numbers.
func CheckNumberQuota(plan models.Plan, current int64) error {
	l := For(plan)
	if within(l.MaxNumbersPerWorkspace, current) {
		return nil
	}
	return fmt.Errorf("%w: the %s plan allows %d numbers per workspace", ErrLimitReached, l.Plan, l.MaxNumbersPerWorkspace)
}

// AllowsAPITokens reports whether the plan may mint API tokens.
func AllowsAPITokens(plan models.Plan) bool {
	return For(plan).APITokens
}
