package tenant

import (
	"errors"
	"time"
)

// Plan represents a subscription tier.
type Plan string

const (
	PlanBasic    Plan = "basic"
	PlanStandard Plan = "standard"
	PlanPremium  Plan = "premium"
)

// ValidPlans is the set of selectable subscription plans.
var ValidPlans = []Plan{PlanBasic, PlanStandard, PlanPremium}

// IsValidPlan returns true if the plan is a recognised subscription tier.
func IsValidPlan(p Plan) bool {
	for _, v := range ValidPlans {
		if p == v {
			return true
		}
	}
	return false
}

// Status represents a tenant's lifecycle state. Only active tenants may
// make authenticated requests; the auth middleware re-checks this on every
// request, so suspending a tenant takes effect immediately regardless of
// outstanding tokens.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
)

// IsValidStatus returns true if the status is a recognised tenant state.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// Tenant represents an isolated customer organisation. Tenants own users
// and devices; nothing crosses the tenant boundary.
type Tenant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name"`
	Plan        Plan      `json:"subscription_plan"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActive returns true if the tenant may make authenticated requests.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Sentinel errors for tenant operations.
var (
	ErrTenantNotFound = errors.New("tenant: not found")
	ErrInvalidTenant  = errors.New("tenant: invalid")
	ErrInvalidPlan    = errors.New("tenant: invalid subscription plan")
)
