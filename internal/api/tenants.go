package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zuoweichuan/sounder-saas/internal/tenant"
)

// handleGetTenant returns the caller's tenant.
func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, id.Tenant)
}

// updateTenantRequest is the request body for PUT /tenants/current.
type updateTenantRequest struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
}

// handleUpdateTenant updates the tenant profile. Admin only.
func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req updateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" || req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "name and company_name are required")
		return
	}

	tnt := *id.Tenant
	tnt.Name = req.Name
	tnt.CompanyName = req.CompanyName

	if err := s.tenants.Update(r.Context(), &tnt); err != nil {
		s.logger.Error("updating tenant failed", "error", err, "tenant_id", tnt.ID)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, &tnt)
}

// handleSubscriptionPlans returns the public plan catalogue.
func (s *Server) handleSubscriptionPlans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"plans": tenant.SubscriptionPlans(),
	})
}

// updateSubscriptionRequest is the request body for PUT /tenants/subscription.
type updateSubscriptionRequest struct {
	Plan string `json:"plan"`
}

// handleUpdateSubscription changes the tenant's subscription plan. Admin only.
// Billing is out of scope; the plan change takes effect immediately.
func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req updateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	plan := tenant.Plan(req.Plan)
	if err := s.tenants.UpdatePlan(r.Context(), id.Tenant.ID, plan); err != nil {
		switch {
		case errors.Is(err, tenant.ErrInvalidPlan):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "unknown subscription plan")
		case errors.Is(err, tenant.ErrTenantNotFound):
			writeNotFound(w, "tenant not found")
		default:
			s.logger.Error("updating subscription failed", "error", err, "tenant_id", id.Tenant.ID)
			writeInternalError(w, "internal server error")
		}
		return
	}

	s.logger.Info("subscription plan changed", "tenant_id", id.Tenant.ID, "plan", plan)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"plan":    plan,
	})
}
