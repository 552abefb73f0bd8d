package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zuoweichuan/sounder-saas/internal/auth"
	"github.com/zuoweichuan/sounder-saas/internal/tenant"
)

// minPasswordLength is the minimum accepted password length.
const minPasswordLength = 8

// registerRequest is the request body for POST /auth/register.
type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

// sessionResponse is the response body for register, login and refresh.
// User and Tenant are omitted on refresh.
type sessionResponse struct {
	Token  string         `json:"token"`
	User   *auth.User     `json:"user,omitempty"`
	Tenant *tenant.Tenant `json:"tenant,omitempty"`
}

// handleRegister creates a new tenant with its first admin user.
//
// Every registration provisions a fresh tenant on the basic plan; inviting
// additional users into an existing tenant is a separate flow.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name == "" || req.Email == "" || req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "name, email and company_name are required")
		return
	}
	if !auth.IsValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "malformed email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "password must be at least 8 characters")
		return
	}

	// Reject duplicate email before creating the tenant so a failed
	// registration leaves no orphan tenant behind.
	if _, err := s.users.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "email is already registered")
		return
	} else if !errors.Is(err, auth.ErrUserNotFound) {
		s.logger.Error("checking registration email failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hashing registration password failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	tnt := &tenant.Tenant{
		Name:        req.CompanyName,
		CompanyName: req.CompanyName,
	}
	if err := s.tenants.Create(r.Context(), tnt); err != nil {
		s.logger.Error("creating registration tenant failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	user := &auth.User{
		TenantID:     tnt.ID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
	}
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "email is already registered")
			return
		}
		s.logger.Error("creating registration user failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email, tnt.ID)
	if err != nil {
		s.logger.Error("issuing registration token failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	s.logger.Info("tenant registered", "tenant_id", tnt.ID, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user, Tenant: tnt})
}

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin authenticates a user and returns an access token.
//
// Unknown email and wrong password produce the same 401 response so the
// endpoint cannot be used to probe which addresses are registered. An
// inactive tenant yields 403 even with valid credentials.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "email and password are required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "invalid email or password")
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("password verification failed", "error", err, "user_id", user.ID)
		writeInternalError(w, "internal server error")
		return
	}
	if !ok {
		writeUnauthorized(w, "invalid email or password")
		return
	}

	tnt, err := s.tenants.GetByID(r.Context(), user.TenantID)
	if err != nil {
		s.logger.Error("login tenant lookup failed", "error", err, "tenant_id", user.TenantID)
		writeInternalError(w, "internal server error")
		return
	}
	if !tnt.IsActive() {
		writeForbidden(w, "tenant account is "+string(tnt.Status))
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email, tnt.ID)
	if err != nil {
		s.logger.Error("issuing login token failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: user, Tenant: tnt})
}

// handleRefreshToken re-issues an access token for the authenticated caller.
//
// The auth middleware has already re-validated the user and tenant for this
// request, so refresh only needs to mint a fresh token.
func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	token, err := s.tokens.Issue(id.User.ID, id.User.Email, id.Tenant.ID)
	if err != nil {
		s.logger.Error("refreshing token failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: token})
}
