package api

import (
	"encoding/json"
	"net/http"

	"github.com/zuoweichuan/sounder-saas/internal/auth"
)

// handleGetProfile returns the authenticated user's profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, id.User)
}

// updateProfileRequest is the request body for PUT /users/profile.
// Email is immutable; a new password is optional.
type updateProfileRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// handleUpdateProfile updates the authenticated user's name and, when
// provided, their password.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		writeUnauthorized(w, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "name is required")
		return
	}
	if req.Password != "" && len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "password must be at least 8 characters")
		return
	}

	user := *id.User
	user.Name = req.Name
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.logger.Error("hashing profile password failed", "error", err, "user_id", user.ID)
			writeInternalError(w, "internal server error")
			return
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(r.Context(), &user); err != nil {
		s.logger.Error("updating profile failed", "error", err, "user_id", user.ID)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, &user)
}
