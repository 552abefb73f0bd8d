package auth

import (
	"errors"
	"regexp"
	"time"
)

// emailPattern is a pragmatic format check, not a full RFC 5322 parser.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsValidEmail checks if an email address meets format requirements.
func IsValidEmail(email string) bool {
	return len(email) <= 254 && emailPattern.MatchString(email)
}

// Role represents a user's permission tier within their tenant.
type Role string

const (
	// RoleAdmin can mutate the tenant itself: profile edits and
	// subscription changes. The first user of a new tenant is always admin.
	RoleAdmin Role = "admin"

	// RoleMember can manage and control devices but not the tenant.
	RoleMember Role = "member"
)

// IsValidRole returns true if the role is a recognised user role.
func IsValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleMember
}

// User represents an authenticated account. Every user belongs to exactly
// one tenant; the email is unique across all tenants.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrEmailExists        = errors.New("auth: email already registered")
	ErrInvalidUser        = errors.New("auth: invalid user")
	ErrTokenInvalid       = errors.New("auth: invalid token")
)
