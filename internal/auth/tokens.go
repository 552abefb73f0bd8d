package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// defaultTokenTTL is used when no TTL is configured.
const defaultTokenTTL = time.Hour

// Claims extends JWT standard claims with the tenant binding.
// Subject carries the user ID; TenantID carries the owning tenant.
//
// Tenant status is NOT captured here: the auth middleware re-loads the
// tenant on every request, so tokens issued before a suspension stop
// working immediately.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	TenantID string `json:"tid"`
}

// TokenService issues and verifies signed access tokens.
//
// Verification is signature-only (no database hit); resolving the claims
// to a live user and tenant is the middleware's job.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service with the given signing secret
// and token lifetime. A non-positive ttl falls back to one hour.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed HS256 token binding a user to their tenant.
func (s *TokenService) Issue(userID, email, tenantID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
		Email:    email,
		TenantID: tenantID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates and parses an access token, returning its claims.
// It checks the signature, expiry, and required fields, and fails with
// ErrTokenInvalid on any violation (including expiry).
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	if claims.TenantID == "" {
		return nil, fmt.Errorf("%w: missing tenant", ErrTokenInvalid)
	}

	return claims, nil
}

// Refresh re-issues a token from previously verified claims without
// re-checking credentials. Calling refresh before each expiry extends the
// session indefinitely; this sliding-session behaviour is intentional.
// The per-request tenant status check still cuts off suspended tenants.
func (s *TokenService) Refresh(claims *Claims) (string, error) {
	return s.Issue(claims.Subject, claims.Email, claims.TenantID)
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
