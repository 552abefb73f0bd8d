// Package auth provides user accounts, password hashing, and JWT access
// tokens for the Sounder control plane.
//
// # Token model
//
// Access tokens are HS256 JWTs carrying {user id, email, tenant id} with a
// fixed lifetime (one hour by default). Tokens are stateless: there is no
// server-side session store. The refresh endpoint re-issues a token from
// verified claims, giving a sliding session for active clients.
//
// Tenant suspension is enforced per request by the API middleware, which
// re-loads the user and tenant for every call. A token therefore never
// outlives its tenant's active status.
//
// # Passwords
//
// Passwords are hashed with Argon2id and stored in PHC string format.
// Verification is constant-time.
package auth
