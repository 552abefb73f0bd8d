// Package api provides the HTTP REST API and WebSocket event stream for the
// Sounder control plane.
//
// Every protected request passes through the auth middleware, which verifies
// the bearer token and re-resolves the user and tenant from the database.
// Handlers read the tenant exclusively from the resolved request identity,
// never from a path or body parameter, so tenant isolation is enforced at a
// single chokepoint.
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
