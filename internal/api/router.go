package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds component probes in the health handler.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/health", s.handleHealth)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/tenants/subscription-plans", s.handleSubscriptionPlans)

		// Event stream (auth via single-use ticket, validated in handler)
		r.Get("/events", s.handleEvents)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/refresh-token", s.handleRefreshToken)
			r.Post("/events/ticket", s.handleEventTicket)

			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", s.handleGetProfile)
				r.Put("/profile", s.handleUpdateProfile)
			})

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Put("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Post("/control", s.handleControlDevice)
				})
			})

			r.Route("/tenants", func(r chi.Router) {
				r.Get("/current", s.handleGetTenant)

				// Tenant mutations are admin-only.
				r.Group(func(r chi.Router) {
					r.Use(s.requireAdmin)
					r.Put("/current", s.handleUpdateTenant)
					r.Put("/subscription", s.handleUpdateSubscription)
				})
			})
		})
	})

	return r
}

// handleHealth returns the server health status including the state of the
// optional backing components.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := map[string]string{}
	healthy := true

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			components["database"] = "unhealthy"
			healthy = false
		} else {
			components["database"] = "ok"
		}
	}

	if s.mqtt != nil {
		if err := s.mqtt.HealthCheck(ctx); err != nil {
			components["mqtt"] = "unhealthy"
		} else {
			components["mqtt"] = "ok"
		}
	}

	if s.influx != nil {
		if err := s.influx.HealthCheck(ctx); err != nil {
			components["influxdb"] = "unhealthy"
		} else {
			components["influxdb"] = "ok"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}
