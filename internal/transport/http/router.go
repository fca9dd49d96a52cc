// Package httptransport assembles the HTTP surface: shared middleware, the
// public, member and admin route groups, and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	clubhandler "sportclub/internal/club/handler"
	memberhandler "sportclub/internal/member/handler"
	"sportclub/internal/platform/metrics"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/httputil"
	"sportclub/pkg/platform/middleware/auth"
	"sportclub/pkg/platform/middleware/metadata"
	"sportclub/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// HealthCheck is one dependency checked by /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the collaborators the router mounts.
type Deps struct {
	Members  *memberhandler.Handler
	Clubs    *clubhandler.Handler
	Sessions auth.SessionValidator
	Metrics  *metrics.Metrics
	Health   []HealthCheck
	Logger   *slog.Logger

	// PublicLimit throttles the unauthenticated member endpoints. Nil disables it.
	PublicLimit func(http.Handler) http.Handler
}

// NewRouter wires every endpoint. Member routes require a bearer token and
// admin routes additionally require the admin role.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(d.Metrics.Middleware)

	r.Get("/health", healthHandler(d.Health, d.Logger))
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Group(func(r chi.Router) {
		if d.PublicLimit != nil {
			r.Use(d.PublicLimit)
		}
		d.Members.RegisterPublic(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.Sessions, d.Logger))
		d.Members.RegisterMember(r)
		d.Clubs.RegisterMember(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(id.RoleAdmin, d.Logger))
			d.Members.RegisterAdmin(r)
			d.Clubs.RegisterAdmin(r)
		})
	})
	return r
}

func healthHandler(checks []HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed", "dependency", c.Name, "error", err)
				results[c.Name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[c.Name] = "up"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":       state,
			"dependencies": results,
		})
	}
}
