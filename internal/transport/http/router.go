// Package httptransport assembles the HTTP surface: shared middleware,
// operational endpoints and the domain handlers.
package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	passwordhandler "pwreset/internal/password/handler"
	"pwreset/internal/platform/metrics"
	"pwreset/internal/platform/middleware"
	ratelimit "pwreset/internal/ratelimit/middleware"
	"pwreset/internal/ratelimit/models"
	"pwreset/internal/resettoken"
	dErrors "pwreset/pkg/domain-errors"
	audit "pwreset/pkg/platform/audit"
	"pwreset/pkg/platform/audit/publisher"
	"pwreset/pkg/platform/httputil"
	"pwreset/pkg/platform/middleware/admin"
	"pwreset/pkg/platform/middleware/device"
	"pwreset/pkg/platform/middleware/metadata"
	"pwreset/pkg/platform/middleware/request"
	"pwreset/pkg/platform/middleware/requesttime"
)

// Deps are the components the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Password       *passwordhandler.Handler
	Tokens         *resettoken.Handler
	TokenValidator middleware.ResetTokenValidator
	// TrustedProxies may set the client address through forwarding headers.
	// Empty means the connecting peer is the client.
	TrustedProxies metadata.TrustedProxies
	// RateLimiter is optional; nil leaves every route unlimited.
	RateLimiter *ratelimit.Middleware
	// AdminToken enables the admin endpoints when non-empty.
	AdminToken string
	AuditLog   AuditLog
	// Checks back /readyz, keyed by dependency name.
	Checks map[string]func(context.Context) error
}

// AuditLog reads back audit events for a subject.
type AuditLog interface {
	List(ctx context.Context, subject string) ([]audit.Event, error)
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata(d.TrustedProxies))
	r.Use(device.Middleware)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no such endpoint"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error:       "method_not_allowed",
			Description: r.Method + " is not supported on " + r.URL.Path,
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(d.Checks, d.Logger))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		limit(r, d.RateLimiter, models.ClassEvaluate)
		d.Password.Register(r)
	})
	r.Group(func(r chi.Router) {
		limit(r, d.RateLimiter, models.ClassReset)
		r.Use(middleware.RequireResetToken(d.TokenValidator, d.Logger))
		d.Password.RegisterReset(r)
	})

	if d.AdminToken != "" {
		r.Group(func(r chi.Router) {
			limit(r, d.RateLimiter, models.ClassAdmin)
			r.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
			if d.Tokens != nil {
				d.Tokens.Register(r)
			}
			if d.AuditLog != nil {
				r.Get("/admin/audit/{subject}", listAudit(d.AuditLog, d.Logger))
			}
		})
	}
	return r
}

func limit(r chi.Router, rl *ratelimit.Middleware, class models.EndpointClass) {
	if rl != nil {
		r.Use(rl.RateLimit(class))
	}
}

// readiness reports each dependency check; any failure is a 503.
func readiness(checks map[string]func(context.Context) error, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{}
		for _, name := range names {
			if err := checks[name](r.Context()); err != nil {
				logger.WarnContext(r.Context(), "readiness check failed", "dependency", name, "error", err)
				body[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}

func listAudit(log AuditLog, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := chi.URLParam(r, "subject")
		events, err := log.List(r.Context(), subject)
		if errors.Is(err, publisher.ErrListUnsupported) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit listing is not available for this store"))
			return
		}
		if err != nil {
			logger.ErrorContext(r.Context(), "failed to list audit events",
				"subject", subject,
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
			return
		}
		if events == nil {
			events = []audit.Event{}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"subject": subject, "events": events})
	}
}
