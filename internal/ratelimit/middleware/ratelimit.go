package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pwreset/internal/ratelimit/metrics"
	"pwreset/internal/ratelimit/models"
	"pwreset/pkg/platform/httputil"
	"pwreset/pkg/requestcontext"
)

// BucketStore counts requests per key in a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	store    BucketStore
	limits   map[models.EndpointClass]models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// WithLimit overrides the budget of one endpoint class.
func WithLimit(class models.EndpointClass, limit models.Limit) Option {
	return func(m *Middleware) {
		m.limits[class] = limit
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) (*Middleware, error) {
	m := &Middleware{
		store:  store,
		limits: models.DefaultLimits(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	for class, limit := range m.limits {
		if !class.IsValid() {
			return nil, fmt.Errorf("unknown endpoint class %q", class)
		}
		if err := limit.Validate(); err != nil {
			return nil, fmt.Errorf("rate limit %s: %w", class, err)
		}
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m, nil
}

// RateLimit limits requests per client IP for the endpoint class. A failing
// store lets the request through.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	limit := m.limits[class]
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)

			result, err := m.store.Allow(ctx, models.BucketKey(class, ip), limit.Requests, limit.Window)
			if err != nil {
				m.metrics.IncrementStoreError()
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"request_id", requestcontext.RequestID(ctx),
					"class", class,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)

			if !result.Allowed {
				m.metrics.IncrementRejection(string(class))
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"class", class,
					"client_ip", ip,
				)
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:       "rate_limit_exceeded",
		Description: "Too many requests from this IP address. Please try again later.",
		RetryAfter:  result.RetryAfter,
	})
}
