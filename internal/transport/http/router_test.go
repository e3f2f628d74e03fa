package httptransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"pwreset/internal/password"
	"pwreset/internal/password/adapters"
	passwordhandler "pwreset/internal/password/handler"
	passwordmetrics "pwreset/internal/password/metrics"
	"pwreset/internal/password/service"
	"pwreset/internal/platform/metrics"
	ratelimit "pwreset/internal/ratelimit/middleware"
	"pwreset/internal/ratelimit/models"
	"pwreset/internal/ratelimit/store/bucket"
	"pwreset/internal/resettoken"
	audit "pwreset/pkg/platform/audit"
	"pwreset/pkg/platform/audit/publisher"
	auditmemory "pwreset/pkg/platform/audit/store/memory"
	"pwreset/pkg/platform/middleware/admin"
	"pwreset/pkg/platform/middleware/metadata"
	"pwreset/pkg/platform/middleware/request"
	"pwreset/pkg/testutil"
)

// =============================================================================
// Router Test Suite
// =============================================================================
// Drives the full middleware chain: admin issues a reset token, the bearer of
// that token resets the password.

const adminToken = "admin-secret"

type RouterSuite struct {
	suite.Suite
	router http.Handler
	store  *adapters.MemoryCredentials
	tokens *resettoken.Service
	audit  *auditmemory.InMemoryStore
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	reg := prometheus.NewRegistry()

	s.store = adapters.NewMemoryCredentials()
	s.tokens = resettoken.NewService("test-key", "pwreset", "pwreset")
	s.audit = auditmemory.NewInMemoryStore()
	auditor := publisher.NewPublisher(s.audit)

	svc, err := service.New(password.Default(), s.store,
		service.WithLogger(logger),
		service.WithTokenLedger(adapters.NewMemoryLedger()),
		service.WithAuditPublisher(auditor),
		service.WithMetrics(passwordmetrics.NewWithRegistry(reg)),
		service.WithHashCost(bcrypt.MinCost),
	)
	s.Require().NoError(err)

	s.router = NewRouter(Deps{
		Logger:         logger,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Password:       passwordhandler.New(svc, logger),
		Tokens:         resettoken.NewHandler(s.tokens, logger, resettoken.WithAuditPublisher(auditor)),
		TokenValidator: resettoken.NewMiddlewareAdapter(s.tokens),
		AdminToken:     adminToken,
		AuditLog:       auditor,
		Checks: map[string]func(context.Context) error{
			"credentials": func(context.Context) error { return nil },
		},
	})
}

func (s *RouterSuite) TestResetFlow() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/reset-tokens", resettoken.IssueRequest{Subject: "alice"})
	req.Header.Set(admin.HeaderAdminToken, adminToken)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	issued := testutil.UnmarshalResponse[resettoken.IssueResponse](s.T(), rr)

	s.Run("reset without token is unauthorized", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/password/reset",
			passwordhandler.ResetRequest{NewPassword: "12345678Aa!", ConfirmPassword: "12345678Aa!"})
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized, "unauthorized")
	})

	s.Run("reset with token succeeds", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/password/reset",
			passwordhandler.ResetRequest{NewPassword: "12345678Aa!", ConfirmPassword: "12345678Aa!"}), issued.Token)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		s.NotEmpty(rr.Header().Get(request.HeaderRequestID))

		resp := testutil.UnmarshalResponse[passwordhandler.ResetResponse](s.T(), rr)
		s.Equal("alice", resp.Subject)
		s.WithinDuration(time.Now(), resp.ChangedAt, time.Minute)

		ok, err := s.store.Verify(context.Background(), "alice", "12345678Aa!")
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("token cannot be used twice", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/password/reset",
			passwordhandler.ResetRequest{NewPassword: "87654321Bb?", ConfirmPassword: "87654321Bb?"}), issued.Token)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized, "unauthorized")

		ok, err := s.store.Verify(context.Background(), "alice", "12345678Aa!")
		s.Require().NoError(err)
		s.True(ok, "first password is kept")
	})

	s.Run("admin reads the audit trail", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/admin/audit/alice")
		req.Header.Set(admin.HeaderAdminToken, adminToken)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)

		resp := testutil.UnmarshalResponse[struct {
			Subject string        `json:"subject"`
			Events  []audit.Event `json:"events"`
		}](s.T(), rr)
		s.Equal("alice", resp.Subject)
		s.Require().Len(resp.Events, 3)
		s.Equal(audit.ActionResetTokenIssued, resp.Events[0].Action)
		s.Equal(audit.ActionPasswordReset, resp.Events[1].Action)
		s.Equal(audit.ActionResetTokenReused, resp.Events[2].Action)
	})
}

func (s *RouterSuite) TestAdminRequiresToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/reset-tokens", resettoken.IssueRequest{Subject: "alice"})
	testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized, "unauthorized")
}

func (s *RouterSuite) TestOperationalEndpoints() {
	s.Run("healthz", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "ok")
	})

	s.Run("readyz reports dependencies", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/readyz"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "credentials", "ok")
	})

	s.Run("metrics exposes evaluation counters", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/password/evaluate", passwordhandler.EvaluateRequest{Password: "abc"})
		testutil.DoRequest(s.router, req)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(s.T(), rr)
		body := rr.Body.String()
		s.Contains(body, "pwreset_password_evaluations_total")
		s.Contains(body, "pwreset_http_requests_total")
	})

	s.Run("unknown route is JSON 404", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/nope"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("wrong method is JSON 405", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/password/evaluate"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusMethodNotAllowed, "method_not_allowed")
	})
}

func (s *RouterSuite) TestReadinessFailure() {
	router := NewRouter(Deps{
		Logger:   slog.New(slog.DiscardHandler),
		Password: passwordhandler.New(nil, slog.New(slog.DiscardHandler)),
		Checks: map[string]func(context.Context) error{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		},
	})

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/readyz"))
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	testutil.AssertJSONContains(s.T(), rr, "redis", "unavailable")
}

func (s *RouterSuite) TestRateLimitedReset() {
	logger := slog.New(slog.DiscardHandler)
	limiter, err := ratelimit.New(bucket.NewInMemoryBucketStore(), logger,
		ratelimit.WithLimit(models.ClassReset, models.Limit{Requests: 1, Window: time.Minute}),
	)
	s.Require().NoError(err)

	router := NewRouter(Deps{
		Logger:         logger,
		Password:       passwordhandler.New(nil, logger),
		TokenValidator: resettoken.NewMiddlewareAdapter(s.tokens),
		RateLimiter:    limiter,
	})

	reset := func() int {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/password/reset",
			passwordhandler.ResetRequest{NewPassword: "x", ConfirmPassword: "x"})
		return testutil.DoRequest(router, req).Code
	}
	s.Equal(http.StatusUnauthorized, reset(), "first attempt reaches the token check")
	s.Equal(http.StatusTooManyRequests, reset())
}

func (s *RouterSuite) TestRateLimitIgnoresForwardedHeadersFromUntrustedPeers() {
	logger := slog.New(slog.DiscardHandler)
	newRouter := func(trusted metadata.TrustedProxies) http.Handler {
		limiter, err := ratelimit.New(bucket.NewInMemoryBucketStore(), logger,
			ratelimit.WithLimit(models.ClassReset, models.Limit{Requests: 1, Window: time.Minute}),
		)
		s.Require().NoError(err)
		return NewRouter(Deps{
			Logger:         logger,
			Password:       passwordhandler.New(nil, logger),
			TokenValidator: resettoken.NewMiddlewareAdapter(s.tokens),
			RateLimiter:    limiter,
			TrustedProxies: trusted,
		})
	}
	reset := func(router http.Handler, peer, forwardedFor string) int {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/password/reset",
			passwordhandler.ResetRequest{NewPassword: "x", ConfirmPassword: "x"})
		req.RemoteAddr = peer
		req.Header.Set("X-Forwarded-For", forwardedFor)
		return testutil.DoRequest(router, req).Code
	}

	s.Run("rotating the header does not reset the budget", func() {
		router := newRouter(nil)
		allowed := 0
		for i := range 20 {
			if reset(router, "192.0.2.50:4000", fmt.Sprintf("203.0.113.%d", i)) != http.StatusTooManyRequests {
				allowed++
			}
		}
		s.Equal(1, allowed)
	})

	s.Run("trusted proxy keeps clients apart", func() {
		trusted, err := metadata.ParseTrustedProxies([]string{"10.0.0.0/8"})
		s.Require().NoError(err)
		router := newRouter(trusted)

		s.Equal(http.StatusUnauthorized, reset(router, "10.0.0.2:4000", "203.0.113.1"))
		s.Equal(http.StatusUnauthorized, reset(router, "10.0.0.2:4000", "203.0.113.2"))
		s.Equal(http.StatusTooManyRequests, reset(router, "10.0.0.2:4000", "203.0.113.1"))
	})
}
