package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"pwreset/internal/password"
	"pwreset/internal/password/metrics"
	"pwreset/internal/password/ports"
	dErrors "pwreset/pkg/domain-errors"
	audit "pwreset/pkg/platform/audit"
	"pwreset/pkg/platform/middleware/device"
	"pwreset/pkg/requestcontext"
	"pwreset/pkg/secrets"
)

// User-facing messages, shown next to the offending field.
const (
	MsgEnterPassword    = "Enter your password"
	MsgWeakPassword     = "Your password must meet the requirements below"
	MsgPasswordMismatch = "Passwords do not match."
	MsgPasswordTooLong  = "Your password is too long to store"
	MsgTokenUsed        = "This reset link has already been used"
)

// Request fields referenced by validation errors.
const (
	FieldNewPassword     = "new_password"
	FieldConfirmPassword = "confirm_password"
)

// Reset outcomes, used as metric labels.
const (
	outcomeAccepted = "accepted"
	outcomeEmpty    = "empty"
	outcomeWeak     = "weak"
	outcomeMismatch = "mismatch"
	outcomeTooLong  = "too_long"
	outcomeReused   = "token_reused"
	outcomeError    = "error"
)

// consumedTokenRetention outlives the longest reset token lifetime.
const consumedTokenRetention = 24 * time.Hour

// PolicyEngine is the pure evaluation contract the service re-checks at
// submit time.
type PolicyEngine interface {
	Evaluate(password string) password.Result
	EvaluateMatch(password, confirmation string) password.MatchResult
	Describe() password.Description
}

// ResetRequest is a password change submission.
type ResetRequest struct {
	Subject         string
	TokenID         string
	NewPassword     string
	ConfirmPassword string
}

// ResetResult describes an accepted password change.
type ResetResult struct {
	Subject   string
	ChangedAt time.Time
	Satisfied int
}

// WeakPasswordError carries the failing evaluation so transports can render
// the checklist next to the error.
type WeakPasswordError struct {
	Result password.Result
}

func (e *WeakPasswordError) Error() string {
	return "password does not meet the policy threshold"
}

// Service is the submission handler: it never trusts live feedback and
// re-evaluates everything before handing a hash to the credential port.
type Service struct {
	engine      PolicyEngine
	credentials ports.CredentialWriter
	ledger      ports.TokenLedger
	auditor     ports.AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	hashCost    int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithTokenLedger makes each reset token usable for one successful reset.
func WithTokenLedger(l ports.TokenLedger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithHashCost sets the bcrypt cost for accepted passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// New constructs a Service.
func New(engine PolicyEngine, credentials ports.CredentialWriter, opts ...Option) (*Service, error) {
	if engine == nil {
		return nil, errors.New("password engine is required")
	}
	if credentials == nil {
		return nil, errors.New("credential writer is required")
	}
	s := &Service{
		engine:      engine,
		credentials: credentials,
		logger:      slog.New(slog.DiscardHandler),
		tracer:      otel.Tracer("pwreset/internal/password/service"),
		hashCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Evaluate runs the policy engine for live feedback.
func (s *Service) Evaluate(ctx context.Context, pw string) password.Result {
	_, span := s.tracer.Start(ctx, "password.Evaluate")
	defer span.End()

	res := s.engine.Evaluate(pw)
	span.SetAttributes(
		attribute.Int("password.satisfied", res.Satisfied()),
		attribute.Bool("password.passed", res.Passed()),
	)
	s.metrics.IncrementEvaluation(res.Passed(), unmetNames(res))
	return res
}

// Match compares a confirmation with the password.
func (s *Service) Match(ctx context.Context, pw, confirmation string) password.MatchResult {
	_, span := s.tracer.Start(ctx, "password.Match")
	defer span.End()

	m := s.engine.EvaluateMatch(pw, confirmation)
	span.SetAttributes(attribute.Bool("password.matches", m.Matches))
	return m
}

// Policy returns the user-facing policy text.
func (s *Service) Policy() password.Description {
	return s.engine.Describe()
}

// Reset validates a submission and stores the new password hash.
func (s *Service) Reset(ctx context.Context, req ResetRequest) (*ResetResult, error) {
	start := time.Now()
	defer s.metrics.ObserveResetLatency(start)

	ctx, span := s.tracer.Start(ctx, "password.Reset")
	defer span.End()
	requestID := requestcontext.RequestID(ctx)

	if req.Subject == "" {
		return nil, s.fail(span, outcomeError, dErrors.New(dErrors.CodeUnauthorized, "reset subject is required"))
	}

	if req.NewPassword == "" {
		s.emit(ctx, req, audit.ActionPasswordRejected, outcomeEmpty)
		return nil, s.fail(span, outcomeEmpty,
			dErrors.NewField(dErrors.CodeValidation, FieldNewPassword, MsgEnterPassword))
	}

	res := s.engine.Evaluate(req.NewPassword)
	if !res.Passed() {
		s.logger.InfoContext(ctx, "password reset rejected",
			"request_id", requestID,
			"subject", req.Subject,
			"reason", outcomeWeak,
			"satisfied", res.Satisfied(),
		)
		s.emit(ctx, req, audit.ActionPasswordRejected, outcomeWeak)
		return nil, s.fail(span, outcomeWeak, &dErrors.Error{
			Code:    dErrors.CodeValidation,
			Field:   FieldNewPassword,
			Message: MsgWeakPassword,
			Err:     &WeakPasswordError{Result: res},
		})
	}

	if !s.engine.EvaluateMatch(req.NewPassword, req.ConfirmPassword).Matches {
		s.logger.InfoContext(ctx, "password reset rejected",
			"request_id", requestID,
			"subject", req.Subject,
			"reason", outcomeMismatch,
		)
		s.emit(ctx, req, audit.ActionPasswordRejected, outcomeMismatch)
		return nil, s.fail(span, outcomeMismatch,
			dErrors.NewField(dErrors.CodeValidation, FieldConfirmPassword, MsgPasswordMismatch))
	}

	hash, err := secrets.Hash(req.NewPassword, s.hashCost)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			s.emit(ctx, req, audit.ActionPasswordRejected, outcomeTooLong)
			return nil, s.fail(span, outcomeTooLong,
				dErrors.NewField(dErrors.CodeValidation, FieldNewPassword, MsgPasswordTooLong))
		}
		return nil, s.fail(span, outcomeError, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password"))
	}

	consumed := false
	if s.ledger != nil && req.TokenID != "" {
		first, err := s.ledger.Consume(ctx, req.TokenID, consumedTokenRetention)
		if err != nil {
			return nil, s.fail(span, outcomeError, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record reset token use"))
		}
		if !first {
			s.logger.WarnContext(ctx, "reset token reused",
				"request_id", requestID,
				"subject", req.Subject,
				"token_id", req.TokenID,
			)
			s.emit(ctx, req, audit.ActionResetTokenReused, outcomeReused)
			return nil, s.fail(span, outcomeReused, dErrors.New(dErrors.CodeUnauthorized, MsgTokenUsed))
		}
		consumed = true
	}

	if err := s.credentials.SetPassword(ctx, req.Subject, hash); err != nil {
		s.logger.ErrorContext(ctx, "failed to store credential",
			"request_id", requestID,
			"subject", req.Subject,
			"error", err,
		)
		if consumed {
			s.release(ctx, req.TokenID)
		}
		return nil, s.fail(span, outcomeError, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential"))
	}

	s.metrics.IncrementReset(outcomeAccepted)
	s.emit(ctx, req, audit.ActionPasswordReset, "")
	s.logger.InfoContext(ctx, "password reset accepted",
		"request_id", requestID,
		"subject", req.Subject,
		"satisfied", res.Satisfied(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &ResetResult{
		Subject:   req.Subject,
		ChangedAt: requestcontext.Now(ctx),
		Satisfied: res.Satisfied(),
	}, nil
}

func (s *Service) fail(span trace.Span, outcome string, err error) error {
	s.metrics.IncrementReset(outcome)
	span.SetAttributes(attribute.String("password.reset.outcome", outcome))
	span.SetStatus(codes.Error, outcome)
	return err
}

// release returns the token to the ledger so the user can retry with the
// same link. The request context may already be cancelled, so a short
// detached deadline is used.
func (s *Service) release(ctx context.Context, tokenID string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.ledger.Release(rctx, tokenID); err != nil {
		s.logger.ErrorContext(ctx, "failed to release reset token",
			"request_id", requestcontext.RequestID(ctx),
			"token_id", tokenID,
			"error", err,
		)
	}
}

// emit records an audit event. Audit failures are logged and never change
// the outcome of the reset.
func (s *Service) emit(ctx context.Context, req ResetRequest, action audit.Action, reason string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Subject:   req.Subject,
		Action:    action,
		Reason:    reason,
		TokenID:   req.TokenID,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    device.GetDevice(ctx),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", action,
			"error", err,
		)
	}
}

func unmetNames(res password.Result) []string {
	unmet := res.Unmet()
	out := make([]string, len(unmet))
	for i, name := range unmet {
		out[i] = string(name)
	}
	return out
}
