package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pwreset/internal/password"
	"pwreset/internal/password/service"
	dErrors "pwreset/pkg/domain-errors"
	"pwreset/pkg/platform/httputil"
	"pwreset/pkg/requestcontext"
)

// Service defines the password operations exposed over HTTP.
type Service interface {
	Evaluate(ctx context.Context, pw string) password.Result
	Match(ctx context.Context, pw, confirmation string) password.MatchResult
	Policy() password.Description
	Reset(ctx context.Context, req service.ResetRequest) (*service.ResetResult, error)
}

// Handler wires password endpoints to the password service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a password handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the unauthenticated feedback endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/password/policy", h.HandlePolicy)
	r.Post("/password/evaluate", h.HandleEvaluate)
	r.Post("/password/match", h.HandleMatch)
}

// RegisterReset mounts the reset submission. The caller wraps r with the
// reset token middleware.
func (h *Handler) RegisterReset(r chi.Router) {
	r.Post("/password/reset", h.HandleReset)
}

// HandlePolicy handles GET /password/policy.
func (h *Handler) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	desc := h.service.Policy()
	httputil.WriteJSON(w, http.StatusOK, &PolicyResponse{Headline: desc.Headline, Items: desc.Items})
}

// HandleEvaluate handles POST /password/evaluate requests.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResult(h.service.Evaluate(ctx, req.Password)))
}

// HandleMatch handles POST /password/match requests.
func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.service.Match(ctx, req.Password, req.Confirmation))
}

// HandleReset handles POST /password/reset requests.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	subject := requestcontext.Subject(ctx)
	if subject == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "reset token required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ResetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Reset(ctx, service.ResetRequest{
		Subject:         subject,
		TokenID:         requestcontext.TokenID(ctx),
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.writeResetError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "password reset completed",
		"request_id", requestID,
		"subject", subject,
		"token_id", requestcontext.TokenID(ctx),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResetResult(result))
}

func (h *Handler) writeResetError(ctx context.Context, w http.ResponseWriter, err error) {
	var weak *service.WeakPasswordError
	if errors.As(err, &weak) {
		status, body := httputil.ErrorBody(err)
		httputil.WriteJSON(w, status, &WeakPasswordResponse{
			ErrorResponse: body,
			Checklist:     FromResult(weak.Result),
		})
		return
	}

	if !dErrors.HasCode(err, dErrors.CodeValidation) {
		h.logger.ErrorContext(ctx, "password reset failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject", requestcontext.Subject(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
