package resettoken

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "pwreset/pkg/domain-errors"
	audit "pwreset/pkg/platform/audit"
	"pwreset/pkg/platform/httputil"
	"pwreset/pkg/requestcontext"
)

// IssueRequest is the HTTP request body for POST /admin/reset-tokens.
type IssueRequest struct {
	Subject    string `json:"subject"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

func (r *IssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Subject = strings.TrimSpace(r.Subject)
	if r.Subject == "" {
		return dErrors.NewField(dErrors.CodeValidation, "subject", "subject is required")
	}
	if len(r.Subject) > 255 {
		return dErrors.NewField(dErrors.CodeValidation, "subject", "subject must be at most 255 characters")
	}
	if r.TTLSeconds < 0 || time.Duration(r.TTLSeconds)*time.Second > MaxTTL {
		return dErrors.NewField(dErrors.CodeValidation, "ttl_seconds", "ttl_seconds must be between 0 and 86400")
	}
	return nil
}

// IssueResponse is the HTTP response for POST /admin/reset-tokens.
type IssueResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuditPublisher records issued tokens.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Handler exposes reset token issuance to operators.
type Handler struct {
	service *Service
	logger  *slog.Logger
	auditor AuditPublisher
}

type HandlerOption func(*Handler)

func WithAuditPublisher(p AuditPublisher) HandlerOption {
	return func(h *Handler) {
		h.auditor = p
	}
}

func NewHandler(service *Service, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the issuance endpoint. The caller guards r with the admin
// token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/reset-tokens", h.HandleIssue)
}

// HandleIssue handles POST /admin/reset-tokens requests.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	issued, err := h.service.Issue(req.Subject, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue reset token",
			"request_id", requestID,
			"subject", req.Subject,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "reset token issued",
		"request_id", requestID,
		"subject", req.Subject,
		"token_id", issued.TokenID,
		"expires_at", issued.ExpiresAt,
	)
	if h.auditor != nil {
		err := h.auditor.Emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Subject:   req.Subject,
			Action:    audit.ActionResetTokenIssued,
			TokenID:   issued.TokenID,
			RequestID: requestID,
			ClientIP:  requestcontext.ClientIP(ctx),
		})
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to emit audit event",
				"request_id", requestID,
				"action", audit.ActionResetTokenIssued,
				"error", err,
			)
		}
	}
	httputil.WriteJSON(w, http.StatusCreated, &IssueResponse{
		Token:     issued.Token,
		TokenType: "Bearer",
		ExpiresAt: issued.ExpiresAt,
	})
}
