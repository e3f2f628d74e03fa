package handler

import (
	"time"

	"pwreset/internal/password"
	"pwreset/internal/password/service"
	"pwreset/pkg/platform/httputil"
)

// ChecklistResponse is the evaluation of one password.
type ChecklistResponse struct {
	Criteria         []password.CriterionResult `json:"criteria"`
	Detail           []password.CriterionResult `json:"detail"`
	Satisfied        int                        `json:"satisfied"`
	ClassesSatisfied int                        `json:"classes_satisfied"`
	Required         int                        `json:"required"`
	Passed           bool                       `json:"passed"`
}

// FromResult converts an engine result to an HTTP response.
func FromResult(res password.Result) *ChecklistResponse {
	return &ChecklistResponse{
		Criteria:         res.Criteria(),
		Detail:           res.Detail(),
		Satisfied:        res.Satisfied(),
		ClassesSatisfied: res.ClassesSatisfied(),
		Required:         res.Required(),
		Passed:           res.Passed(),
	}
}

// PolicyResponse is the HTTP response for GET /password/policy.
type PolicyResponse struct {
	Headline string   `json:"headline"`
	Items    []string `json:"items"`
}

// ResetResponse is the HTTP response for an accepted reset.
type ResetResponse struct {
	Subject   string    `json:"subject"`
	ChangedAt time.Time `json:"changed_at"`
	Satisfied int       `json:"satisfied"`
}

func FromResetResult(res *service.ResetResult) *ResetResponse {
	return &ResetResponse{
		Subject:   res.Subject,
		ChangedAt: res.ChangedAt,
		Satisfied: res.Satisfied,
	}
}

// WeakPasswordResponse is the error envelope for a rejected password, with the
// checklist the form should redisplay.
type WeakPasswordResponse struct {
	httputil.ErrorResponse
	Checklist *ChecklistResponse `json:"checklist"`
}
