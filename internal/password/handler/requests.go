package handler

import (
	dErrors "pwreset/pkg/domain-errors"
)

// maxPasswordBytes bounds password fields before they reach the engine.
const maxPasswordBytes = 1024

// EvaluateRequest is the HTTP request body for POST /password/evaluate.
type EvaluateRequest struct {
	Password string `json:"password"`
}

// Validate implements the Validatable contract for httputil.DecodeAndPrepare.
// An empty password is valid here: it evaluates to an all-unmet checklist.
func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return checkSize("password", r.Password)
}

// MatchRequest is the HTTP request body for POST /password/match.
type MatchRequest struct {
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

func (r *MatchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := checkSize("password", r.Password); err != nil {
		return err
	}
	return checkSize("confirmation", r.Confirmation)
}

// ResetRequest is the HTTP request body for POST /password/reset.
// Emptiness and policy checks belong to the service so the user-facing
// messages stay in one place.
type ResetRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r *ResetRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := checkSize("new_password", r.NewPassword); err != nil {
		return err
	}
	return checkSize("confirm_password", r.ConfirmPassword)
}

func checkSize(field, value string) error {
	if len(value) > maxPasswordBytes {
		return dErrors.NewField(dErrors.CodeValidation, field, field+" is too long")
	}
	return nil
}
