// Package audit defines the security audit trail for password resets.
package audit

import (
	"context"
	"time"
)

// Action names an audited operation.
type Action string

const (
	ActionResetTokenIssued Action = "reset_token_issued"
	ActionPasswordReset    Action = "password_reset"
	ActionPasswordRejected Action = "password_reset_rejected"
	ActionResetTokenReused Action = "reset_token_reused"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. It never carries
// password material.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject"`
	Action    Action    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	TokenID   string    `json:"token_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Device    string    `json:"device,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
