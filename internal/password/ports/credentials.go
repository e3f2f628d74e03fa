// Package ports declares the outbound dependencies of the reset service.
package ports

//go:generate mockgen -source=credentials.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	audit "pwreset/pkg/platform/audit"
)

// CredentialWriter stores the hash of an accepted password for a subject.
// The reset service only ever hands over a hash, never the cleartext.
type CredentialWriter interface {
	SetPassword(ctx context.Context, subject string, hash []byte) error
}

// TokenLedger records consumed reset token IDs so each token completes at
// most one reset. Consume is atomic: it returns true only for the first call
// with a given tokenID within ttl. Release forgets a consumed token so it can
// be used again after a reset that failed to store.
type TokenLedger interface {
	Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, tokenID string) error
}

// AuditPublisher records reset outcomes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
