package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	dErrors "pwreset/pkg/domain-errors"
	"pwreset/pkg/platform/sentinel"
	"pwreset/pkg/secrets"
)

const credentialsSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	subject       TEXT PRIMARY KEY,
	password_hash BYTEA NOT NULL,
	changed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DBTX is the subset of pgxpool.Pool the adapter uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCredentials persists password hashes in PostgreSQL.
type PostgresCredentials struct {
	db DBTX
}

func NewPostgresCredentials(db DBTX) *PostgresCredentials {
	return &PostgresCredentials{db: db}
}

// EnsureSchema creates the credentials table if it does not exist.
func (p *PostgresCredentials) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, credentialsSchema); err != nil {
		return fmt.Errorf("create credentials table: %w", err)
	}
	return nil
}

// SetPassword implements ports.CredentialWriter.
func (p *PostgresCredentials) SetPassword(ctx context.Context, subject string, hash []byte) error {
	if subject == "" {
		return fmt.Errorf("set password: %w", sentinel.ErrInvalidState)
	}
	query := `
		INSERT INTO credentials (subject, password_hash, changed_at)
		VALUES ($1, $2, now())
		ON CONFLICT (subject) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			changed_at = EXCLUDED.changed_at
	`
	if _, err := p.db.Exec(ctx, query, subject, hash); err != nil {
		return fmt.Errorf("set password: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// Verify reports whether password matches the stored hash for subject.
// Returns sentinel.ErrNotFound when the subject has no credential.
func (p *PostgresCredentials) Verify(ctx context.Context, subject, password string) (bool, error) {
	var hash []byte
	err := p.db.QueryRow(ctx, `SELECT password_hash FROM credentials WHERE subject = $1`, subject).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, sentinel.ErrNotFound
		}
		return false, fmt.Errorf("load credential: %w: %w", sentinel.ErrUnavailable, err)
	}

	if err := secrets.Verify(password, hash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
