package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "pwreset/pkg/domain-errors"
)

// Generate creates a cryptographically secure random secret, base64url
// encoded. Suitable as a token signing key.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of secret at the given cost. Costs below
// bcrypt.MinCost fall back to bcrypt.DefaultCost.
// bcrypt reads at most 72 bytes, so longer secrets are rejected rather than
// silently truncated.
func Hash(secret string, cost int) ([]byte, error) {
	if secret == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, dErrors.New(dErrors.CodeValidation, "secret is too long")
		}
		return nil, fmt.Errorf("could not hash secret: %w", err)
	}
	return hashed, nil
}

// Verify checks if a plaintext secret matches a bcrypt hash.
func Verify(secret string, hash []byte) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeValidation, "invalid secret")
		}
		return fmt.Errorf("could not verify secret: %w", err)
	}
	return nil
}
