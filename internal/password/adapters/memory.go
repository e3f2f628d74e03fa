package adapters

import (
	"context"
	"fmt"
	"sync"

	dErrors "pwreset/pkg/domain-errors"
	"pwreset/pkg/platform/sentinel"
	"pwreset/pkg/secrets"
)

// MemoryCredentials keeps password hashes in process memory. It backs the
// demo server and tests; nothing survives a restart.
type MemoryCredentials struct {
	mu     sync.RWMutex
	hashes map[string][]byte
}

// NewMemoryCredentials returns an empty store.
func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{hashes: make(map[string][]byte)}
}

// SetPassword implements ports.CredentialWriter.
func (m *MemoryCredentials) SetPassword(_ context.Context, subject string, hash []byte) error {
	if subject == "" {
		return fmt.Errorf("set password: %w", sentinel.ErrInvalidState)
	}
	stored := make([]byte, len(hash))
	copy(stored, hash)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[subject] = stored
	return nil
}

// Verify reports whether password matches the stored hash for subject.
// Returns sentinel.ErrNotFound when the subject has no credential.
func (m *MemoryCredentials) Verify(_ context.Context, subject, password string) (bool, error) {
	m.mu.RLock()
	hash, ok := m.hashes[subject]
	m.mu.RUnlock()
	if !ok {
		return false, sentinel.ErrNotFound
	}

	if err := secrets.Verify(password, hash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Count returns the number of subjects with a stored credential.
func (m *MemoryCredentials) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hashes)
}
