package adapters

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pwreset/pkg/platform/sentinel"
)

// MemoryLedger tracks consumed reset tokens in process memory. Entries are
// swept lazily once their ttl has passed.
type MemoryLedger struct {
	mu       sync.Mutex
	consumed map[string]time.Time
	now      func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{consumed: make(map[string]time.Time), now: time.Now}
}

// Consume implements ports.TokenLedger.
func (l *MemoryLedger) Consume(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if tokenID == "" || ttl <= 0 {
		return false, fmt.Errorf("consume token: %w", sentinel.ErrInvalidState)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, expires := range l.consumed {
		if now.After(expires) {
			delete(l.consumed, id)
		}
	}
	if _, used := l.consumed[tokenID]; used {
		return false, nil
	}
	l.consumed[tokenID] = now.Add(ttl)
	return true, nil
}

// Release implements ports.TokenLedger.
func (l *MemoryLedger) Release(_ context.Context, tokenID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.consumed, tokenID)
	return nil
}
