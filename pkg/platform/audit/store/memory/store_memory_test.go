package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "pwreset/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	require.NoError(t, store.Append(ctx, audit.Event{Subject: "alice", Action: audit.ActionResetTokenIssued}))
	require.NoError(t, store.Append(ctx, audit.Event{Subject: "alice", Action: audit.ActionPasswordReset}))
	require.NoError(t, store.Append(ctx, audit.Event{Subject: "bob", Action: audit.ActionResetTokenIssued}))
	assert.Equal(t, 3, store.Len())

	events, err := store.ListBySubject(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionPasswordReset, events[1].Action)

	events[0].Subject = "mallory"
	again, err := store.ListBySubject(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", again[0].Subject, "listing returns a copy")

	store.Clear()
	assert.Zero(t, store.Len())
}
