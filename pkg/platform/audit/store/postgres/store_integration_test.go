//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "pwreset/pkg/platform/audit"
	"pwreset/pkg/testutil/containers"
)

func TestStore_RoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := New(pg.Pool)
	ctx := context.Background()
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx), "schema creation is idempotent")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, audit.Event{Timestamp: base.Add(time.Second), Subject: "alice", Action: audit.ActionPasswordReset, Device: "Firefox on Linux"}))
	require.NoError(t, store.Append(ctx, audit.Event{Timestamp: base, Subject: "alice", Action: audit.ActionResetTokenIssued}))
	require.NoError(t, store.Append(ctx, audit.Event{Timestamp: base, Subject: "bob", Action: audit.ActionResetTokenIssued}))

	events, err := store.ListBySubject(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.ActionResetTokenIssued, events[0].Action)
	assert.Equal(t, audit.ActionPasswordReset, events[1].Action)
	assert.Equal(t, "Firefox on Linux", events[1].Device)
	assert.True(t, base.Equal(events[0].Timestamp))

	replayID := uuid.New()
	replayed := audit.Event{Timestamp: base, Subject: "carol", Action: audit.ActionPasswordRejected}
	require.NoError(t, store.AppendWithID(ctx, replayID, replayed))
	require.NoError(t, store.AppendWithID(ctx, replayID, replayed))
	carol, err := store.ListBySubject(ctx, "carol")
	require.NoError(t, err)
	assert.Len(t, carol, 1, "replayed IDs are ignored")

	none, err := store.ListBySubject(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, none)
}
