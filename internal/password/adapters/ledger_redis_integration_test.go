//go:build integration

package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pwreset/pkg/testutil/containers"
)

func TestRedisLedger_Consume(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ledger := NewRedisLedger(rc.Client)
	ctx := context.Background()

	first, err := ledger.Consume(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ledger.Consume(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	ttl, err := rc.Client.TTL(ctx, consumedTokenKeyPrefix+"jti-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, ledger.Release(ctx, "jti-1"))
	first, err = ledger.Consume(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
}
