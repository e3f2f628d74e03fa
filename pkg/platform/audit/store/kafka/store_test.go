package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "pwreset/pkg/platform/audit"
)

func TestEncodeRecord(t *testing.T) {
	ts := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	event := audit.Event{
		Timestamp: ts,
		Subject:   "alice",
		Action:    audit.ActionPasswordReset,
		RequestID: "req-1",
		Device:    "Firefox on Linux",
	}

	record, err := encodeRecord(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("alice"), record.Key)
	assert.Equal(t, ts, record.Timestamp)
	require.Len(t, record.Headers, 2)
	assert.Equal(t, HeaderAction, record.Headers[0].Key)
	assert.Equal(t, []byte("password_reset"), record.Headers[0].Value)
	assert.Len(t, EventID(record), 36)

	decoded, err := DecodeRecord(record)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestNew_RequiresBrokers(t *testing.T) {
	_, err := New(nil, "")
	assert.EqualError(t, err, "kafka brokers are required")
}
