package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "pwreset/pkg/platform/audit"
	auditkafka "pwreset/pkg/platform/audit/store/kafka"
)

type recordingSink struct {
	ids    []uuid.UUID
	events []audit.Event
	err    error
}

func (s *recordingSink) AppendWithID(_ context.Context, id uuid.UUID, event audit.Event) error {
	if s.err != nil {
		return s.err
	}
	s.ids = append(s.ids, id)
	s.events = append(s.events, event)
	return nil
}

func record(t *testing.T, event audit.Event, headers ...kgo.RecordHeader) *kgo.Record {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return &kgo.Record{Topic: "pwreset.audit", Partition: 2, Offset: 41, Value: value, Headers: headers}
}

func TestHandler_Handle(t *testing.T) {
	event := audit.Event{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Subject:   "alice",
		Action:    audit.ActionPasswordReset,
	}

	t.Run("uses the producer event id", func(t *testing.T) {
		sink := &recordingSink{}
		id := uuid.New()
		r := record(t, event, kgo.RecordHeader{Key: auditkafka.HeaderEventID, Value: []byte(id.String())})

		require.NoError(t, NewHandler(sink, slog.New(slog.DiscardHandler)).Handle(context.Background(), r))
		require.Len(t, sink.events, 1)
		assert.Equal(t, id, sink.ids[0])
		assert.Equal(t, event, sink.events[0])
	})

	t.Run("falls back to a position derived id", func(t *testing.T) {
		sink := &recordingSink{}
		h := NewHandler(sink, slog.New(slog.DiscardHandler))

		require.NoError(t, h.Handle(context.Background(), record(t, event)))
		require.NoError(t, h.Handle(context.Background(), record(t, event)))
		require.Len(t, sink.ids, 2)
		assert.Equal(t, sink.ids[0], sink.ids[1], "redelivery maps to the same id")
	})

	t.Run("malformed records are skipped", func(t *testing.T) {
		sink := &recordingSink{}
		logs := &bytes.Buffer{}
		h := NewHandler(sink, slog.New(slog.NewJSONHandler(logs, nil)))

		require.NoError(t, h.Handle(context.Background(), &kgo.Record{Value: []byte("{not json")}))
		require.NoError(t, h.Handle(context.Background(), record(t, audit.Event{Subject: "alice"})))
		assert.Empty(t, sink.events)
		assert.Contains(t, logs.String(), "skipping malformed audit record")
		assert.Contains(t, logs.String(), "without subject or action")
	})

	t.Run("sink errors are returned", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("db down")}
		err := NewHandler(sink, slog.New(slog.DiscardHandler)).Handle(context.Background(), record(t, event))
		assert.ErrorContains(t, err, "db down")
	})
}

func TestNew_Validation(t *testing.T) {
	h := NewHandler(&recordingSink{}, slog.New(slog.DiscardHandler))

	_, err := New(nil, "", "group", h, slog.New(slog.DiscardHandler))
	assert.EqualError(t, err, "kafka brokers are required")

	_, err = New([]string{"localhost:9092"}, "", "", h, slog.New(slog.DiscardHandler))
	assert.EqualError(t, err, "consumer group is required")
}
