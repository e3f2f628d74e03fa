// Package consumer materializes the Kafka audit stream into a queryable
// store.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "pwreset/pkg/platform/audit"
	auditkafka "pwreset/pkg/platform/audit/store/kafka"
)

// Sink stores events under a stable ID so redelivered records are no-ops.
type Sink interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Handler turns one record into a sink write.
type Handler struct {
	sink   Sink
	logger *slog.Logger
}

func NewHandler(sink Sink, logger *slog.Logger) *Handler {
	return &Handler{sink: sink, logger: logger}
}

// Handle stores the record's event. Malformed records are logged and skipped
// so they do not block the partition; sink failures are returned.
func (h *Handler) Handle(ctx context.Context, r *kgo.Record) error {
	event, err := auditkafka.DecodeRecord(r)
	if err != nil {
		h.logger.ErrorContext(ctx, "skipping malformed audit record",
			"topic", r.Topic,
			"partition", r.Partition,
			"offset", r.Offset,
			"error", err,
		)
		return nil
	}
	if event.Subject == "" || event.Action == "" {
		h.logger.ErrorContext(ctx, "skipping audit record without subject or action",
			"topic", r.Topic,
			"partition", r.Partition,
			"offset", r.Offset,
		)
		return nil
	}

	eventID := recordID(r)
	if err := h.sink.AppendWithID(ctx, eventID, event); err != nil {
		return fmt.Errorf("store audit event %s: %w", eventID, err)
	}
	h.logger.DebugContext(ctx, "stored audit event",
		"event_id", eventID,
		"action", event.Action,
		"subject", event.Subject,
	)
	return nil
}

// recordID prefers the producer's event ID and falls back to the record's
// position, which is stable across redeliveries.
func recordID(r *kgo.Record) uuid.UUID {
	if id, err := uuid.Parse(auditkafka.EventID(r)); err == nil {
		return id
	}
	pos := r.Topic + "/" + strconv.Itoa(int(r.Partition)) + "/" + strconv.FormatInt(r.Offset, 10)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(pos))
}

// Consumer reads the audit topic as part of a consumer group and commits
// offsets only after a batch is stored.
type Consumer struct {
	client  *kgo.Client
	handler *Handler
	logger  *slog.Logger
}

func New(brokers []string, topic, group string, handler *Handler, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		topic = auditkafka.DefaultTopic
	}
	if group == "" {
		return nil, errors.New("consumer group is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is done. A sink failure stops the loop without
// committing, so the batch is redelivered after a restart.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "audit fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = c.handler.Handle(ctx, r)
		})
		if handleErr != nil {
			return handleErr
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit audit offsets: %w", err)
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
