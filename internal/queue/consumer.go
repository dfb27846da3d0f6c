package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/rachael-ai/orchestrator/common/logger"
	"github.com/redis/go-redis/v9"
)

// ConsumerConfig configures a RedisConsumer's stream, group and retry policy.
type ConsumerConfig struct {
	Stream       string
	Group        string
	Consumer     string
	DLQStream    string
	BatchSize    int64
	Block        time.Duration
	MaxAttempts  int
	RequeueDelay time.Duration
}

// Message is one job read off the stream, parsed from its raw field values.
type Message struct {
	ID      string
	JobType JobType
	Payload string
	Attempt int
	TraceID string
	Raw     redis.XMessage
}

// MessageProcessor handles one Message; a returned error triggers retry or
// DLQ routing per the consumer's MaxAttempts.
type MessageProcessor func(ctx context.Context, msg Message) error

// RedisConsumer reads jobs from a stream via a consumer group.
type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

// NewRedisConsumer constructs a RedisConsumer, creating its consumer group
// if it does not already exist.
func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	consumer := &RedisConsumer{client: client, cfg: cfg}
	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}
	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Start from "0" rather than "$" so a recreated group still sees
	// whatever is already on the stream instead of silently skipping it.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

// Read returns the next batch of messages, blocking up to cfg.Block.
func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "queue.consumer"})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			parsed, parseErr := ParseMessage(raw)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to parse message",
					"error", parseErr, "raw_message_id", raw.ID, "stream", c.cfg.Stream)
				_ = c.Ack(ctx, Message{ID: raw.ID, Raw: raw})
				continue
			}
			messages = append(messages, parsed)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read messages from stream",
			"count", len(messages), "stream", c.cfg.Stream, "consumer", c.cfg.Consumer)
	}
	return messages, nil
}

// Ack acknowledges successful processing of msg.
func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}
	slog.DebugContext(ctx, "message acknowledged", "stream", c.cfg.Stream)
	return nil
}

// Requeue acks msg and re-adds it to the stream with attempt+1.
func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	attempt := msg.Attempt + 1

	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for requeue: %w", err)
	}

	values := messageValues(msg, attempt)
	if errMsg != "" {
		values["last_error"] = errMsg
	}

	if c.cfg.RequeueDelay > 0 {
		time.Sleep(c.cfg.RequeueDelay)
	}

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.Stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("xadd requeue: %w", err)
	}

	slog.InfoContext(ctx, "message requeued for retry", "next_attempt", attempt, "reason", errMsg)
	return nil
}

// SendDLQ acks msg and moves it to the dead-letter stream.
func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking failed message for dlq: %w", err)
	}

	values := messageValues(msg, msg.Attempt)
	values["error"] = errMsg

	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: c.cfg.DLQStream, Values: values}).Err(); err != nil {
		return fmt.Errorf("xadd dlq (stream=%s): %w", c.cfg.DLQStream, err)
	}

	slog.ErrorContext(ctx, "message sent to DLQ", "final_error", errMsg, "dlq_stream", c.cfg.DLQStream)
	return nil
}

// ParseMessage decodes a raw stream entry into a Message.
func ParseMessage(raw redis.XMessage) (Message, error) {
	jobTypeStr, err := parseString(raw.Values, "job_type")
	if err != nil {
		return Message{}, err
	}
	payload, err := parseOptionalString(raw.Values, "payload")
	if err != nil {
		return Message{}, err
	}
	traceID, err := parseOptionalString(raw.Values, "trace_id")
	if err != nil {
		return Message{}, err
	}
	attempt, err := parseOptionalInt(raw.Values, "attempt")
	if err != nil {
		return Message{}, err
	}
	if attempt == 0 {
		attempt = 1
	}

	jobType := JobType(jobTypeStr)
	switch jobType {
	case JobTypeHealthCheck, JobTypeDailyBriefing, JobTypeBrowserTask, JobTypeSummarizeMemory:
	default:
		return Message{}, fmt.Errorf("unknown job_type %q", jobType)
	}

	return Message{
		ID:      raw.ID,
		JobType: jobType,
		Payload: payload,
		Attempt: attempt,
		TraceID: traceID,
		Raw:     raw,
	}, nil
}

func parseString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalString(values map[string]any, key string) (string, error) {
	raw, ok := values[key]
	if !ok {
		return "", nil
	}
	return fmt.Sprint(raw), nil
}

func parseOptionalInt(values map[string]any, key string) (int, error) {
	raw, ok := values[key]
	if !ok {
		return 0, nil
	}
	num, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return num, nil
}

func messageValues(msg Message, attempt int) map[string]any {
	values := map[string]any{
		"job_type": string(msg.JobType),
		"payload":  msg.Payload,
		"attempt":  attempt,
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}
	return values
}
