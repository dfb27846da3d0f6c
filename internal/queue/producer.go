package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rachael-ai/orchestrator/common/id"
	"github.com/rachael-ai/orchestrator/common/logger"
	"github.com/redis/go-redis/v9"
)

// Producer enqueues jobs onto the stream the Periodic Worker reads from.
type Producer interface {
	Enqueue(ctx context.Context, job Job) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
}

// NewRedisProducer constructs a Producer over an already-connected client.
func NewRedisProducer(client *redis.Client, stream string) Producer {
	return &redisProducer{client: client, stream: stream}
}

func (p *redisProducer) Enqueue(ctx context.Context, job Job) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		JobType:   logger.Ptr(string(job.JobType)),
		Component: "queue.producer",
	})

	attempt := job.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	traceID := job.TraceID
	if traceID == "" {
		traceID = strconv.FormatInt(id.New(), 10)
	}

	values := map[string]any{
		"job_type": string(job.JobType),
		"payload":  job.Payload,
		"attempt":  attempt,
		"trace_id": traceID,
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue job (stream=%s): %w", p.stream, err)
	}

	slog.InfoContext(ctx, "enqueued job",
		"job_type", job.JobType,
		"attempt", attempt,
		"stream", p.stream)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
