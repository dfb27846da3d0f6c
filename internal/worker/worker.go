package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rachael-ai/orchestrator/internal/queue"
)

// Config bounds how many times a failed job is retried before it moves to
// the dead-letter stream, and how many jobs from one batch run in parallel.
type Config struct {
	MaxAttempts int
	Concurrency int
}

// Worker drains jobs from a Consumer and dispatches them to a JobProcessor.
type Worker struct {
	consumer  Consumer
	processor JobProcessor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// New constructs a Worker.
func New(consumer Consumer, processor JobProcessor, cfg Config) *Worker {
	return &Worker{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run polls the queue until ctx is cancelled or Stop is called.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "periodic worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "periodic worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

// Stop signals Run to return and waits for it to do so.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

// processOneBatch dispatches every message read from the stream to its own
// goroutine, bounded by a semaphore sized from Config.Concurrency, so a slow
// job (e.g. a browser_task nearing its timeout) cannot serialize the rest of
// the batch behind it.
func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	concurrency := w.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for _, msg := range messages {
		msg := msg
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			w.processOneMessage(ctx, msg)
		}()
	}
	wg.Wait()

	return nil
}

func (w *Worker) processOneMessage(ctx context.Context, msg queue.Message) {
	if err := w.processMessageSafe(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "job processing failed",
			"error", err, "message_id", msg.ID, "job_type", msg.JobType)
		w.handleFailedMessage(ctx, msg, err)
		return
	}
	if err := w.consumer.Ack(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to ack message", "error", err, "message_id", msg.ID)
	}
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in job processing",
				"panic", r, "stack", string(debug.Stack()), "message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.dispatch(ctx, msg)
}

func (w *Worker) dispatch(ctx context.Context, msg queue.Message) error {
	switch msg.JobType {
	case queue.JobTypeHealthCheck:
		return w.processor.RunHealthCheck(ctx, msg.Payload)
	case queue.JobTypeDailyBriefing:
		return w.processor.RunDailyBriefing(ctx, msg.Payload)
	case queue.JobTypeBrowserTask:
		return w.processor.RunBrowserTask(ctx, msg.Payload)
	case queue.JobTypeSummarizeMemory:
		return w.processor.RunSummarizeMemory(ctx, msg.Payload)
	default:
		return fmt.Errorf("unhandled job type %q", msg.JobType)
	}
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to dead-letter stream",
			"message_id", msg.ID, "job_type", msg.JobType, "attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed job",
		"message_id", msg.ID, "job_type", msg.JobType, "attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue job", "error", requeueErr)
	}
}
