// Package worker implements the Periodic Worker: a cron-driven scheduler
// that enqueues health_check and daily_briefing jobs, and a consumer loop
// that drains them with retry-then-DLQ semantics.
package worker

import (
	"context"

	"github.com/rachael-ai/orchestrator/internal/queue"
)

// Consumer abstracts the job queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// JobProcessor runs the side effect attached to one job type. Every method
// reaches the orchestrator and downstream services over HTTP only — the
// worker process holds no direct database connection.
type JobProcessor interface {
	// RunHealthCheck is enqueued every ScheduleConfig.HealthCheckEveryNMinutes
	// minutes and verifies the Browser Agent and LLM Gateway are reachable.
	RunHealthCheck(ctx context.Context, payload string) error

	// RunDailyBriefing is enqueued once a day at a configured UTC time and
	// submits a briefing goal (payload, or a default asking for a summary of
	// yesterday's browser tasks) to the orchestrator's own chat ingress.
	RunDailyBriefing(ctx context.Context, payload string) error

	// RunBrowserTask is enqueue-only: it submits payload as a chat goal to
	// the orchestrator's own ingress and lets the Executor run it.
	RunBrowserTask(ctx context.Context, payload string) error

	// RunSummarizeMemory is enqueue-only: it asks the LLM Gateway directly to
	// condense a session's transcript (payload) into a short memory note.
	// The result is a best-effort side channel; nothing is persisted.
	RunSummarizeMemory(ctx context.Context, payload string) error
}
