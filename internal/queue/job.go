// Package queue implements the job queue the Periodic Worker enqueues onto
// and drains from: a Redis Stream with a consumer group, retry-with-attempt-
// count semantics, and a dead-letter stream for exhausted jobs.
package queue

// JobType names one of the jobs the Periodic Worker drains. health_check and
// daily_briefing are placed on the queue by the cron Scheduler; browser_task
// and summarize_memory are enqueue-only: neither the Scheduler nor any HTTP
// endpoint produces them, any Producer caller may place them on the stream,
// and the same worker loop drains them.
type JobType string

const (
	JobTypeHealthCheck     JobType = "health_check"
	JobTypeDailyBriefing   JobType = "daily_briefing"
	JobTypeBrowserTask     JobType = "browser_task"
	JobTypeSummarizeMemory JobType = "summarize_memory"
)

// Job is what a producer enqueues: a job type plus an opaque string payload
// (a task goal, a briefing config id, ...). Payload is free-form so the
// queue package stays agnostic to what each job type actually does.
type Job struct {
	JobType JobType
	Payload string
	TraceID string
	Attempt int
}
