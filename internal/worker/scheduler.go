package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rachael-ai/orchestrator/internal/queue"
)

// ScheduleConfig mirrors core/config.ScheduleConfig so this package does not
// need to import the config package directly.
type ScheduleConfig struct {
	HealthCheckEveryNMinutes int
	DailyBriefingHour        int
	DailyBriefingMinute      int
}

// Scheduler enqueues health_check and daily_briefing jobs on a cron
// schedule. It owns no processing logic — it only produces jobs for Worker
// to later consume, keeping scheduling and execution independently testable.
type Scheduler struct {
	cron     *cron.Cron
	producer queue.Producer
	cfg      ScheduleConfig
}

// NewScheduler builds a Scheduler. Call Start to register and run the jobs.
func NewScheduler(producer queue.Producer, cfg ScheduleConfig) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		producer: producer,
		cfg:      cfg,
	}
}

// Start registers both recurring jobs and begins the cron scheduler's own
// goroutine. It never blocks.
func (s *Scheduler) Start(ctx context.Context) error {
	every := s.cfg.HealthCheckEveryNMinutes
	if every <= 0 || 60%every != 0 {
		slog.WarnContext(ctx, "health_check_every_n_minutes does not evenly divide 60, falling back to 5",
			"configured", s.cfg.HealthCheckEveryNMinutes)
		every = 5
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("*/%d * * * *", every), func() {
		s.enqueue(ctx, queue.JobTypeHealthCheck, "")
	}); err != nil {
		return fmt.Errorf("scheduling health_check: %w", err)
	}

	briefingSpec := fmt.Sprintf("%d %d * * *", s.cfg.DailyBriefingMinute, s.cfg.DailyBriefingHour)
	if _, err := s.cron.AddFunc(briefingSpec, func() {
		s.enqueue(ctx, queue.JobTypeDailyBriefing, "")
	}); err != nil {
		return fmt.Errorf("scheduling daily_briefing: %w", err)
	}

	s.cron.Start()
	s.enqueue(ctx, queue.JobTypeHealthCheck, "")
	return nil
}

// Stop halts the cron scheduler and waits for any in-flight job functions.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) enqueue(ctx context.Context, jobType queue.JobType, payload string) {
	job := queue.Job{JobType: jobType, Payload: payload}
	if err := s.producer.Enqueue(ctx, job); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue scheduled job", "job_type", jobType, "error", err)
	}
}
