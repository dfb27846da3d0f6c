package worker_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rachael-ai/orchestrator/internal/queue"
	"github.com/rachael-ai/orchestrator/internal/worker"
)

type fakeProducer struct {
	mu       sync.Mutex
	enqueued []queue.Job
}

func (p *fakeProducer) Enqueue(_ context.Context, job queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enqueued = append(p.enqueued, job)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) jobTypes() []queue.JobType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]queue.JobType, len(p.enqueued))
	for i, job := range p.enqueued {
		types[i] = job.JobType
	}
	return types
}

var _ = Describe("Scheduler", func() {
	It("enqueues a health_check immediately on Start, ahead of its cron schedule", func() {
		producer := &fakeProducer{}
		s := worker.NewScheduler(producer, worker.ScheduleConfig{
			HealthCheckEveryNMinutes: 5,
			DailyBriefingHour:        8,
			DailyBriefingMinute:      0,
		})

		Expect(s.Start(context.Background())).To(Succeed())
		defer s.Stop()

		Expect(producer.jobTypes()).To(ContainElement(queue.JobTypeHealthCheck))
	})

	It("still starts and enqueues the startup health_check when the configured interval does not divide 60", func() {
		producer := &fakeProducer{}
		s := worker.NewScheduler(producer, worker.ScheduleConfig{
			HealthCheckEveryNMinutes: 7,
			DailyBriefingHour:        8,
			DailyBriefingMinute:      0,
		})

		Expect(s.Start(context.Background())).To(Succeed())
		defer s.Stop()

		Expect(producer.jobTypes()).To(ContainElement(queue.JobTypeHealthCheck))
	})
})
