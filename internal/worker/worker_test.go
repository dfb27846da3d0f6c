package worker_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rachael-ai/orchestrator/internal/queue"
	"github.com/rachael-ai/orchestrator/internal/worker"
)

type fakeConsumer struct {
	mu       sync.Mutex
	pending  []queue.Message
	acked    []string
	requeued []queue.Message
	dlqed    []queue.Message
}

func (c *fakeConsumer) Read(_ context.Context) ([]queue.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.pending
	c.pending = nil
	return msgs, nil
}

func (c *fakeConsumer) Ack(_ context.Context, msg queue.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, msg.ID)
	return nil
}

func (c *fakeConsumer) Requeue(_ context.Context, msg queue.Message, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requeued = append(c.requeued, msg)
	return nil
}

func (c *fakeConsumer) SendDLQ(_ context.Context, msg queue.Message, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dlqed = append(c.dlqed, msg)
	return nil
}

func (c *fakeConsumer) ackedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.acked...)
}

func (c *fakeConsumer) requeuedMessages() []queue.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]queue.Message(nil), c.requeued...)
}

func (c *fakeConsumer) dlqedMessages() []queue.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]queue.Message(nil), c.dlqed...)
}

type fakeProcessor struct {
	mu             sync.Mutex
	healthCheckErr error
	calls          []string

	// block, when non-nil, is read once per RunBrowserTask call, letting a
	// test hold several calls in flight at once to observe concurrency.
	block chan struct{}

	inFlight, maxInFlight int
}

func (p *fakeProcessor) RunHealthCheck(_ context.Context, _ string) error {
	p.mu.Lock()
	p.calls = append(p.calls, "health_check")
	p.mu.Unlock()
	return p.healthCheckErr
}
func (p *fakeProcessor) RunDailyBriefing(_ context.Context, _ string) error {
	p.mu.Lock()
	p.calls = append(p.calls, "daily_briefing")
	p.mu.Unlock()
	return nil
}
func (p *fakeProcessor) RunBrowserTask(_ context.Context, _ string) error {
	p.mu.Lock()
	p.calls = append(p.calls, "browser_task")
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	p.mu.Unlock()

	if p.block != nil {
		<-p.block
	}

	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
	return nil
}
func (p *fakeProcessor) RunSummarizeMemory(_ context.Context, _ string) error {
	p.mu.Lock()
	p.calls = append(p.calls, "summarize_memory")
	p.mu.Unlock()
	return nil
}

func (p *fakeProcessor) snapshot() (calls []string, maxInFlight int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...), p.maxInFlight
}

var _ = Describe("Worker", func() {
	var (
		consumer  *fakeConsumer
		processor *fakeProcessor
		w         *worker.Worker
	)

	BeforeEach(func() {
		consumer = &fakeConsumer{}
		processor = &fakeProcessor{}
	})

	It("dispatches a successful job to its handler and acks it", func() {
		w = worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
		consumer.pending = []queue.Message{{ID: "1-0", JobType: queue.JobTypeHealthCheck, Attempt: 1}}

		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = w.Run(ctx) }()

		Eventually(consumer.ackedIDs).Should(ContainElement("1-0"))
		Eventually(func() []string { calls, _ := processor.snapshot(); return calls }).Should(ContainElement("health_check"))
		cancel()
		w.Stop()
	})

	It("requeues a failed job below MaxAttempts instead of sending it to the DLQ", func() {
		processor.healthCheckErr = errors.New("browser agent unreachable")
		w = worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
		consumer.pending = []queue.Message{{ID: "2-0", JobType: queue.JobTypeHealthCheck, Attempt: 1}}

		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = w.Run(ctx) }()

		Eventually(consumer.requeuedMessages).Should(HaveLen(1))
		Expect(consumer.dlqedMessages()).To(BeEmpty())
		cancel()
		w.Stop()
	})

	It("sends a failed job to the DLQ once MaxAttempts is reached", func() {
		processor.healthCheckErr = errors.New("browser agent unreachable")
		w = worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
		consumer.pending = []queue.Message{{ID: "3-0", JobType: queue.JobTypeHealthCheck, Attempt: 3}}

		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = w.Run(ctx) }()

		Eventually(consumer.dlqedMessages).Should(HaveLen(1))
		Expect(consumer.requeuedMessages()).To(BeEmpty())
		cancel()
		w.Stop()
	})

	It("processes a batch of jobs concurrently, bounded by Config.Concurrency", func() {
		processor.block = make(chan struct{})
		w = worker.New(consumer, processor, worker.Config{MaxAttempts: 3, Concurrency: 2})
		consumer.pending = []queue.Message{
			{ID: "4-0", JobType: queue.JobTypeBrowserTask, Attempt: 1},
			{ID: "4-1", JobType: queue.JobTypeBrowserTask, Attempt: 1},
			{ID: "4-2", JobType: queue.JobTypeBrowserTask, Attempt: 1},
			{ID: "4-3", JobType: queue.JobTypeBrowserTask, Attempt: 1},
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() { _ = w.Run(ctx) }()

		Eventually(func() int { _, maxInFlight := processor.snapshot(); return maxInFlight }).Should(Equal(2))
		Consistently(func() int { _, maxInFlight := processor.snapshot(); return maxInFlight }).Should(Equal(2))

		close(processor.block)
		Eventually(consumer.ackedIDs).Should(HaveLen(4))
		cancel()
		w.Stop()
	})
})
