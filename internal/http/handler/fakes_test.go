package handler_test

import (
	"context"
	"sync"

	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/llm"
)

// fakeLLM implements llm.Gateway with only GetPlanJSON meaningfully wired,
// since the Planner is the only caller exercised through these handlers.
type fakeLLM struct {
	plan    map[string]any
	planErr error
}

func (f *fakeLLM) ChatCompletion(_ context.Context, _ []llm.Message, _ float64, _ int, _ bool) (string, error) {
	return "", nil
}
func (f *fakeLLM) GenerateReply(_ context.Context, _ string, _ []domain.StepResult) (string, error) {
	return "", nil
}
func (f *fakeLLM) GetPlanJSON(_ context.Context, _ string) (map[string]any, error) {
	return f.plan, f.planErr
}

// fakeTaskStore implements the handler package's taskStore interface.
type fakeTaskStore struct {
	mu     sync.Mutex
	saved  []domain.Task
	byID   map[string]*domain.Task
	getErr error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{byID: map[string]*domain.Task{}}
}

func (s *fakeTaskStore) SaveTask(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *task
	s.saved = append(s.saved, cp)
	s.byID[task.ID] = &cp
	return nil
}

func (s *fakeTaskStore) GetTask(_ context.Context, id string) (*domain.Task, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *task
	return &cp, nil
}

// fakeRunner implements the handler package's taskRunner interface.
type fakeRunner struct {
	mu      sync.Mutex
	started []string
	block   chan struct{}
}

func (r *fakeRunner) Run(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	r.started = append(r.started, task.ID)
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return nil
}

func (r *fakeRunner) runCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.started)
}

// fakeApprovalStore implements the handler package's approvalStore interface.
type fakeApprovalStore struct {
	mu        sync.Mutex
	approvals map[string]*domain.Approval
	resolved  map[string]bool
	getErr    error
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{
		approvals: map[string]*domain.Approval{},
		resolved:  map[string]bool{},
	}
}

func (s *fakeApprovalStore) put(approval *domain.Approval) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[approval.ID] = approval
}

func (s *fakeApprovalStore) GetApproval(_ context.Context, id string) (*domain.Approval, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	approval, ok := s.approvals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *approval
	return &cp, nil
}

func (s *fakeApprovalStore) ResolveApproval(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved[id] {
		return false, nil
	}
	s.resolved[id] = true
	return true, nil
}

// fakeBrowserGateway implements the handler package's browserGateway interface.
type fakeBrowserGateway struct {
	result any
	err    error
	calls  []string
}

func (g *fakeBrowserGateway) Dispatch(_ context.Context, action string, _ map[string]any) (any, error) {
	g.calls = append(g.calls, action)
	return g.result, g.err
}
