// Package executor implements the approval-gated step state machine that
// drives a Task from its assigned Plan through to completion or failure.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rachael-ai/orchestrator/internal/browser"
	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/llm"
	"github.com/rachael-ai/orchestrator/internal/store"
)

// approvalWait bounds how long a step waits for its approval before the
// task is failed out.
const approvalWait = 300 * time.Second

// taskStore is the subset of the Task Store the Executor depends on.
type taskStore interface {
	SaveTask(ctx context.Context, task *domain.Task) error
	SaveApproval(ctx context.Context, approval *domain.Approval) error
	GetSignal(approvalID string) (store.Signal, bool)
}

// Executor runs one task's plan to completion, persisting state after every
// transition so a crash mid-run leaves the Task Store consistent.
type Executor struct {
	store   taskStore
	browser browser.Gateway
	llm     llm.Gateway

	newApprovalID func() string
}

// New constructs an Executor. newApprovalID generates Approval ids; pass
// store.NewApprovalID in production.
func New(st taskStore, bg browser.Gateway, lg llm.Gateway, newApprovalID func() string) *Executor {
	return &Executor{store: st, browser: bg, llm: lg, newApprovalID: newApprovalID}
}

// Run executes task.Plan step by step. task.Plan must already be set by the
// caller; Run transitions task.Status to running immediately and persists
// every subsequent change.
func (e *Executor) Run(ctx context.Context, task *domain.Task) error {
	task.Status = domain.TaskStatusRunning
	if err := e.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("starting task %s: %w", task.ID, err)
	}

	plan := task.Plan
	if plan == nil {
		return fmt.Errorf("%w: task %s has no plan assigned", domain.ErrInvalidPlan, task.ID)
	}

	for idx, step := range plan.Steps {
		task.CurrentStep = idx
		if err := e.store.SaveTask(ctx, task); err != nil {
			return fmt.Errorf("persisting step cursor for task %s: %w", task.ID, err)
		}

		if step.NeedsOK {
			approved, err := e.requestApproval(ctx, task, idx, step)
			if err != nil {
				return fmt.Errorf("requesting approval for task %s step %d: %w", task.ID, idx, err)
			}
			if !approved {
				task.Status = domain.TaskStatusFailed
				task.PendingApprovalID = nil
				msg := "approval not received"
				e.recordStep(ctx, task, idx, step, domain.StepStatusSkipped, nil, &msg)
				e.fail(ctx, task, fmt.Sprintf("step %d required approval but none was received", idx))
				return nil
			}
		}

		output, err := e.dispatch(ctx, step)
		if err != nil {
			msg := err.Error()
			e.recordStep(ctx, task, idx, step, domain.StepStatusError, nil, &msg)
			e.fail(ctx, task, fmt.Sprintf("step %d (%s): %s", idx, step.Tool, msg))
			return nil
		}
		e.recordStep(ctx, task, idx, step, domain.StepStatusOK, output, nil)
	}

	task.Status = domain.TaskStatusCompleted
	reply, err := e.llm.GenerateReply(ctx, task.Goal, task.Results)
	if err != nil {
		slog.WarnContext(ctx, "reply generation failed, using canned reply",
			"task_id", task.ID, "error", err)
		reply = fmt.Sprintf("Done: %s", task.Goal)
	}
	task.Reply = &reply

	if err := e.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("persisting completed task %s: %w", task.ID, err)
	}
	return nil
}

// requestApproval creates and persists an Approval, transitions the task to
// paused_for_approval, and waits up to approvalWait for the signal to fire.
//
// The signal is allocated by store.SaveApproval before this method persists
// the paused status, so a resolve request that races in immediately after
// the approval row commits can never find "no such signal".
func (e *Executor) requestApproval(ctx context.Context, task *domain.Task, idx int, step domain.PlanStep) (bool, error) {
	prompt := fmt.Sprintf("Approve step %d: %s?", idx, step.Tool)
	if step.OKPrompt != nil {
		prompt = *step.OKPrompt
	}

	approval := &domain.Approval{
		ID:        e.newApprovalID(),
		TaskID:    task.ID,
		StepIndex: idx,
		OKPrompt:  prompt,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.SaveApproval(ctx, approval); err != nil {
		return false, fmt.Errorf("saving approval: %w", err)
	}

	task.Status = domain.TaskStatusPausedForApproval
	task.PendingApprovalID = &approval.ID
	if err := e.store.SaveTask(ctx, task); err != nil {
		return false, fmt.Errorf("persisting paused task: %w", err)
	}

	sig, ok := e.store.GetSignal(approval.ID)
	if !ok {
		return false, fmt.Errorf("signal missing for approval %s immediately after save", approval.ID)
	}

	timer := time.NewTimer(approvalWait)
	defer timer.Stop()

	select {
	case <-sig.Done():
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}

	task.Status = domain.TaskStatusRunning
	task.PendingApprovalID = nil
	if err := e.store.SaveTask(ctx, task); err != nil {
		return false, fmt.Errorf("persisting resumed task: %w", err)
	}
	return true, nil
}

// dispatch splits a step's tool name into "service.action" and routes it to
// the matching gateway. Only "browser" is wired today.
func (e *Executor) dispatch(ctx context.Context, step domain.PlanStep) (any, error) {
	service, action, found := strings.Cut(step.Tool, ".")
	if !found {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownService, step.Tool)
	}

	switch service {
	case "browser":
		return e.browser.Dispatch(ctx, action, step.Args)
	default:
		return nil, fmt.Errorf("%w: %q (only \"browser\" is available)", domain.ErrUnknownService, service)
	}
}

func (e *Executor) recordStep(ctx context.Context, task *domain.Task, idx int, step domain.PlanStep, status domain.StepStatus, output any, errMsg *string) {
	task.Results = append(task.Results, domain.StepResult{
		StepIndex: idx,
		Tool:      step.Tool,
		Args:      step.Args,
		Status:    status,
		Output:    output,
		Error:     errMsg,
	})
	if err := e.store.SaveTask(ctx, task); err != nil {
		slog.ErrorContext(ctx, "persisting step result failed", "task_id", task.ID, "step_index", idx, "error", err)
	}
}

func (e *Executor) fail(ctx context.Context, task *domain.Task, reason string) {
	task.Status = domain.TaskStatusFailed
	task.Error = &reason
	if err := e.store.SaveTask(ctx, task); err != nil {
		slog.ErrorContext(ctx, "persisting failed task failed", "task_id", task.ID, "error", err)
	}
}
