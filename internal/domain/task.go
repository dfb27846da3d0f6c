// Package domain holds the plan/task/approval value types shared by the
// Planner, Executor, Task Store and API Surface.
package domain

import "time"

// TaskStatus is the in-memory status enumeration. The Task Store maps this
// to a distinct persisted vocabulary (see internal/store/status.go).
type TaskStatus string

const (
	TaskStatusPending           TaskStatus = "pending"
	TaskStatusRunning           TaskStatus = "running"
	TaskStatusPausedForApproval TaskStatus = "paused_for_approval"
	TaskStatusCompleted         TaskStatus = "completed"
	TaskStatusFailed            TaskStatus = "failed"
)

// IsTerminal reports whether the task will never transition again.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// StepStatus is the outcome recorded for one attempted plan step.
type StepStatus string

const (
	StepStatusOK      StepStatus = "ok"
	StepStatusError   StepStatus = "error"
	StepStatusSkipped StepStatus = "skipped"
)

// PlanStep is one invocation of a named tool, in the form "service.action".
// Immutable once produced by the Planner.
type PlanStep struct {
	Tool     string         `json:"tool"`
	Args     map[string]any `json:"args"`
	NeedsOK  bool           `json:"needs_ok"`
	OKPrompt *string        `json:"ok_prompt,omitempty"`
}

// Plan is an ordered, immutable sequence of steps produced by the LLM from a
// user utterance. Invariant: len(Steps) >= 1.
type Plan struct {
	Goal  string     `json:"goal"`
	Steps []PlanStep `json:"steps"`
}

// StepResult is appended by the Executor once per attempted step.
// Invariant: Results[i].StepIndex == i.
type StepResult struct {
	StepIndex int            `json:"step_index"`
	Tool      string         `json:"tool"`
	Args      map[string]any `json:"args"`
	Status    StepStatus     `json:"status"`
	Output    any            `json:"output,omitempty"`
	Error     *string        `json:"error,omitempty"`
}

// Task is the durable unit of work driven by the Executor.
type Task struct {
	ID                string
	Goal              string
	Plan              *Plan
	Status            TaskStatus
	CurrentStep       int
	Results           []StepResult
	PendingApprovalID *string
	Error             *string
	Reply             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Approval represents "the user has permitted step N of task T to proceed".
type Approval struct {
	ID         string
	TaskID     string
	StepIndex  int
	OKPrompt   string
	Approved   bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
}
