// Package dto holds the HTTP request/response shapes for the API Surface,
// kept separate from internal/domain so the wire format can evolve (e.g.
// adding omitempty, renaming a JSON key) without touching the types the
// rest of the orchestrator operates on.
package dto

import (
	"time"

	"github.com/rachael-ai/orchestrator/internal/domain"
)

// ChatOrEnqueueRequest is the shared body for POST /v1/chat and
// POST /v1/tasks/enqueue.
type ChatOrEnqueueRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is returned by POST /v1/chat.
type ChatResponse struct {
	TaskID  string            `json:"task_id"`
	Status  domain.TaskStatus `json:"status"`
	Message string            `json:"message"`
}

// TaskResponse is the projection returned by POST /v1/tasks/enqueue and
// GET /v1/tasks/{task_id}.
type TaskResponse struct {
	TaskID            string              `json:"task_id"`
	Goal              string              `json:"goal"`
	Status            domain.TaskStatus   `json:"status"`
	Plan              *domain.Plan        `json:"plan,omitempty"`
	CurrentStep       int                 `json:"current_step"`
	Results           []domain.StepResult `json:"results"`
	PendingApprovalID *string             `json:"pending_approval_id"`
	Error             *string             `json:"error,omitempty"`
	Reply             *string             `json:"reply,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// NewTaskResponse projects a domain.Task onto its wire shape.
func NewTaskResponse(task *domain.Task) TaskResponse {
	results := task.Results
	if results == nil {
		results = []domain.StepResult{}
	}
	return TaskResponse{
		TaskID:            task.ID,
		Goal:              task.Goal,
		Status:            task.Status,
		Plan:              task.Plan,
		CurrentStep:       task.CurrentStep,
		Results:           results,
		PendingApprovalID: task.PendingApprovalID,
		Error:             task.Error,
		Reply:             task.Reply,
		CreatedAt:         task.CreatedAt,
		UpdatedAt:         task.UpdatedAt,
	}
}

// ApprovalResponse is returned by POST /v1/approvals/{approval_id}/ok.
type ApprovalResponse struct {
	ApprovalID string     `json:"approval_id"`
	TaskID     string     `json:"task_id"`
	StepIndex  int        `json:"step_index"`
	OKPrompt   string     `json:"ok_prompt"`
	Approved   bool       `json:"approved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// NewApprovalResponse projects a domain.Approval onto its wire shape.
func NewApprovalResponse(approval *domain.Approval) ApprovalResponse {
	return ApprovalResponse{
		ApprovalID: approval.ID,
		TaskID:     approval.TaskID,
		StepIndex:  approval.StepIndex,
		OKPrompt:   approval.OKPrompt,
		Approved:   approval.Approved,
		ResolvedAt: approval.ResolvedAt,
	}
}

// BrowserProxyRequest is the body for POST /internal/browser/proxy.
type BrowserProxyRequest struct {
	Action string         `json:"action" binding:"required"`
	Args   map[string]any `json:"args"`
}

// BrowserProxyResponse is the response for POST /internal/browser/proxy.
type BrowserProxyResponse struct {
	Action string `json:"action"`
	Result any    `json:"result"`
}
