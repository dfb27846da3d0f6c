package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rachael-ai/orchestrator/common"
	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/http/dto"
	"github.com/rachael-ai/orchestrator/internal/planner"
	"github.com/rachael-ai/orchestrator/internal/store"
)

// taskStore is the subset of the Task Store the handler persists through.
type taskStore interface {
	SaveTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
}

// taskRunner starts a Task's background activity. Satisfied by
// *executor.Executor; kept as an interface so the handler doesn't need to
// import the executor package's concrete dependencies.
type taskRunner interface {
	Run(ctx context.Context, task *domain.Task) error
}

// TaskHandler serves the Task Store-backed endpoints of the API Surface.
type TaskHandler struct {
	store   taskStore
	planner *planner.Planner
	runner  taskRunner
}

func NewTaskHandler(store taskStore, plnr *planner.Planner, runner taskRunner) *TaskHandler {
	return &TaskHandler{store: store, planner: plnr, runner: runner}
}

// Chat handles POST /v1/chat: runs the Planner synchronously and, on
// success, starts the Task's background activity before returning.
func (h *TaskHandler) Chat(c *gin.Context) {
	var req dto.ChatOrEnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.createTask(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		if task == nil {
			slog.ErrorContext(c.Request.Context(), "failed to create task", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "planner failed", "task_id", task.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"task_id": task.ID, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		TaskID:  task.ID,
		Status:  task.Status,
		Message: "task created",
	})
}

// Enqueue handles POST /v1/tasks/enqueue: identical planning/execution flow
// to Chat, but returns the full TaskResponse projection with 202 Accepted.
func (h *TaskHandler) Enqueue(c *gin.Context) {
	var req dto.ChatOrEnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.createTask(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		if task == nil {
			slog.ErrorContext(c.Request.Context(), "failed to create task", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "planner failed", "task_id", task.ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"task_id": task.ID, "error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, dto.NewTaskResponse(task))
}

// Get handles GET /v1/tasks/{task_id}.
func (h *TaskHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	task, err := h.store.GetTask(ctx, c.Param("task_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

// createTask persists a pending Task first, then runs the Planner
// synchronously against it. A planner failure re-saves the same Task as
// failed (with the error recorded) rather than losing it, so GET
// /v1/tasks/{id} can still report it — once the initial save succeeds, the
// task exists in the store whichever branch createTask returns through. If
// that initial save fails, nothing is stored and nil is returned. On planner success
// the Task is saved again with its Plan attached and its background activity
// is launched on a context derived from context.Background() rather than the
// request context, since the activity must outlive the HTTP response that
// triggered it.
func (h *TaskHandler) createTask(ctx context.Context, message, sessionID string) (*domain.Task, error) {
	now := time.Now()
	task := &domain.Task{
		ID:        store.NewTaskID(),
		Goal:      message,
		Status:    domain.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	plan, err := h.planner.BuildPlan(ctx, message)
	if err != nil {
		msg := err.Error()
		task.Status = domain.TaskStatusFailed
		task.Error = &msg
		task.UpdatedAt = time.Now()
		if saveErr := h.store.SaveTask(ctx, task); saveErr != nil {
			slog.ErrorContext(ctx, "failed to persist failed task after planner error", "task_id", task.ID, "error", saveErr)
		}
		return task, err
	}

	task.Plan = plan
	task.Goal = plan.Goal
	task.UpdatedAt = time.Now()
	if err := h.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	// session_id is caller-supplied and may be absent; the readable label for
	// log correlation is derived from it, falling back to the plan's goal and
	// then to the raw task ID.
	sessionLabel, err := common.Slugify(sessionID, plan.Goal)
	if err != nil {
		sessionLabel = task.ID
	}
	slog.InfoContext(ctx, "task created", "task_id", task.ID, "session", sessionLabel)

	go func() {
		runCtx := context.Background()
		if err := h.runner.Run(runCtx, task); err != nil {
			slog.ErrorContext(runCtx, "task activity failed", "task_id", task.ID, "error", err)
		}
	}()

	return task, nil
}
