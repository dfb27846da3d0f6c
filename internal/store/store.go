// Package store implements the Task Store: durable task/approval
// persistence over PostgreSQL, plus the process-local approval signal
// registry backing approval wait/resume.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rachael-ai/orchestrator/internal/domain"
)

// Store is the Task Store's public surface.
type Store struct {
	pool     *pgxpool.Pool
	registry *signalRegistry
}

// New constructs a Store over an already-connected pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		registry: newSignalRegistry(),
	}
}

// planBlob is the JSON shape stored in tasks.plan_json.
type planBlob struct {
	Plan              *domain.Plan        `json:"plan"`
	Results           []domain.StepResult `json:"results"`
	CurrentStep       int                 `json:"current_step"`
	PendingApprovalID *string             `json:"pending_approval_id"`
}

// SaveTask upserts a task by id, refreshing updated_at.
func (s *Store) SaveTask(ctx context.Context, task *domain.Task) error {
	blob := planBlob{
		Plan:              task.Plan,
		Results:           task.Results,
		CurrentStep:       task.CurrentStep,
		PendingApprovalID: task.PendingApprovalID,
	}
	planJSON, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("encoding plan_json: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO tasks (id, goal, plan_json, status, error, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			goal       = EXCLUDED.goal,
			plan_json  = EXCLUDED.plan_json,
			status     = EXCLUDED.status,
			error      = EXCLUDED.error,
			updated_at = now()
	`, task.ID, task.Goal, planJSON, dbStatus(task.Status), task.Error, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask returns ErrNotFound when the task id is unknown.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, goal, plan_json, status, error, created_at, updated_at
		FROM tasks WHERE id = $1
	`, id)
	task, err := scanTask(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return task, nil
}

// ListTasks returns tasks newest-first.
func (s *Store) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, goal, plan_json, status, error, created_at, updated_at
		FROM tasks ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		id, goal, status string
		planJSON         []byte
		errStr           *string
		createdAt        time.Time
		updatedAt        time.Time
	)

	if err := row.Scan(&id, &goal, &planJSON, &status, &errStr, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var blob planBlob
	if len(planJSON) > 0 {
		if err := json.Unmarshal(planJSON, &blob); err != nil {
			return nil, fmt.Errorf("decoding plan_json: %w", err)
		}
	}

	return &domain.Task{
		ID:                id,
		Goal:              goal,
		Plan:              blob.Plan,
		Status:            taskStatus(status),
		CurrentStep:       blob.CurrentStep,
		Results:           blob.Results,
		PendingApprovalID: blob.PendingApprovalID,
		Error:             errStr,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
}

// SaveApproval inserts the approval if absent (idempotent) and, on first
// save, allocates the process-local signal bound to its id. The signal is
// created here — before the caller persists the task as
// paused_for_approval — closing the window between persistence and waiter
// registration.
func (s *Store) SaveApproval(ctx context.Context, approval *domain.Approval) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO approvals (id, task_id, step_index, ok_prompt, status, created_at)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		ON CONFLICT (id) DO NOTHING
	`, approval.ID, approval.TaskID, approval.StepIndex, approval.OKPrompt, approval.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving approval %s: %w", approval.ID, err)
	}

	s.registry.ensure(approval.ID)
	return nil
}

// GetApproval returns ErrNotFound when the approval id is unknown.
func (s *Store) GetApproval(ctx context.Context, id string) (*domain.Approval, error) {
	var (
		approvalID, taskID, okPrompt, status string
		stepIndex                            int
		createdAt                            time.Time
		resolvedAt                           *time.Time
	)

	err := s.pool.QueryRow(ctx, `
		SELECT id, task_id, step_index, ok_prompt, status, created_at, resolved_at
		FROM approvals WHERE id = $1
	`, id).Scan(&approvalID, &taskID, &stepIndex, &okPrompt, &status, &createdAt, &resolvedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("getting approval %s: %w", id, err)
	}

	return &domain.Approval{
		ID:         approvalID,
		TaskID:     taskID,
		StepIndex:  stepIndex,
		OKPrompt:   okPrompt,
		Approved:   status == approvalStatusApproved,
		CreatedAt:  createdAt,
		ResolvedAt: resolvedAt,
	}, nil
}

// GetSignal returns the process-local signal for approvalID, or false if it
// is unknown in this process (e.g. after a restart).
func (s *Store) GetSignal(approvalID string) (Signal, bool) {
	return s.registry.get(approvalID)
}

// Signal is the subset of the one-shot signal the Executor needs to wait on.
type Signal interface {
	Done() <-chan struct{}
}

// ResolveApproval atomically transitions an approval from pending to
// approved. Returns true (and fires the signal) only on the call that
// performs the transition; a later call on an already-resolved approval
// returns false without side effects.
func (s *Store) ResolveApproval(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE approvals
		SET status = 'approved', resolved_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, fmt.Errorf("resolving approval %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return false, nil
	}

	s.registry.fire(id)
	return true, nil
}

// SweepInterruptedTasks fails every task left paused_for_approval from a
// prior process lifetime, since their approval signal could not have
// survived the restart.
func (s *Store) SweepInterruptedTasks(ctx context.Context) (int64, error) {
	msg := "interrupted by restart"
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET status = $1, error = $2, updated_at = now()
		WHERE status = $3
	`, persistedFailed, msg, persistedWaitingApproval)
	if err != nil {
		return 0, fmt.Errorf("sweeping interrupted tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// NewTaskID and NewApprovalID generate the UUIDs used as Task/Approval ids.
// Kept as thin wrappers so callers never import google/uuid directly.
func NewTaskID() string      { return uuid.NewString() }
func NewApprovalID() string  { return uuid.NewString() }
