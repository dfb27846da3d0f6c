package store

import "github.com/rachael-ai/orchestrator/internal/domain"

// The persisted status vocabulary differs from the in-memory enum: it also
// distinguishes a cancelled task, which this process folds back into
// failed. This table is the single source of truth for the mapping; adding
// a new status means editing it here and nowhere else.
const (
	persistedPending         = "pending"
	persistedRunning         = "running"
	persistedWaitingApproval = "waiting_approval"
	persistedDone            = "done"
	persistedFailed          = "failed"
	persistedCancelled       = "cancelled"
)

var statusToDB = map[domain.TaskStatus]string{
	domain.TaskStatusPending:           persistedPending,
	domain.TaskStatusRunning:           persistedRunning,
	domain.TaskStatusPausedForApproval: persistedWaitingApproval,
	domain.TaskStatusCompleted:         persistedDone,
	domain.TaskStatusFailed:            persistedFailed,
}

var statusFromDB = map[string]domain.TaskStatus{
	persistedPending:         domain.TaskStatusPending,
	persistedRunning:         domain.TaskStatusRunning,
	persistedWaitingApproval: domain.TaskStatusPausedForApproval,
	persistedDone:            domain.TaskStatusCompleted,
	persistedFailed:          domain.TaskStatusFailed,
	persistedCancelled:       domain.TaskStatusFailed,
}

func dbStatus(s domain.TaskStatus) string {
	if v, ok := statusToDB[s]; ok {
		return v
	}
	return persistedPending
}

func taskStatus(s string) domain.TaskStatus {
	if v, ok := statusFromDB[s]; ok {
		return v
	}
	return domain.TaskStatusPending
}

const (
	approvalStatusPending  = "pending"
	approvalStatusApproved = "approved"
)
