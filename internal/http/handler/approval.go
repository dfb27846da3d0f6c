package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/http/dto"
)

// approvalStore is the subset of the Task Store the handler resolves
// approvals through.
type approvalStore interface {
	GetApproval(ctx context.Context, id string) (*domain.Approval, error)
	ResolveApproval(ctx context.Context, id string) (bool, error)
}

// ApprovalHandler serves POST /v1/approvals/{approval_id}/ok.
type ApprovalHandler struct {
	store approvalStore
}

func NewApprovalHandler(store approvalStore) *ApprovalHandler {
	return &ApprovalHandler{store: store}
}

func (h *ApprovalHandler) Approve(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("approval_id")

	approval, err := h.store.GetApproval(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "approval not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get approval", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get approval"})
		return
	}

	resolved, err := h.store.ResolveApproval(ctx, id)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve approval", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve approval"})
		return
	}
	if !resolved {
		c.JSON(http.StatusConflict, gin.H{"error": "approval already resolved"})
		return
	}

	now := time.Now()
	approval.Approved = true
	approval.ResolvedAt = &now

	c.JSON(http.StatusOK, dto.NewApprovalResponse(approval))
}
