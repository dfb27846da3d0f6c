package router

import (
	"github.com/gin-gonic/gin"

	"github.com/rachael-ai/orchestrator/internal/http/handler"
)

func ApprovalRouter(router *gin.RouterGroup, h *handler.ApprovalHandler) {
	router.POST("/:approval_id/ok", h.Approve)
}
