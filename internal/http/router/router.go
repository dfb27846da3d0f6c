package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rachael-ai/orchestrator/internal/http/handler"
)

// Handlers bundles the API Surface's handler instances for SetupRoutes.
type Handlers struct {
	Task     *handler.TaskHandler
	Approval *handler.ApprovalHandler
	Browser  *handler.BrowserProxyHandler
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/chat", h.Task.Chat)
		TaskRouter(v1.Group("/tasks"), h.Task)
		ApprovalRouter(v1.Group("/approvals"), h.Approval)
	}

	internal := router.Group("/internal")
	{
		BrowserProxyRouter(internal.Group("/browser"), h.Browser)
	}
}
