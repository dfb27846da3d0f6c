package router

import (
	"github.com/gin-gonic/gin"

	"github.com/rachael-ai/orchestrator/internal/http/handler"
)

func TaskRouter(router *gin.RouterGroup, h *handler.TaskHandler) {
	router.POST("/enqueue", h.Enqueue)
	router.GET("/:task_id", h.Get)
}
