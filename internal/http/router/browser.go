package router

import (
	"github.com/gin-gonic/gin"

	"github.com/rachael-ai/orchestrator/internal/http/handler"
)

func BrowserProxyRouter(router *gin.RouterGroup, h *handler.BrowserProxyHandler) {
	router.POST("/proxy", h.Proxy)
}
