package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/http/dto"
)

// browserGateway is the subset of the Browser Gateway the debug proxy uses.
type browserGateway interface {
	Dispatch(ctx context.Context, action string, args map[string]any) (any, error)
}

// BrowserProxyHandler serves POST /internal/browser/proxy: a direct,
// unauthenticated passthrough to the Browser Gateway for debugging and
// manual exploration outside of a Task's Plan.
type BrowserProxyHandler struct {
	browser browserGateway
}

func NewBrowserProxyHandler(browser browserGateway) *BrowserProxyHandler {
	return &BrowserProxyHandler{browser: browser}
}

func (h *BrowserProxyHandler) Proxy(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.BrowserProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.browser.Dispatch(ctx, req.Action, req.Args)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownAction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "browser proxy call failed", "action", req.Action, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.BrowserProxyResponse{Action: req.Action, Result: result})
}
