package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/http/handler"
)

var _ = Describe("BrowserProxyHandler", func() {
	var (
		router  *gin.Engine
		browser *fakeBrowserGateway
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		browser = &fakeBrowserGateway{}
		h := handler.NewBrowserProxyHandler(browser)
		router.POST("/internal/browser/proxy", h.Proxy)
	})

	It("forwards the action to the Browser Gateway and returns 200", func() {
		browser.result = map[string]any{"title": "Google"}

		body, _ := json.Marshal(map[string]any{"action": "snapshot", "args": map[string]any{}})
		req := httptest.NewRequest(http.MethodPost, "/internal/browser/proxy", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(browser.calls).To(ConsistOf("snapshot"))
	})

	It("returns 400 for an unknown action", func() {
		browser.err = fmt.Errorf("%w: %q", domain.ErrUnknownAction, "teleport")

		body, _ := json.Marshal(map[string]any{"action": "teleport", "args": map[string]any{}})
		req := httptest.NewRequest(http.MethodPost, "/internal/browser/proxy", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 502 on an upstream failure", func() {
		browser.err = fmt.Errorf("%w: action %q: connection refused", domain.ErrUpstream, "click")

		body, _ := json.Marshal(map[string]any{"action": "click", "args": map[string]any{"element_id": "x"}})
		req := httptest.NewRequest(http.MethodPost, "/internal/browser/proxy", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusBadGateway))
	})
})
