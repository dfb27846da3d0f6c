package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/http/handler"
)

var _ = Describe("ApprovalHandler", func() {
	var (
		router *gin.Engine
		store  *fakeApprovalStore
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		store = newFakeApprovalStore()
		h := handler.NewApprovalHandler(store)
		router.POST("/v1/approvals/:approval_id/ok", h.Approve)
	})

	It("returns 200 and resolves a pending approval", func() {
		store.put(&domain.Approval{ID: "approval-1", TaskID: "task-1", StepIndex: 0, OKPrompt: "proceed?"})

		req := httptest.NewRequest(http.MethodPost, "/v1/approvals/approval-1/ok", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["approved"]).To(BeTrue())
	})

	It("returns 404 for an unknown approval", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/approvals/nope/ok", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("returns 409 on a second resolve of the same approval", func() {
		store.put(&domain.Approval{ID: "approval-2", TaskID: "task-1", StepIndex: 0, OKPrompt: "proceed?"})

		first := httptest.NewRecorder()
		router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/approvals/approval-2/ok", nil))
		Expect(first.Code).To(Equal(http.StatusOK))

		second := httptest.NewRecorder()
		router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/approvals/approval-2/ok", nil))
		Expect(second.Code).To(Equal(http.StatusConflict))
	})
})
