package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rachael-ai/orchestrator/internal/domain"
	"github.com/rachael-ai/orchestrator/internal/http/handler"
	"github.com/rachael-ai/orchestrator/internal/planner"
)

var _ = Describe("TaskHandler", func() {
	var (
		router *gin.Engine
		store  *fakeTaskStore
		runner *fakeRunner
		llmGW  *fakeLLM
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		store = newFakeTaskStore()
		runner = &fakeRunner{}
		llmGW = &fakeLLM{
			plan: map[string]any{
				"goal": "open google",
				"steps": []any{
					map[string]any{"tool": "browser.open", "args": map[string]any{"url": "https://google.com"}},
				},
			},
		}
		h := handler.NewTaskHandler(store, planner.New(llmGW), runner)
		router.POST("/v1/chat", h.Chat)
		router.POST("/v1/tasks/enqueue", h.Enqueue)
		router.GET("/v1/tasks/:task_id", h.Get)
	})

	Describe("POST /v1/chat", func() {
		It("returns 200 and starts the task's background activity", func() {
			body, _ := json.Marshal(map[string]string{"message": "open google"})
			req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["task_id"]).NotTo(BeEmpty())
			Expect(resp["status"]).To(Equal(string(domain.TaskStatusPending)))

			Eventually(runner.runCount).Should(Equal(1))
		})

		It("returns 502 when the planner fails, and still persists the task as failed", func() {
			llmGW.planErr = fmt.Errorf("upstream down")
			body, _ := json.Marshal(map[string]string{"message": "do something"})
			req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadGateway))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			taskID, ok := resp["task_id"].(string)
			Expect(ok).To(BeTrue())
			Expect(taskID).NotTo(BeEmpty())

			getReq := httptest.NewRequest(http.MethodGet, "/v1/tasks/"+taskID, nil)
			getW := httptest.NewRecorder()
			router.ServeHTTP(getW, getReq)

			Expect(getW.Code).To(Equal(http.StatusOK))
			var task map[string]any
			Expect(json.Unmarshal(getW.Body.Bytes(), &task)).To(Succeed())
			Expect(task["status"]).To(Equal(string(domain.TaskStatusFailed)))
			Expect(task["error"]).To(ContainSubstring("upstream down"))
			Expect(task["plan"]).To(BeNil())
		})

		It("returns 400 on a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("POST /v1/tasks/enqueue", func() {
		It("returns 202 with the TaskResponse projection", func() {
			body, _ := json.Marshal(map[string]string{"message": "open google"})
			req := httptest.NewRequest(http.MethodPost, "/v1/tasks/enqueue", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusAccepted))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["goal"]).To(Equal("open google"))
		})
	})

	Describe("GET /v1/tasks/:task_id", func() {
		It("returns 200 for a known task", func() {
			task := &domain.Task{ID: "task-1", Goal: "ping", Status: domain.TaskStatusCompleted}
			Expect(store.SaveTask(context.Background(), task)).To(Succeed())

			req := httptest.NewRequest(http.MethodGet, "/v1/tasks/task-1", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 404 for an unknown task", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/tasks/nope", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
