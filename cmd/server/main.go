package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/rachael-ai/orchestrator/common/id"
	"github.com/rachael-ai/orchestrator/common/logger"
	"github.com/rachael-ai/orchestrator/common/otel"
	"github.com/rachael-ai/orchestrator/core/config"
	"github.com/rachael-ai/orchestrator/core/db"
	"github.com/rachael-ai/orchestrator/internal/browser"
	"github.com/rachael-ai/orchestrator/internal/executor"
	"github.com/rachael-ai/orchestrator/internal/http/handler"
	"github.com/rachael-ai/orchestrator/internal/http/middleware"
	httprouter "github.com/rachael-ai/orchestrator/internal/http/router"
	"github.com/rachael-ai/orchestrator/internal/llm"
	"github.com/rachael-ai/orchestrator/internal/planner"
	"github.com/rachael-ai/orchestrator/internal/queue"
	"github.com/rachael-ai/orchestrator/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses the OTel provider in production).
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "orchestrator server starting", "env", cfg.Env)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.Stream)

	taskStore := store.New(database.Pool())

	if recovered, err := taskStore.SweepInterruptedTasks(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to sweep interrupted tasks", "error", err)
		os.Exit(1)
	} else if recovered > 0 {
		slog.WarnContext(ctx, "swept tasks interrupted by a prior restart", "count", recovered)
	}

	llmGateway := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.Timeout) * time.Second,
	})

	browserGateway := browser.New(browser.Config{
		AgentURL: cfg.Browser.AgentURL,
		Timeout:  time.Duration(cfg.Browser.Timeout) * time.Second,
	})

	taskPlanner := planner.New(llmGateway)

	taskExecutor := executor.New(taskStore, browserGateway, llmGateway, store.NewApprovalID)

	producer := queue.NewRedisProducer(redisClient, cfg.Queue.Stream)
	defer producer.Close()

	handlers := httprouter.Handlers{
		Task:     handler.NewTaskHandler(taskStore, taskPlanner, taskExecutor),
		Approval: handler.NewApprovalHandler(taskStore),
		Browser:  handler.NewBrowserProxyHandler(browserGateway),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, handlers)
	server := &http.Server{
		Addr:              cfg.API.Host + ":" + cfg.API.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, handlers httprouter.Handlers) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates the span, Recovery catches panics further
	// down the chain, then Logger records the request with trace context.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, handlers)

	return router
}

const banner = `
 ██████╗  █████╗  ██████╗██╗  ██╗ █████╗ ███████╗██╗
 ██╔══██╗██╔══██╗██╔════╝██║  ██║██╔══██╗██╔════╝██║
 ██████╔╝███████║██║     ███████║███████║█████╗  ██║
 ██╔══██╗██╔══██║██║     ██╔══██║██╔══██║██╔══╝  ██║
 ██║  ██║██║  ██║╚██████╗██║  ██║██║  ██║███████╗███████╗
 ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚══════╝
 orchestrator api server
`
