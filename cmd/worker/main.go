package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rachael-ai/orchestrator/common/id"
	"github.com/rachael-ai/orchestrator/common/logger"
	"github.com/rachael-ai/orchestrator/common/otel"
	"github.com/rachael-ai/orchestrator/core/config"
	"github.com/rachael-ai/orchestrator/internal/queue"
	"github.com/rachael-ai/orchestrator/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "orchestrator worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.ConsumerGroup,
		"consumer_name", cfg.Queue.Consumer)

	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

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
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.Stream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Queue.Stream,
		Group:        cfg.Queue.ConsumerGroup,
		Consumer:     cfg.Queue.Consumer,
		DLQStream:    cfg.Queue.DLQStream,
		BatchSize:    int64(cfg.Worker.Concurrency),
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Worker.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	producer := queue.NewRedisProducer(redisClient, cfg.Queue.Stream)
	defer producer.Close()

	// The worker calls the API server over loopback rather than the bind
	// address (0.0.0.0 is not a valid dial target).
	processor := worker.NewHTTPProcessor(
		"http://127.0.0.1:"+cfg.API.Port,
		cfg.Browser.AgentURL,
		cfg.LLM.BaseURL,
		time.Duration(cfg.Worker.JobTimeout)*time.Second,
	)

	w := worker.New(consumer, processor, worker.Config{
		MaxAttempts: cfg.Worker.MaxAttempts,
		Concurrency: cfg.Worker.Concurrency,
	})

	scheduler := worker.NewScheduler(producer, worker.ScheduleConfig{
		HealthCheckEveryNMinutes: cfg.Schedule.HealthCheckEveryNMinutes,
		DailyBriefingHour:        cfg.Schedule.DailyBriefingHour,
		DailyBriefingMinute:      cfg.Schedule.DailyBriefingMinute,
	})
	if err := scheduler.Start(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to start scheduler", "error", err)
		os.Exit(1)
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "worker loop exited with error", "error", err)
		}
	}()

	slog.InfoContext(ctx, "worker running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutdown signal received, initiating graceful shutdown...")

	scheduler.Stop()
	w.Stop()
	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := redisClient.Close(); err != nil {
		slog.ErrorContext(shutdownCtx, "redis close error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

const banner = `
 ██████╗  █████╗  ██████╗██╗  ██╗ █████╗ ███████╗██╗
 ██╔══██╗██╔══██╗██╔════╝██║  ██║██╔══██╗██╔════╝██║
 ██████╔╝███████║██║     ███████║███████║█████╗  ██║
 ██╔══██╗██╔══██║██║     ██╔══██║██╔══██║██╔══╝  ██║
 ██║  ██║██║  ██║╚██████╗██║  ██║██║  ██║███████╗███████╗
 ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚══════╝
 orchestrator periodic worker
`
