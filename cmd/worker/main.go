package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderpulse/internal/config"
	"orderpulse/internal/domain/notify"
	"orderpulse/internal/infra/push"
	"orderpulse/internal/infra/queue"
	"orderpulse/internal/infra/store"
	"orderpulse/internal/infra/whatsapp"

	"github.com/hibiken/asynq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("worker configuration loaded")

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Scheduler.Timezone, "error", err)
		os.Exit(1)
	}

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Supabase Store
	orderStore, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Supabase.OrdersTable)
	if err != nil {
		slog.Error("failed to initialize supabase store", "error", err)
		os.Exit(1)
	}
	slog.Info("supabase store initialized", "table", cfg.Supabase.OrdersTable)

	// Message Transports
	chatTransport := whatsapp.NewClient(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)
	pushTransport := push.NewFCMClient(cfg.Push.ServerKey)

	notifier := notify.NewNotifier(chatTransport, pushTransport, notify.NotifierConfig{
		AdminNumbers:     cfg.WhatsApp.AdminNumbers,
		TemplateName:     cfg.WhatsApp.TemplateName,
		TemplateLanguage: cfg.WhatsApp.TemplateLanguage,
		Location:         loc,
	})

	// Order Notification Worker
	orderWorker := notify.NewWorker(orderStore, notifier)

	// ==========================================
	// Asynq Server (task processing)
	// ==========================================

	asynqServer := queue.NewServer(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Queue.Concurrency,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(notify.TaskTypeOrderNotify, func(ctx context.Context, task *asynq.Task) error {
		payload, err := notify.ParseOrderNotifyPayload(task.Payload())
		if err != nil {
			return err
		}
		return orderWorker.ProcessTask(ctx, payload.DocID)
	})

	// Start the asynq worker in a goroutine
	go func() {
		slog.Info("worker starting",
			"concurrency", cfg.Queue.Concurrency,
			"redis", cfg.Redis.Address,
		)
		if err := asynqServer.Run(mux); err != nil {
			slog.Error("worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Graceful Shutdown
	// ==========================================

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	asynqServer.Shutdown()
	slog.Info("worker exited gracefully")
}
