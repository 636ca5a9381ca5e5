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

	"orderpulse/internal/config"
	"orderpulse/internal/domain/notify"
	"orderpulse/internal/domain/weather"
	"orderpulse/internal/infra/feed"
	"orderpulse/internal/infra/keys"
	"orderpulse/internal/infra/llm"
	"orderpulse/internal/infra/push"
	"orderpulse/internal/infra/queue"
	"orderpulse/internal/infra/store"
	"orderpulse/internal/infra/weatherapi"
	"orderpulse/internal/infra/whatsapp"
	"orderpulse/internal/router"

	"github.com/hibiken/asynq"
)

// queueEnqueuer adapts the asynq client to the notify.Enqueuer interface.
type queueEnqueuer struct {
	client   *asynq.Client
	maxRetry int
}

func (q *queueEnqueuer) EnqueueOrderNotification(docID string) error {
	return queue.EnqueueOrderNotification(q.client, docID, q.maxRetry)
}

// pushDispatcher adapts the notification stack to the weather.PushDispatcher interface.
type pushDispatcher struct {
	resolver *notify.Resolver
	notifier *notify.Notifier
}

func (p *pushDispatcher) CollectPushTokens(ctx context.Context) ([]string, error) {
	return p.resolver.CollectPushTokens(ctx)
}

func (p *pushDispatcher) PushToTokens(ctx context.Context, tokens []string, title, body string) (int, int, error) {
	result, err := p.notifier.SendPush(ctx, tokens, title, body)
	if err != nil {
		return 0, 0, err
	}
	return result.Summary.Successful, result.Summary.Failed, nil
}

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

	slog.Info("configuration loaded", "port", cfg.Server.Port, "mode", cfg.Server.Mode)

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		slog.Error("invalid scheduler timezone", "timezone", cfg.Scheduler.Timezone, "error", err)
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

	// Asynq Client (for enqueuing tasks)
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()
	slog.Info("asynq client initialized", "redis", cfg.Redis.Address)

	enqueuer := &queueEnqueuer{
		client:   asynqClient,
		maxRetry: cfg.Queue.MaxRetry,
	}

	// Change Feed Listener
	orderFeed := feed.NewRedisFeed(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Feed.Channel)
	defer orderFeed.Close()

	listener := notify.NewListener(orderFeed, orderStore, enqueuer)

	listenerCtx, listenerCancel := context.WithCancel(context.Background())
	defer listenerCancel()

	if err := listener.Start(listenerCtx); err != nil {
		slog.Error("failed to start order listener", "error", err)
		os.Exit(1)
	}
	slog.Info("order listener started", "channel", cfg.Feed.Channel)

	// Message Transports
	chatTransport := whatsapp.NewClient(cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)
	pushTransport := push.NewFCMClient(cfg.Push.ServerKey)

	notifier := notify.NewNotifier(chatTransport, pushTransport, notify.NotifierConfig{
		AdminNumbers:     cfg.WhatsApp.AdminNumbers,
		TemplateName:     cfg.WhatsApp.TemplateName,
		TemplateLanguage: cfg.WhatsApp.TemplateLanguage,
		Location:         loc,
	})
	resolver := notify.NewResolver(orderStore)

	// Weather Notification Stack
	keyStore := keys.NewRedisKeyStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer keyStore.Close()

	weatherClient := weatherapi.NewOpenWeatherClient(keyStore)
	generator := weather.NewGenerator(
		weatherClient,
		weather.NewHistory(100),
		llm.NewGeminiGenerator(keyStore),
		llm.NewOpenAIGenerator(keyStore),
	)

	workflow := weather.NewWorkflow(
		generator,
		&pushDispatcher{resolver: resolver, notifier: notifier},
		cfg.Weather.City,
		cfg.Weather.Provider,
	)

	scheduler := weather.NewScheduler(workflow.Run, weather.SchedulerConfig{
		WindowStartHour: cfg.Scheduler.WindowStartHour,
		WindowEndHour:   cfg.Scheduler.WindowEndHour,
		Location:        loc,
	})
	scheduler.Start()
	slog.Info("weather scheduler started",
		"window_start", cfg.Scheduler.WindowStartHour,
		"window_end", cfg.Scheduler.WindowEndHour,
		"timezone", cfg.Scheduler.Timezone,
	)

	// Handlers
	notifyHandler := notify.NewHandler(notifier, resolver, orderStore)
	weatherHandler := weather.NewHandler(workflow, scheduler, keyStore)

	// Router
	r := router.New(cfg, notifyHandler, weatherHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	scheduler.Stop()
	listener.Stop()
	listenerCancel()

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
