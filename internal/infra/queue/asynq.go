package queue

import (
	"fmt"

	"orderpulse/internal/domain/notify"

	"github.com/hibiken/asynq"
)

// NewClient creates a new asynq client connected to Redis.
func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
}

// NewServer creates a new asynq server connected to Redis.
func NewServer(redisAddr, password string, db int, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"orders":  10, // priority weight
				"default": 1,
			},
		},
	)
}

// EnqueueOrderNotification enqueues a notification task for one order
// document. maxRetry is 0 in production: the pipeline attempts each
// order notification at most once.
func EnqueueOrderNotification(client *asynq.Client, docID string, maxRetry int) error {
	task, err := notify.NewOrderNotifyTask(docID)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	_, err = client.Enqueue(task,
		asynq.MaxRetry(maxRetry),
		asynq.Queue("orders"),
	)
	if err != nil {
		return fmt.Errorf("enqueuing task: %w", err)
	}

	return nil
}
