package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeOrderNotify is the asynq task type for order notifications.
const TaskTypeOrderNotify = "order:notify"

// OrderNotifyPayload is the serialized payload for an order notification task.
type OrderNotifyPayload struct {
	DocID string `json:"doc_id"`
}

// NewOrderNotifyTask creates a new asynq task for notifying one order document.
func NewOrderNotifyTask(docID string) (*asynq.Task, error) {
	payload, err := json.Marshal(OrderNotifyPayload{DocID: docID})
	if err != nil {
		return nil, fmt.Errorf("marshaling task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeOrderNotify, payload), nil
}

// ParseOrderNotifyPayload deserializes the task payload.
func ParseOrderNotifyPayload(data []byte) (*OrderNotifyPayload, error) {
	var p OrderNotifyPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling task payload: %w", err)
	}
	return &p, nil
}
