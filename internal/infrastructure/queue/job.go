package queue

import (
	"encoding/json"
	"fmt"

	"upload-finalizer/internal/domain/entities"
)

const (
	PendingQueue    = "upload:tasks:pending"
	ProcessingQueue = "upload:tasks:processing"
	DeadQueue       = "upload:tasks:dead"
	// DelayedQueue is a sorted set of retries scored by the unix millisecond they become due.
	DelayedQueue = "upload:tasks:delayed"
)

// Delivery is a task taken off the pending list. Raw is the exact payload
// sitting in the processing list, needed to acknowledge it.
type Delivery struct {
	Task entities.UploadTask
	Raw  string
}

func DeserializeTask(data string) (*entities.UploadTask, error) {
	var task entities.UploadTask
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, fmt.Errorf("failed to deserialize task: %w", err)
	}
	return &task, nil
}

func SerializeTask(task entities.UploadTask) (string, error) {
	bytes, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}
	return string(bytes), nil
}
