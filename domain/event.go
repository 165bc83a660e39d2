package domain

import "github.com/bytedance/sonic"

// TaskEvent records one task mutation for downstream consumers.
type TaskEvent struct {
	// ID carries the idempotency key when enqueued to the event queue.
	ID          string                 `json:"id,omitempty"`
	WorkspaceID string                 `json:"workspaceId"`
	EntityType  string                 `json:"entityType"`
	Type        string                 `json:"type"`
	EntityID    string                 `json:"entityId"`
	Data        sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp   int64                  `json:"timestamp"`
}

// EventEnvelope wraps an event with the user who caused it.
type EventEnvelope struct {
	UserID string    `json:"userId"`
	Event  TaskEvent `json:"event"`
}
