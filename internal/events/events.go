// Package events decouples mutation points from the background task system.
// Services emit TaskRequestEvents at the point of a successful write; the
// registered handlers turn them into queued tasks.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskRequestEvent asks the task system to enqueue a background task. The
// payload stays opaque JSON here so emitting packages never import the task
// package.
type TaskRequestEvent struct {
	// ID identifies this emission, mostly for log correlation.
	ID uuid.UUID `json:"id"`

	// Type names the kind of task the handler should build.
	Type string `json:"type"`

	// Payload carries the task parameters as serialized JSON.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt records when the event was emitted.
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TaskRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent builds an event of the given type, serializing the
// payload to JSON. Fails only if the payload cannot be marshaled.
func NewTaskRequestEvent(eventType string, payload interface{}) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler consumes emitted events.
type EventHandler interface {
	// HandleEvent processes one event. An error means the event's side
	// effect (typically a queued task) could not be arranged.
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to whatever handlers are registered,
// keeping services ignorant of who consumes them.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
