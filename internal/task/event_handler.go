package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// TaskRequestHandler handles task request events by creating the matching
// task and submitting it to the runner.
type TaskRequestHandler struct {
	runner              *TaskRunner
	notificationFactory *NotificationTaskFactory
	logger              *slog.Logger
}

// Ensure TaskRequestHandler implements events.EventHandler
var _ events.EventHandler = (*TaskRequestHandler)(nil)

// NewTaskRequestHandler creates a new TaskRequestHandler.
func NewTaskRequestHandler(
	runner *TaskRunner,
	notificationFactory *NotificationTaskFactory,
	log *slog.Logger,
) *TaskRequestHandler {
	return &TaskRequestHandler{
		runner:              runner,
		notificationFactory: notificationFactory,
		logger:              log.With("component", "task_request_handler"),
	}
}

// HandleEvent processes a task request event, constructing the task for the
// event's type and submitting it for background execution.
func (h *TaskRequestHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	switch event.Type {
	case TaskTypeTodoNotification:
		var payload notificationPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("failed to unmarshal todo notification payload: %w", err)
		}

		t, err := h.notificationFactory.CreateTask(payload.TodoID, payload.Action)
		if err != nil {
			return fmt.Errorf("failed to create todo notification task: %w", err)
		}

		if err := h.runner.Submit(ctx, t); err != nil {
			return fmt.Errorf("failed to submit todo notification task: %w", err)
		}

		log.Debug("todo notification task submitted",
			"task_id", t.ID(),
			"todo_id", payload.TodoID,
			"action", payload.Action)
		return nil

	default:
		log.Warn("ignoring task request with unknown type", "event_type", event.Type)
		return nil
	}
}
