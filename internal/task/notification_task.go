package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/mail"
	"github.com/phrazzld/todo-api/internal/store"
)

// Valid action labels for todo notifications.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// Common errors
var (
	ErrNilTodoReader = errors.New("todo reader cannot be nil")
	ErrNilUserReader = errors.New("user reader cannot be nil")
	ErrNilMailer     = errors.New("mailer cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
	ErrEmptyTodoID   = errors.New("todo ID cannot be empty")
	ErrInvalidAction = errors.New("action must be created or updated")
)

// TodoReader loads todos for notification rendering.
type TodoReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error)
}

// UserReader loads the todo's owning user.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// notificationPayload represents the serialized data stored in the task
type notificationPayload struct {
	TodoID uuid.UUID `json:"todo_id"`
	Action string    `json:"action"`
}

// NotificationTask implements the Task interface for sending a templated
// email to a todo's owner after a create or update.
type NotificationTask struct {
	id     uuid.UUID
	todoID uuid.UUID
	action string
	todos  TodoReader
	users  UserReader
	mailer mail.Mailer
	logger *slog.Logger
	status TaskStatus
}

// Ensure NotificationTask implements the Task interface
var _ Task = (*NotificationTask)(nil)

// NewNotificationTask creates a new todo notification task.
func NewNotificationTask(
	todoID uuid.UUID,
	action string,
	todos TodoReader,
	users UserReader,
	mailer mail.Mailer,
	logger *slog.Logger,
) (*NotificationTask, error) {
	if todos == nil {
		return nil, ErrNilTodoReader
	}
	if users == nil {
		return nil, ErrNilUserReader
	}
	if mailer == nil {
		return nil, ErrNilMailer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if todoID == uuid.Nil {
		return nil, ErrEmptyTodoID
	}
	if action != ActionCreated && action != ActionUpdated {
		return nil, ErrInvalidAction
	}

	return &NotificationTask{
		id:     uuid.New(),
		todoID: todoID,
		action: action,
		todos:  todos,
		users:  users,
		mailer: mailer,
		logger: logger.With("task_type", TaskTypeTodoNotification, "todo_id", todoID),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *NotificationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *NotificationTask) Type() string {
	return TaskTypeTodoNotification
}

// Payload returns the serialized task data
func (t *NotificationTask) Payload() []byte {
	payload := notificationPayload{
		TodoID: t.todoID,
		Action: t.action,
	}

	// Marshal of a fixed struct cannot fail
	data, _ := json.Marshal(payload)
	return data
}

// Status returns the current task status
func (t *NotificationTask) Status() TaskStatus {
	return t.status
}

// Execute loads the todo and its owning user, renders the notification and
// sends it. A todo or user that no longer exists makes the task a silent
// no-op: records can be deleted between enqueue and execution.
func (t *NotificationTask) Execute(ctx context.Context) error {
	todo, err := t.todos.GetByID(ctx, t.todoID)
	if err != nil {
		if store.IsNotFoundError(err) {
			t.logger.Info("todo no longer exists, skipping notification",
				"action", t.action)
			return nil
		}
		return fmt.Errorf("failed to load todo for notification: %w", err)
	}

	user, err := t.users.GetByID(ctx, todo.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			t.logger.Info("todo owner no longer exists, skipping notification",
				"action", t.action,
				"user_id", todo.UserID)
			return nil
		}
		return fmt.Errorf("failed to load todo owner for notification: %w", err)
	}

	msg, err := mail.NewTodoNotification(user, todo, t.action)
	if err != nil {
		return fmt.Errorf("failed to render notification: %w", err)
	}

	if err := t.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	t.logger.Info("notification email sent",
		"action", t.action,
		"recipient", user.Email)
	return nil
}

// NotificationTaskFactory creates NotificationTask instances with their
// dependencies wired in.
type NotificationTaskFactory struct {
	todos  TodoReader
	users  UserReader
	mailer mail.Mailer
	logger *slog.Logger
}

// NewNotificationTaskFactory creates a new NotificationTaskFactory.
func NewNotificationTaskFactory(
	todos TodoReader,
	users UserReader,
	mailer mail.Mailer,
	logger *slog.Logger,
) *NotificationTaskFactory {
	return &NotificationTaskFactory{
		todos:  todos,
		users:  users,
		mailer: mailer,
		logger: logger,
	}
}

// CreateTask creates a new NotificationTask for the given todo and action.
func (f *NotificationTaskFactory) CreateTask(todoID uuid.UUID, action string) (Task, error) {
	return NewNotificationTask(todoID, action, f.todos, f.users, f.mailer, f.logger)
}

// Hydrate rebuilds a NotificationTask from its persisted form, preserving the
// original task ID so recovery doesn't duplicate rows. It satisfies the
// runner's Hydrator signature.
func (f *NotificationTaskFactory) Hydrate(id uuid.UUID, taskType string, payload []byte) (Task, error) {
	if taskType != TaskTypeTodoNotification {
		return nil, fmt.Errorf("unknown task type %q", taskType)
	}

	var p notificationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification payload: %w", err)
	}

	t, err := NewNotificationTask(p.TodoID, p.Action, f.todos, f.users, f.mailer, f.logger)
	if err != nil {
		return nil, err
	}
	t.id = id
	return t, nil
}
