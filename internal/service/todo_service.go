package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/phrazzld/todo-api/internal/task"
)

// UpdateTodoInput carries the mutable fields of a todo update. Nil fields
// are left unchanged on the record.
type UpdateTodoInput struct {
	Title       *string
	Description *string
	Status      *string
	Image       *string
}

// TodoService provides todo operations. Writes emit a notification event
// after the database change has committed.
type TodoService interface {
	// ListTodos returns one page of todos matching the filter.
	// An unparseable created-date filter yields an empty page.
	ListTodos(ctx context.Context, filter store.TodoFilter, page store.PageRequest) (*store.Page[*domain.Todo], error)

	// CreateTodo creates a new todo for the given user and enqueues a
	// "created" notification to the owner.
	CreateTodo(ctx context.Context, userID uuid.UUID, title, description, status, image string) (*domain.Todo, error)

	// GetTodo retrieves a todo by its ID.
	GetTodo(ctx context.Context, todoID uuid.UUID) (*domain.Todo, error)

	// UpdateTodo applies the input to an existing todo and enqueues an
	// "updated" notification to the owner.
	UpdateTodo(ctx context.Context, todoID uuid.UUID, input UpdateTodoInput) (*domain.Todo, error)

	// UpdateTodoStatus changes only the status of an existing todo and
	// enqueues an "updated" notification to the owner.
	UpdateTodoStatus(ctx context.Context, todoID uuid.UUID, status string) (*domain.Todo, error)

	// DeleteTodo removes a todo. Deletes do not notify.
	DeleteTodo(ctx context.Context, todoID uuid.UUID) error
}

// TodoServiceError wraps errors from the todo service with context.
type TodoServiceError struct {
	// Operation is the operation that failed (e.g., "create_todo", "list_todos")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TodoServiceError.
func (e *TodoServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("todo service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("todo service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TodoServiceError) Unwrap() error {
	return e.Err
}

// NewTodoServiceError creates a new TodoServiceError.
// Sentinel and domain validation errors pass through unwrapped so callers
// can match them with errors.Is.
func NewTodoServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTodoNotFound) {
		return ErrTodoNotFound
	}
	if errors.Is(err, store.ErrTodoNotFound) {
		return ErrTodoNotFound
	}

	return &TodoServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// txRunnerFn executes the given function within a database transaction.
// It exists as a seam so tests can run transactional paths against an
// in-memory store.
type txRunnerFn func(ctx context.Context, fn store.TxFn) error

// todoServiceImpl implements the TodoService interface
type todoServiceImpl struct {
	todoStore    store.TodoStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger
	runInTx      txRunnerFn
}

// NewTodoService creates a new TodoService.
// It returns an error if any of the required dependencies are nil.
func NewTodoService(
	db *sql.DB,
	todoStore store.TodoStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (TodoService, error) {
	if db == nil {
		return nil, &TodoServiceError{
			Operation: "create_service",
			Message:   "db cannot be nil",
		}
	}
	if todoStore == nil {
		return nil, &TodoServiceError{
			Operation: "create_service",
			Message:   "todoStore cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &TodoServiceError{
			Operation: "create_service",
			Message:   "eventEmitter cannot be nil",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &todoServiceImpl{
		todoStore:    todoStore,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "todo_service"),
		runInTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
	}, nil
}

// ListTodos returns one page of todos matching the filter.
func (s *todoServiceImpl) ListTodos(
	ctx context.Context,
	filter store.TodoFilter,
	page store.PageRequest,
) (*store.Page[*domain.Todo], error) {
	page = page.Normalize()

	// A malformed date can never match a row, so skip the query entirely
	// rather than push an invalid cast into the database.
	if filter.CreatedDate != "" {
		if _, err := time.Parse("2006-01-02", filter.CreatedDate); err != nil {
			s.logger.Debug("unparseable created-date filter, returning empty page",
				"created_date", filter.CreatedDate)
			// Pin the page to 1 so the pagination links of the fabricated
			// empty result stay within its single (empty) page.
			return &store.Page[*domain.Todo]{
				Items:   []*domain.Todo{},
				Total:   0,
				Page:    1,
				PerPage: page.PerPage,
			}, nil
		}
	}

	result, err := s.todoStore.List(ctx, filter, page)
	if err != nil {
		s.logger.Error("failed to list todos", "error", err)
		return nil, NewTodoServiceError("list_todos", "failed to list todos", err)
	}

	return result, nil
}

// CreateTodo creates a new todo and emits a "created" notification event.
func (s *todoServiceImpl) CreateTodo(
	ctx context.Context,
	userID uuid.UUID,
	title, description, status, image string,
) (*domain.Todo, error) {
	todo, err := domain.NewTodo(userID, title, description, domain.TodoStatus(status))
	if err != nil {
		s.logger.Warn("failed to construct todo",
			"error", err,
			"user_id", userID)
		return nil, NewTodoServiceError("create_todo", "invalid todo data", err)
	}
	todo.Image = image

	err = s.runInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.todoStore.WithTx(tx).Create(ctx, todo); err != nil {
			s.logger.Error("failed to create todo in transaction",
				"error", err,
				"todo_id", todo.ID,
				"user_id", userID)
			return NewTodoServiceError("create_todo", "failed to save todo", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("todo created",
		"todo_id", todo.ID,
		"user_id", userID,
		"status", todo.Status)

	s.emitNotification(ctx, todo.ID, task.ActionCreated)
	return todo, nil
}

// GetTodo retrieves a todo by its ID.
func (s *todoServiceImpl) GetTodo(ctx context.Context, todoID uuid.UUID) (*domain.Todo, error) {
	todo, err := s.todoStore.GetByID(ctx, todoID)
	if err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		s.logger.Error("failed to retrieve todo",
			"error", err,
			"todo_id", todoID)
		return nil, NewTodoServiceError("get_todo", "failed to retrieve todo", err)
	}

	return todo, nil
}

// UpdateTodo applies the input and emits an "updated" notification event.
func (s *todoServiceImpl) UpdateTodo(
	ctx context.Context,
	todoID uuid.UUID,
	input UpdateTodoInput,
) (*domain.Todo, error) {
	var updated *domain.Todo

	err := s.runInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.todoStore.WithTx(tx)

		todo, err := txStore.GetByID(ctx, todoID)
		if err != nil {
			if errors.Is(err, store.ErrTodoNotFound) {
				return ErrTodoNotFound
			}
			return NewTodoServiceError("update_todo", "failed to retrieve todo", err)
		}

		if input.Title != nil {
			todo.Title = *input.Title
		}
		if input.Description != nil {
			todo.Description = *input.Description
		}
		if input.Status != nil {
			todo.Status = domain.TodoStatus(*input.Status)
		}
		if input.Image != nil {
			todo.Image = *input.Image
		}
		todo.UpdatedAt = time.Now().UTC()

		if err := txStore.Update(ctx, todo); err != nil {
			if errors.Is(err, store.ErrTodoNotFound) {
				return ErrTodoNotFound
			}
			return NewTodoServiceError("update_todo", "failed to save todo", err)
		}

		updated = todo
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrTodoNotFound) {
			s.logger.Error("failed to update todo",
				"error", err,
				"todo_id", todoID)
		}
		return nil, err
	}

	s.logger.Info("todo updated",
		"todo_id", todoID,
		"status", updated.Status)

	s.emitNotification(ctx, todoID, task.ActionUpdated)
	return updated, nil
}

// UpdateTodoStatus changes only the status and emits an "updated" event.
func (s *todoServiceImpl) UpdateTodoStatus(
	ctx context.Context,
	todoID uuid.UUID,
	status string,
) (*domain.Todo, error) {
	todo, err := s.todoStore.UpdateStatus(ctx, todoID, domain.TodoStatus(status))
	if err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		if errors.Is(err, domain.ErrInvalidTodoStatus) {
			return nil, err
		}
		s.logger.Error("failed to update todo status",
			"error", err,
			"todo_id", todoID,
			"status", status)
		return nil, NewTodoServiceError("update_todo_status", "failed to update status", err)
	}

	s.logger.Info("todo status updated",
		"todo_id", todoID,
		"status", status)

	s.emitNotification(ctx, todoID, task.ActionUpdated)
	return todo, nil
}

// DeleteTodo removes a todo by its ID.
func (s *todoServiceImpl) DeleteTodo(ctx context.Context, todoID uuid.UUID) error {
	if err := s.todoStore.Delete(ctx, todoID); err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			return ErrTodoNotFound
		}
		s.logger.Error("failed to delete todo",
			"error", err,
			"todo_id", todoID)
		return NewTodoServiceError("delete_todo", "failed to delete todo", err)
	}

	s.logger.Info("todo deleted", "todo_id", todoID)
	return nil
}

// emitNotification publishes a notification task request for the todo.
// The write has already committed, so a failure here only costs the email;
// it never rolls back the todo change.
func (s *todoServiceImpl) emitNotification(ctx context.Context, todoID uuid.UUID, action string) {
	payload := struct {
		TodoID uuid.UUID `json:"todo_id"`
		Action string    `json:"action"`
	}{
		TodoID: todoID,
		Action: action,
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypeTodoNotification, payload)
	if err != nil {
		s.logger.Error("failed to create notification event",
			"error", err,
			"todo_id", todoID,
			"action", action)
		return
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit notification event",
			"error", err,
			"todo_id", todoID,
			"action", action,
			"event_id", event.ID)
		return
	}

	s.logger.Debug("notification event emitted",
		"todo_id", todoID,
		"action", action,
		"event_id", event.ID)
}
