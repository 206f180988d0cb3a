package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TodoStatus represents the workflow state of a todo item.
type TodoStatus string

// The fixed set of allowed todo states.
const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
	TodoStatusOnHold     TodoStatus = "on_hold"
	TodoStatusCanceled   TodoStatus = "canceled"
	TodoStatusArchived   TodoStatus = "archived"
)

// TodoStatuses returns all allowed todo status values.
func TodoStatuses() []TodoStatus {
	return []TodoStatus{
		TodoStatusPending,
		TodoStatusInProgress,
		TodoStatusCompleted,
		TodoStatusOnHold,
		TodoStatusCanceled,
		TodoStatusArchived,
	}
}

// IsValid reports whether the status is a member of the fixed enumeration.
func (s TodoStatus) IsValid() bool {
	switch s {
	case TodoStatusPending, TodoStatusInProgress, TodoStatusCompleted,
		TodoStatusOnHold, TodoStatusCanceled, TodoStatusArchived:
		return true
	}
	return false
}

// Common validation errors for Todo
var (
	ErrEmptyTodoID       = errors.New("todo ID cannot be empty")
	ErrEmptyTodoUserID   = errors.New("todo user ID cannot be empty")
	ErrEmptyTodoTitle    = errors.New("todo title cannot be empty")
	ErrTodoTitleTooLong  = errors.New("todo title must be at most 255 characters")
	ErrInvalidTodoStatus = errors.New("invalid todo status")
)

// maxTodoTitleLength bounds the title column.
const maxTodoTitleLength = 255

// Todo represents a task record owned by a user. Image holds a relative path
// into the upload area when an image was attached, and is empty otherwise.
type Todo struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image,omitempty"`
	Status      TodoStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTodo creates a new Todo owned by the given user.
// An empty status defaults to pending. Returns an error if validation fails.
func NewTodo(userID uuid.UUID, title, description string, status TodoStatus) (*Todo, error) {
	if status == "" {
		status = TodoStatusPending
	}

	todo := &Todo{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      status,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := todo.Validate(); err != nil {
		return nil, err
	}

	return todo, nil
}

// Validate checks if the Todo has valid data.
// Returns an error if any field fails validation.
func (t *Todo) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTodoID
	}

	if t.UserID == uuid.Nil {
		return ErrEmptyTodoUserID
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTodoTitle
	}

	if len(t.Title) > maxTodoTitleLength {
		return ErrTodoTitleTooLong
	}

	if !t.Status.IsValid() {
		return ErrInvalidTodoStatus
	}

	return nil
}

// UpdateStatus sets a new status on the todo, validating it against the
// enumeration and refreshing the update timestamp.
func (t *Todo) UpdateStatus(status TodoStatus) error {
	if !status.IsValid() {
		return ErrInvalidTodoStatus
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}
