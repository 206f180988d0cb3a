package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
)

// TodoFilter holds the optional list filters. Zero values mean "no filter".
type TodoFilter struct {
	// Title matches todos whose title contains this substring
	// (case sensitivity per the underlying store's LIKE semantics).
	Title string

	// Status matches todos whose status equals this value exactly.
	// Values outside the enumeration simply match nothing.
	Status string

	// CreatedDate matches todos created on this calendar date
	// ("YYYY-MM-DD", time-of-day ignored).
	CreatedDate string
}

// TodoStore defines the interface for todo data persistence.
type TodoStore interface {
	// Create saves a new todo to the store.
	// Returns validation errors from the domain Todo if data is invalid.
	// Returns ErrInvalidEntity if the owning user does not exist.
	Create(ctx context.Context, todo *domain.Todo) error

	// GetByID retrieves a todo by its unique ID.
	// Returns ErrTodoNotFound if the todo does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// List returns one page of todos matching the filter, ordered by
	// creation time then ID so offset pagination is stable.
	// Unmatched filters yield an empty page, never an error.
	List(ctx context.Context, filter TodoFilter, page PageRequest) (*Page[*domain.Todo], error)

	// Update replaces the mutable fields of an existing todo.
	// Returns ErrTodoNotFound if the todo does not exist.
	Update(ctx context.Context, todo *domain.Todo) error

	// UpdateStatus persists only the status field of an existing todo.
	// Returns ErrTodoNotFound if the todo does not exist.
	// Returns validation errors if the status is not in the enumeration.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TodoStatus) (*domain.Todo, error)

	// Delete hard-deletes a todo by its ID.
	// Returns ErrTodoNotFound if the todo does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new TodoStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TodoStore
}
