package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/store"
)

// PostgresTodoStore implements the store.TodoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTodoStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTodoStore creates a new PostgreSQL implementation of the
// TodoStore interface. If logger is nil, a default logger is used.
func NewPostgresTodoStore(db store.DBTX, logger *slog.Logger) *PostgresTodoStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTodoStore{
		db:     db,
		logger: logger.With(slog.String("component", "todo_store")),
	}
}

// Ensure PostgresTodoStore implements store.TodoStore interface
var _ store.TodoStore = (*PostgresTodoStore)(nil)

const todoColumns = "id, user_id, title, description, image, status, created_at, updated_at"

// Create implements store.TodoStore.Create
// Returns store.ErrInvalidEntity if the owning user does not exist.
func (s *PostgresTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		log.Warn("todo validation failed during create",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return err
	}

	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Image,
		todo.Status,
		todo.CreatedAt,
		todo.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during todo creation",
				slog.String("todo_id", todo.ID.String()),
				slog.String("user_id", todo.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, todo.UserID)
		}

		log.Error("failed to create todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return MapError(err)
	}

	log.Info("todo created successfully",
		slog.String("todo_id", todo.ID.String()),
		slog.String("status", string(todo.Status)))
	return nil
}

// GetByID implements store.TodoStore.GetByID
// Returns store.ErrTodoNotFound if the todo does not exist.
func (s *PostgresTodoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`

	todo, err := scanTodoRow(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("todo not found", slog.String("todo_id", id.String()))
			return nil, store.ErrTodoNotFound
		}
		log.Error("failed to get todo by ID",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return nil, MapError(err)
	}

	return todo, nil
}

// List implements store.TodoStore.List
// It applies the filter conditions, counts the full match set and then reads
// one page ordered by creation time then ID so offsets stay stable.
func (s *PostgresTodoStore) List(
	ctx context.Context,
	filter store.TodoFilter,
	page store.PageRequest,
) (*store.Page[*domain.Todo], error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	page = page.Normalize()

	where, args := buildTodoFilter(filter)

	countQuery := "SELECT COUNT(*) FROM todos" + where
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count todos", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	listQuery := fmt.Sprintf(
		"SELECT %s FROM todos%s ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d",
		todoColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, page.PerPage, page.Offset())

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		log.Error("failed to query todos", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	todos := []*domain.Todo{}
	for rows.Next() {
		todo, err := scanTodoRow(rows)
		if err != nil {
			log.Error("failed to scan todo row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed todos",
		slog.Int("count", len(todos)),
		slog.Int("total", total),
		slog.Int("page", page.Page))

	return &store.Page[*domain.Todo]{
		Items:   todos,
		Total:   total,
		Page:    page.Page,
		PerPage: page.PerPage,
	}, nil
}

// Update implements store.TodoStore.Update
// Returns store.ErrTodoNotFound if the todo does not exist.
func (s *PostgresTodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		log.Warn("todo validation failed during update",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return err
	}

	query := `
		UPDATE todos
		SET title = $1, description = $2, image = $3, status = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		todo.Title,
		todo.Description,
		todo.Image,
		todo.Status,
		todo.UpdatedAt,
		todo.ID,
	)
	if err != nil {
		log.Error("failed to update todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "todo"); err != nil {
		log.Debug("todo not found for update",
			slog.String("todo_id", todo.ID.String()))
		return store.ErrTodoNotFound
	}

	log.Info("todo updated successfully",
		slog.String("todo_id", todo.ID.String()),
		slog.String("status", string(todo.Status)))
	return nil
}

// UpdateStatus implements store.TodoStore.UpdateStatus
// Only the status and updated_at columns change. The updated row is returned
// so callers can respond without a second read.
func (s *PostgresTodoStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TodoStatus,
) (*domain.Todo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.IsValid() {
		log.Warn("invalid status for update",
			slog.String("todo_id", id.String()),
			slog.String("status", string(status)))
		return nil, domain.ErrInvalidTodoStatus
	}

	query := `
		UPDATE todos
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + todoColumns

	todo, err := scanTodoRow(s.db.QueryRowContext(ctx, query, status, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("todo not found for status update",
				slog.String("todo_id", id.String()))
			return nil, store.ErrTodoNotFound
		}
		log.Error("failed to update todo status",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return nil, MapError(err)
	}

	log.Info("todo status updated successfully",
		slog.String("todo_id", id.String()),
		slog.String("status", string(status)))
	return todo, nil
}

// Delete implements store.TodoStore.Delete
// Returns store.ErrTodoNotFound if the todo does not exist.
func (s *PostgresTodoStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "todo"); err != nil {
		log.Debug("todo not found for delete",
			slog.String("todo_id", id.String()))
		return store.ErrTodoNotFound
	}

	log.Info("todo deleted successfully", slog.String("todo_id", id.String()))
	return nil
}

// WithTx implements store.TodoStore.WithTx
// It returns a TodoStore bound to the given transaction.
func (s *PostgresTodoStore) WithTx(tx *sql.Tx) store.TodoStore {
	return &PostgresTodoStore{
		db:     tx,
		logger: s.logger,
	}
}

// buildTodoFilter turns the filter into a WHERE clause plus its arguments.
// An unknown status or date value still becomes a condition; it just matches
// no rows, which the API surfaces as an empty page.
func buildTodoFilter(filter store.TodoFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Title != "" {
		args = append(args, filter.Title)
		conditions = append(conditions,
			fmt.Sprintf("title LIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CreatedDate != "" {
		args = append(args, filter.CreatedDate)
		conditions = append(conditions,
			fmt.Sprintf("created_at::date = $%d::date", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTodoRow reads one todo row in todoColumns order.
func scanTodoRow(row rowScanner) (*domain.Todo, error) {
	var todo domain.Todo
	var description, image sql.NullString
	var status string
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&description,
		&image,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	todo.Description = description.String
	todo.Image = image.String
	todo.Status = domain.TodoStatus(status)
	todo.CreatedAt = createdAt.UTC()
	todo.UpdatedAt = updatedAt.UTC()
	return &todo, nil
}
