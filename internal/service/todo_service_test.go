package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/phrazzld/todo-api/internal/task"
)

// memoryTodoStore is an in-memory store.TodoStore for service tests.
type memoryTodoStore struct {
	mu    sync.Mutex
	todos map[uuid.UUID]*domain.Todo
	err   error
}

func newMemoryTodoStore() *memoryTodoStore {
	return &memoryTodoStore{todos: make(map[uuid.UUID]*domain.Todo)}
}

func (s *memoryTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.todos[todo.ID] = todo
	return nil
}

func (s *memoryTodoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	todo, ok := s.todos[id]
	if !ok {
		return nil, store.ErrTodoNotFound
	}
	return todo, nil
}

func (s *memoryTodoStore) List(
	ctx context.Context,
	filter store.TodoFilter,
	page store.PageRequest,
) (*store.Page[*domain.Todo], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	page = page.Normalize()
	items := []*domain.Todo{}
	for _, todo := range s.todos {
		if filter.Status != "" && string(todo.Status) != filter.Status {
			continue
		}
		items = append(items, todo)
	}
	return &store.Page[*domain.Todo]{
		Items:   items,
		Total:   len(items),
		Page:    page.Page,
		PerPage: page.PerPage,
	}, nil
}

func (s *memoryTodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.todos[todo.ID]; !ok {
		return store.ErrTodoNotFound
	}
	s.todos[todo.ID] = todo
	return nil
}

func (s *memoryTodoStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TodoStatus,
) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if !status.IsValid() {
		return nil, domain.ErrInvalidTodoStatus
	}
	todo, ok := s.todos[id]
	if !ok {
		return nil, store.ErrTodoNotFound
	}
	todo.Status = status
	return todo, nil
}

func (s *memoryTodoStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.todos[id]; !ok {
		return store.ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *memoryTodoStore) WithTx(tx *sql.Tx) store.TodoStore { return s }

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskRequestEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

func (e *recordingEmitter) emitted() []*events.TaskRequestEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events
}

func serviceLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, todoStore store.TodoStore, emitter events.EventEmitter) TodoService {
	t.Helper()
	svc, err := NewTodoService(&sql.DB{}, todoStore, emitter, serviceLogger())
	require.NoError(t, err)

	// The in-memory store ignores transactions, so run transactional paths
	// by invoking the function directly instead of opening a real *sql.Tx.
	svc.(*todoServiceImpl).runInTx = func(ctx context.Context, fn store.TxFn) error {
		return fn(ctx, nil)
	}
	return svc
}

// decodeNotification unpacks the payload of an emitted notification event.
func decodeNotification(t *testing.T, event *events.TaskRequestEvent) (uuid.UUID, string) {
	t.Helper()
	require.Equal(t, task.TaskTypeTodoNotification, event.Type)

	var payload struct {
		TodoID uuid.UUID `json:"todo_id"`
		Action string    `json:"action"`
	}
	require.NoError(t, event.UnmarshalPayload(&payload))
	return payload.TodoID, payload.Action
}

func seedStore(t *testing.T, s *memoryTodoStore, title string) *domain.Todo {
	t.Helper()
	todo, err := domain.NewTodo(uuid.New(), title, "", "")
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), todo))
	return todo
}

func TestNewTodoService_Validation(t *testing.T) {
	t.Parallel()

	todoStore := newMemoryTodoStore()
	emitter := &recordingEmitter{}

	_, err := NewTodoService(nil, todoStore, emitter, serviceLogger())
	assert.Error(t, err)

	_, err = NewTodoService(&sql.DB{}, nil, emitter, serviceLogger())
	assert.Error(t, err)

	_, err = NewTodoService(&sql.DB{}, todoStore, nil, serviceLogger())
	assert.Error(t, err)
}

func TestTodoService_ListTodos(t *testing.T) {
	t.Parallel()

	t.Run("returns matching page", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		seedStore(t, todoStore, "Buy groceries")
		seedStore(t, todoStore, "Write report")
		svc := newTestService(t, todoStore, &recordingEmitter{})

		page, err := svc.ListTodos(context.Background(), store.TodoFilter{}, store.PageRequest{})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, store.DefaultPerPage, page.PerPage)
	})

	t.Run("unparseable date yields empty page without querying", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		seedStore(t, todoStore, "Buy groceries")
		// A store error would surface if the query ran.
		todoStore.err = errors.New("store should not be reached")
		svc := newTestService(t, todoStore, &recordingEmitter{})

		page, err := svc.ListTodos(context.Background(),
			store.TodoFilter{CreatedDate: "30-08-2026"}, store.PageRequest{Page: 3})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Zero(t, page.Total)
		// The empty result has a single page, so the current page is pinned
		// to it no matter what page was requested.
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 1, page.LastPage())
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		todoStore.err = errors.New("connection refused")
		svc := newTestService(t, todoStore, &recordingEmitter{})

		_, err := svc.ListTodos(context.Background(), store.TodoFilter{}, store.PageRequest{})
		require.Error(t, err)

		var svcErr *TodoServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "list_todos", svcErr.Operation)
	})
}

func TestTodoService_GetTodo(t *testing.T) {
	t.Parallel()

	todoStore := newMemoryTodoStore()
	todo := seedStore(t, todoStore, "Buy groceries")
	svc := newTestService(t, todoStore, &recordingEmitter{})

	t.Run("existing todo", func(t *testing.T) {
		t.Parallel()

		got, err := svc.GetTodo(context.Background(), todo.ID)
		require.NoError(t, err)
		assert.Equal(t, todo.ID, got.ID)
	})

	t.Run("missing todo maps to sentinel", func(t *testing.T) {
		t.Parallel()

		_, err := svc.GetTodo(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrTodoNotFound)
	})
}

func TestTodoService_CreateTodo(t *testing.T) {
	t.Parallel()

	t.Run("persists todo and emits one created event", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		emitter := &recordingEmitter{}
		svc := newTestService(t, todoStore, emitter)
		userID := uuid.New()

		todo, err := svc.CreateTodo(context.Background(),
			userID, "Buy groceries", "milk and eggs", "pending", "")
		require.NoError(t, err)
		assert.Equal(t, userID, todo.UserID)
		assert.Contains(t, todoStore.todos, todo.ID)

		emitted := emitter.emitted()
		require.Len(t, emitted, 1)
		todoID, action := decodeNotification(t, emitted[0])
		assert.Equal(t, todo.ID, todoID)
		assert.Equal(t, task.ActionCreated, action)
	})

	t.Run("records image reference", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		svc := newTestService(t, todoStore, &recordingEmitter{})

		todo, err := svc.CreateTodo(context.Background(),
			uuid.New(), "Buy groceries", "", "pending", "todos/pic.png")
		require.NoError(t, err)
		assert.Equal(t, "todos/pic.png", todo.Image)
	})

	t.Run("invalid todo emits nothing", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		emitter := &recordingEmitter{}
		svc := newTestService(t, todoStore, emitter)

		_, err := svc.CreateTodo(context.Background(), uuid.New(), "", "", "pending", "")
		require.Error(t, err)
		assert.Empty(t, todoStore.todos)
		assert.Empty(t, emitter.emitted())
	})

	t.Run("store failure is wrapped and emits nothing", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		todoStore.err = errors.New("connection refused")
		emitter := &recordingEmitter{}
		svc := newTestService(t, todoStore, emitter)

		_, err := svc.CreateTodo(context.Background(), uuid.New(), "Buy groceries", "", "pending", "")
		require.Error(t, err)

		var svcErr *TodoServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "create_todo", svcErr.Operation)
		assert.Empty(t, emitter.emitted())
	})
}

func TestTodoService_UpdateTodo(t *testing.T) {
	t.Parallel()

	t.Run("applies fields and emits one updated event", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		todo := seedStore(t, todoStore, "Buy groceries")
		emitter := &recordingEmitter{}
		svc := newTestService(t, todoStore, emitter)

		title := "Buy vegetables"
		status := "in_progress"
		updated, err := svc.UpdateTodo(context.Background(), todo.ID, UpdateTodoInput{
			Title:  &title,
			Status: &status,
		})
		require.NoError(t, err)
		assert.Equal(t, "Buy vegetables", updated.Title)
		assert.Equal(t, domain.TodoStatusInProgress, updated.Status)

		emitted := emitter.emitted()
		require.Len(t, emitted, 1)
		todoID, action := decodeNotification(t, emitted[0])
		assert.Equal(t, todo.ID, todoID)
		assert.Equal(t, task.ActionUpdated, action)
	})

	t.Run("nil fields leave the record unchanged", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		todo := seedStore(t, todoStore, "Buy groceries")
		svc := newTestService(t, todoStore, &recordingEmitter{})

		description := "from the market"
		updated, err := svc.UpdateTodo(context.Background(), todo.ID, UpdateTodoInput{
			Description: &description,
		})
		require.NoError(t, err)
		assert.Equal(t, "Buy groceries", updated.Title)
		assert.Equal(t, "from the market", updated.Description)
	})

	t.Run("missing todo maps to sentinel and emits nothing", func(t *testing.T) {
		t.Parallel()

		emitter := &recordingEmitter{}
		svc := newTestService(t, newMemoryTodoStore(), emitter)

		title := "Buy vegetables"
		_, err := svc.UpdateTodo(context.Background(), uuid.New(), UpdateTodoInput{Title: &title})
		assert.ErrorIs(t, err, ErrTodoNotFound)
		assert.Empty(t, emitter.emitted())
	})
}

func TestTodoService_UpdateTodoStatus(t *testing.T) {
	t.Parallel()

	t.Run("updates status and emits event", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		todo := seedStore(t, todoStore, "Buy groceries")
		emitter := &recordingEmitter{}
		svc := newTestService(t, todoStore, emitter)

		updated, err := svc.UpdateTodoStatus(context.Background(), todo.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, domain.TodoStatusCompleted, updated.Status)

		emitted := emitter.emitted()
		require.Len(t, emitted, 1)
		assert.Equal(t, task.TaskTypeTodoNotification, emitted[0].Type)

		var payload struct {
			TodoID uuid.UUID `json:"todo_id"`
			Action string    `json:"action"`
		}
		require.NoError(t, emitted[0].UnmarshalPayload(&payload))
		assert.Equal(t, todo.ID, payload.TodoID)
		assert.Equal(t, task.ActionUpdated, payload.Action)
	})

	t.Run("invalid status performs no write and no event", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		todo := seedStore(t, todoStore, "Buy groceries")
		emitter := &recordingEmitter{}
		svc := newTestService(t, todoStore, emitter)

		_, err := svc.UpdateTodoStatus(context.Background(), todo.ID, "finished")
		assert.ErrorIs(t, err, domain.ErrInvalidTodoStatus)
		assert.Equal(t, domain.TodoStatusPending, todo.Status)
		assert.Empty(t, emitter.emitted())
	})

	t.Run("missing todo maps to sentinel", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, newMemoryTodoStore(), &recordingEmitter{})

		_, err := svc.UpdateTodoStatus(context.Background(), uuid.New(), "completed")
		assert.ErrorIs(t, err, ErrTodoNotFound)
	})

	t.Run("emitter failure does not fail the update", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		todo := seedStore(t, todoStore, "Buy groceries")
		svc := newTestService(t, todoStore, &recordingEmitter{err: errors.New("bus down")})

		updated, err := svc.UpdateTodoStatus(context.Background(), todo.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, domain.TodoStatusCompleted, updated.Status)
	})
}

func TestTodoService_DeleteTodo(t *testing.T) {
	t.Parallel()

	t.Run("removes todo without emitting", func(t *testing.T) {
		t.Parallel()

		todoStore := newMemoryTodoStore()
		todo := seedStore(t, todoStore, "Buy groceries")
		emitter := &recordingEmitter{}
		svc := newTestService(t, todoStore, emitter)

		require.NoError(t, svc.DeleteTodo(context.Background(), todo.ID))
		assert.Empty(t, todoStore.todos)
		assert.Empty(t, emitter.emitted())
	})

	t.Run("missing todo maps to sentinel", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(t, newMemoryTodoStore(), &recordingEmitter{})
		assert.ErrorIs(t, svc.DeleteTodo(context.Background(), uuid.New()), ErrTodoNotFound)
	})
}

func TestNewTodoServiceError(t *testing.T) {
	t.Parallel()

	t.Run("nil error passes through", func(t *testing.T) {
		assert.NoError(t, NewTodoServiceError("op", "msg", nil))
	})

	t.Run("store not-found maps to service sentinel", func(t *testing.T) {
		err := NewTodoServiceError("op", "msg", store.ErrTodoNotFound)
		assert.ErrorIs(t, err, ErrTodoNotFound)
	})

	t.Run("other errors are wrapped with context", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewTodoServiceError("create_todo", "failed to save todo", cause)

		var svcErr *TodoServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "create_todo", svcErr.Operation)
		assert.ErrorIs(t, err, cause)
	})
}
