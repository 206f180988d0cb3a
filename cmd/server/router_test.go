package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
)

// stubUserStore satisfies store.UserStore for routing tests. Every lookup
// misses so handlers exercise their error paths.
type stubUserStore struct{}

func (s *stubUserStore) Create(ctx context.Context, user *domain.User) error { return nil }

func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}

func (s *stubUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// stubJWTService accepts exactly one token string and rejects everything else.
type stubJWTService struct {
	validToken string
	userID     uuid.UUID
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.validToken, nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if tokenString != s.validToken {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{
		UserID:    s.userID,
		Subject:   s.userID.String(),
		IssuedAt:  time.Now().Add(-time.Minute),
		ExpiresAt: time.Now().Add(time.Hour),
		ID:        "jti-router-test",
	}, nil
}

func (s *stubJWTService) RevokeToken(ctx context.Context, claims *auth.Claims) error { return nil }

// stubTodoService returns empty results so routing tests stay independent of
// store behavior.
type stubTodoService struct{}

func (s *stubTodoService) ListTodos(
	ctx context.Context,
	filter store.TodoFilter,
	page store.PageRequest,
) (*store.Page[*domain.Todo], error) {
	page = page.Normalize()
	return &store.Page[*domain.Todo]{
		Items:   []*domain.Todo{},
		Total:   0,
		Page:    page.Page,
		PerPage: page.PerPage,
	}, nil
}

func (s *stubTodoService) CreateTodo(
	ctx context.Context,
	userID uuid.UUID,
	title, description, status, image string,
) (*domain.Todo, error) {
	todo, err := domain.NewTodo(userID, title, description, domain.TodoStatus(status))
	if err != nil {
		return nil, err
	}
	todo.Image = image
	return todo, nil
}

func (s *stubTodoService) GetTodo(ctx context.Context, todoID uuid.UUID) (*domain.Todo, error) {
	return nil, service.ErrTodoNotFound
}

func (s *stubTodoService) UpdateTodo(
	ctx context.Context,
	todoID uuid.UUID,
	input service.UpdateTodoInput,
) (*domain.Todo, error) {
	return nil, service.ErrTodoNotFound
}

func (s *stubTodoService) UpdateTodoStatus(
	ctx context.Context,
	todoID uuid.UUID,
	status string,
) (*domain.Todo, error) {
	return nil, service.ErrTodoNotFound
}

func (s *stubTodoService) DeleteTodo(ctx context.Context, todoID uuid.UUID) error {
	return service.ErrTodoNotFound
}

// stubFileStore satisfies filestore.FileStore without touching disk.
type stubFileStore struct{}

func (s *stubFileStore) Save(src io.Reader, area, filename string) (string, error) {
	return area + "/" + filename, nil
}

func (s *stubFileStore) Remove(relPath string) error { return nil }

// stubVerifier rejects every password so login never succeeds in routing
// tests.
type stubVerifier struct{}

func (s *stubVerifier) Compare(hashedPassword, password string) error {
	return service.ErrInvalidCredentials
}

func newTestApplication(t *testing.T) *application {
	t.Helper()

	return &application{
		config: &config.Config{
			Server: config.ServerConfig{Port: 0, LogLevel: "error"},
		},
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		userStore:        &stubUserStore{},
		jwtService:       &stubJWTService{validToken: "valid-token", userID: uuid.New()},
		passwordVerifier: &stubVerifier{},
		todoService:      &stubTodoService{},
		fileStore:        &stubFileStore{},
	}
}

func TestRouterHealthEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestApplication(t).setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	router := newTestApplication(t).setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/todos"},
		{http.MethodPost, "/api/todos"},
		{http.MethodGet, "/api/todos/" + uuid.NewString()},
		{http.MethodPut, "/api/todos/" + uuid.NewString()},
		{http.MethodDelete, "/api/todos/" + uuid.NewString()},
		{http.MethodPut, "/api/todos/" + uuid.NewString() + "/status"},
		{http.MethodPatch, "/api/todos/" + uuid.NewString() + "/status"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/auth/user"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouterAuthenticatedRequestPassesThrough(t *testing.T) {
	t.Parallel()

	router := newTestApplication(t).setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Meta   struct {
			Total   int `json:"total"`
			PerPage int `json:"per_page"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 0, body.Meta.Total)
	assert.Equal(t, 10, body.Meta.PerPage)
}

func TestRouterPublicAuthRoutes(t *testing.T) {
	t.Parallel()

	router := newTestApplication(t).setupRouter()

	t.Run("register rejects malformed body without auth", func(t *testing.T) {
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/auth/register",
			strings.NewReader("{not json"),
		)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login rejects bad credentials without auth", func(t *testing.T) {
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/auth/login",
			strings.NewReader(`{"email":"someone@example.com","password":"password123"}`),
		)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
