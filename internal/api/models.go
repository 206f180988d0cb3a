package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/todo-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the data payload for authentication endpoints.
type AuthResponse struct {
	// User is the profile of the authenticated user
	User *UserResponse `json:"user,omitempty"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"accessToken"`

	// TokenType names the HTTP auth scheme the token is used with
	TokenType string `json:"token_type,omitempty"`
}

// UserResponse is the public view of a user: no password material.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse builds the public view of a user.
func NewUserResponse(user *domain.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// CreateTodoRequest defines the payload for creating a todo.
// An empty status defaults to pending.
type CreateTodoRequest struct {
	Title       string `json:"title"       validate:"required,max=255"`
	Description string `json:"description"`
	Status      string `json:"status"      validate:"omitempty,oneof=pending in_progress completed on_hold canceled archived"`
}

// UpdateTodoRequest defines the payload for updating a todo.
// Nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Status      *string `json:"status"      validate:"omitempty,oneof=pending in_progress completed on_hold canceled archived"`
}

// UpdateTodoStatusRequest defines the payload for the status-only update.
type UpdateTodoStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress completed on_hold canceled archived"`
}
