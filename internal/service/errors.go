// Package service provides application-level services for managing todos and users.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent conditions that callers may want to check for with
// errors.Is(). The API layer maps them to HTTP status codes.
var (
	// ErrTodoNotFound indicates that the todo does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrTodoNotFound = errors.New("todo not found")

	// ErrEmailTaken indicates registration with an email that already has
	// an account. API layer should map this to HTTP 400 Bad Request.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials indicates a login attempt with an unknown email
	// or wrong password. API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
