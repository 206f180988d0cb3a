package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("Jo Smith", "jo@example.com", "a-long-password")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Jo Smith", user.Name)
	assert.Equal(t, "jo@example.com", user.Email)
	assert.Equal(t, "a-long-password", user.Password)
	assert.Empty(t, user.HashedPassword)
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"empty name", "", "jo@example.com", "a-long-password", ErrEmptyUserName},
		{"empty email", "Jo", "", "a-long-password", ErrEmptyEmail},
		{"malformed email", "Jo", "not-an-email", "a-long-password", ErrInvalidEmail},
		{"email missing domain dot", "Jo", "jo@example", "a-long-password", ErrInvalidEmail},
		{"password too short", "Jo", "jo@example.com", "short", ErrPasswordTooShort},
		{"password too long", "Jo", "jo@example.com", strings.Repeat("x", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserValidateWithHashedPasswordOnly(t *testing.T) {
	// Users loaded from the database have no plaintext password.
	user := &User{
		ID:             uuid.New(),
		Name:           "Jo",
		Email:          "jo@example.com",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
	}
	assert.NoError(t, user.Validate())

	user.HashedPassword = ""
	assert.ErrorIs(t, user.Validate(), ErrEmptyPassword)
}
