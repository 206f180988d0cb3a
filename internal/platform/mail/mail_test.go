package mail

import (
	"context"
	"log/slog"
	"net/smtp"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/todo-api/internal/config"
	"github.com/phrazzld/todo-api/internal/domain"
)

func TestNewTodoNotification(t *testing.T) {
	user := &domain.User{
		ID:             uuid.New(),
		Name:           "Jo",
		Email:          "jo@example.com",
		HashedPassword: "hash",
	}
	todo, err := domain.NewTodo(user.ID, "Buy Groceries", "milk", domain.TodoStatusPending)
	require.NoError(t, err)

	msg, err := NewTodoNotification(user, todo, "created")
	require.NoError(t, err)

	assert.Equal(t, "jo@example.com", msg.To)
	assert.Equal(t, "Todo created", msg.Subject)
	assert.Contains(t, msg.HTML, "Buy Groceries")
	assert.Contains(t, msg.HTML, "created")
	assert.Contains(t, msg.HTML, "Jo")
}

func TestNewTodoNotificationUpdatedSubject(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Name: "Jo", Email: "jo@example.com", HashedPassword: "hash"}
	todo, err := domain.NewTodo(user.ID, "Buy Groceries", "", domain.TodoStatusCompleted)
	require.NoError(t, err)

	msg, err := NewTodoNotification(user, todo, "updated")
	require.NoError(t, err)
	assert.Equal(t, "Todo updated", msg.Subject)
}

func TestNewTodoNotificationEscapesHTML(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Name: "Jo", Email: "jo@example.com", HashedPassword: "hash"}
	todo, err := domain.NewTodo(user.ID, "<script>alert(1)</script>", "", domain.TodoStatusPending)
	require.NoError(t, err)

	msg, err := NewTodoNotification(user, todo, "created")
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestSMTPMailerSend(t *testing.T) {
	mailer := NewSMTPMailer(config.MailConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "noreply@example.com",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	mailer.sendFunc = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := mailer.Send(context.Background(), Message{
		To:      "jo@example.com",
		Subject: "Todo created",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"jo@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Todo created")
	assert.Contains(t, string(gotMsg), "<p>hi</p>")
}

func TestSMTPMailerSendHonorsCanceledContext(t *testing.T) {
	mailer := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	mailer.sendFunc = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatal("sendFunc must not be called for canceled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.Send(ctx, Message{To: "jo@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogMailerSend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mailer := NewLogMailer(logger)

	err := mailer.Send(context.Background(), Message{To: "jo@example.com", Subject: "Todo created"})
	assert.NoError(t, err)
}
