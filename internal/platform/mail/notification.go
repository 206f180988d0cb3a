package mail

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/phrazzld/todo-api/internal/domain"
)

// notificationTemplate renders the todo change-notification body.
var notificationTemplate = template.Must(template.New("todo-notification").Parse(`<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.UserName}},</p>
  <p>Your todo has been {{.Action}}:</p>
  <ul>
    <li><strong>Title:</strong> {{.Todo.Title}}</li>
    {{- if .Todo.Description}}
    <li><strong>Description:</strong> {{.Todo.Description}}</li>
    {{- end}}
    <li><strong>Status:</strong> {{.Todo.Status}}</li>
  </ul>
  <p>Thank you for using Todo App!</p>
</body>
</html>
`))

// NewTodoNotification renders the notification email for a todo mutation.
// The action label ("created" or "updated") flows into the subject line.
func NewTodoNotification(user *domain.User, todo *domain.Todo, action string) (Message, error) {
	data := struct {
		UserName string
		Action   string
		Todo     *domain.Todo
	}{
		UserName: user.Name,
		Action:   action,
		Todo:     todo,
	}

	var body strings.Builder
	if err := notificationTemplate.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("failed to render notification template: %w", err)
	}

	return Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Todo %s", action),
		HTML:    body.String(),
	}, nil
}
