package httpapi

import (
	"strings"
	"time"

	"tasktrack/cmd/internal/task"
)

// noDueDate is rendered in place of a missing due date.
const noDueDate = "no due date"

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createTaskRequest struct {
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	DueDateAlt  *string `json:"due_date"`
}

type updateTaskRequest struct {
	Status     string  `json:"status"`
	DueDate    *string `json:"dueDate"`
	DueDateAlt *string `json:"due_date"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type profileResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type createTaskResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type taskResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
}

func toTaskResponse(t task.Task) taskResponse {
	due := noDueDate
	if t.DueDate != nil && strings.TrimSpace(*t.DueDate) != "" {
		due = *t.DueDate
	}
	return taskResponse{
		ID:          int64(t.ID),
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     due,
	}
}

// pickDueDate prefers dueDate and falls back to the due_date alias.
func pickDueDate(primary, alias *string) *string {
	if primary != nil {
		return primary
	}
	return alias
}
