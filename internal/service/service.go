// Package service defines the backend-agnostic interface of the remote task API.
package service

import (
	"context"
	"fmt"
	"net/http"
)

// Service defines the remote API consumed by the stores.
// Every authenticated call receives the bearer credential explicitly;
// implementations must not remember it between calls.
type Service interface {
	// Login exchanges email and password for a credential.
	Login(ctx context.Context, email, password string) (string, error)

	// Register creates an account and returns its credential.
	Register(ctx context.Context, email, username, password string) (string, error)

	// CurrentUser returns the identity the credential belongs to.
	CurrentUser(ctx context.Context, credential string) (Identity, error)

	// GlobalCategories returns the shared categories.
	GlobalCategories(ctx context.Context, credential string) ([]Category, error)

	// UserCategories returns the categories owned by the user.
	UserCategories(ctx context.Context, credential string) ([]Category, error)

	// CreateCategory creates a user category.
	CreateCategory(ctx context.Context, credential, name string) (Category, error)

	// UpdateCategory renames a user category.
	UpdateCategory(ctx context.Context, credential string, id int, name string) error

	// DeleteCategory deletes a user category.
	DeleteCategory(ctx context.Context, credential string, id int) error

	// ListTasks returns one page of tasks.
	ListTasks(ctx context.Context, credential string, q TaskQuery) (Page, error)

	// CreateTask creates a task and returns it as stored.
	CreateTask(ctx context.Context, credential string, t NewTask) (Task, error)

	// UpdateTask applies a partial update.
	UpdateTask(ctx context.Context, credential string, id int, p TaskPatch) error

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, credential string, id int) error

	// CompleteTask marks a task completed. It never un-completes.
	CompleteTask(ctx context.Context, credential string, id int) error
}

// ResponseError is returned when the server answers with a non-2xx status.
type ResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("server responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
