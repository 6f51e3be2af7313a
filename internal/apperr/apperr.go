// Package apperr defines the error taxonomy shared by the stores and turns
// failed remote calls into display messages.
package apperr

import (
	"encoding/json"
	"errors"
	"strings"

	"taskdesk/internal/service"
)

// Localized operation names used as message prefixes.
const (
	OpLogin           = "Ошибка входа"
	OpRegister        = "Ошибка регистрации"
	OpFetchIdentity   = "Ошибка получения профиля"
	OpFetchCategories = "Ошибка загрузки категорий"
	OpCreateCategory  = "Ошибка создания категории"
	OpUpdateCategory  = "Ошибка обновления категории"
	OpDeleteCategory  = "Ошибка удаления категории"
	OpFetchTasks      = "Ошибка загрузки задач"
	OpCreateTask      = "Ошибка создания задачи"
	OpUpdateTask      = "Ошибка обновления задачи"
	OpDeleteTask      = "Ошибка удаления задачи"
	OpCompleteTask    = "Ошибка завершения задачи"
)

// Fallback messages.
const (
	UnknownServerError = "Неизвестная ошибка сервера"
	UnknownError       = "Неизвестная ошибка"
)

var (
	// ErrMissingCredential is matched by every AuthError.
	ErrMissingCredential = errors.New("Токен авторизации отсутствует")

	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("Пользовательская категория не найдена")
)

// AuthError reports a missing credential detected before any remote call.
type AuthError struct {
	Op string
}

// Auth returns an AuthError for op.
func Auth(op string) *AuthError {
	return &AuthError{Op: op}
}

func (e *AuthError) Error() string { return prefix(e.Op, ErrMissingCredential.Error()) }

// Is makes errors.Is(err, ErrMissingCredential) hold.
func (e *AuthError) Is(target error) bool { return target == ErrMissingCredential }

// NotFoundError reports a failed local lookup.
type NotFoundError struct {
	Op string
	ID int
}

// NotFound returns a NotFoundError for op and id.
func NotFound(op string, id int) *NotFoundError {
	return &NotFoundError{Op: op, ID: id}
}

func (e *NotFoundError) Error() string { return prefix(e.Op, ErrNotFound.Error()) }

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RemoteError reports a transport or server failure.
// StatusCode is 0 when no response was received.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string { return prefix(e.Op, e.Message) }

func (e *RemoteError) Unwrap() error { return e.Err }

// Remote wraps err, the failure of op, into a RemoteError.
// Errors already in the taxonomy keep their kind and take the new op.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return Auth(op)
	}
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return NotFound(op, nfErr.ID)
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return &RemoteError{Op: op, StatusCode: remoteErr.StatusCode, Message: remoteErr.Message, Err: remoteErr.Err}
	}

	re := &RemoteError{Op: op, Message: Message(err), Err: err}
	var respErr *service.ResponseError
	if errors.As(err, &respErr) {
		re.StatusCode = respErr.StatusCode
	}
	return re
}

// Message extracts a human-readable message from a failed remote call.
// A server response wins: a JSON string body, then a JSON "message" field,
// then a plain text body, then a fixed fallback. Without a response the
// transport's own message is used.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var respErr *service.ResponseError
	if errors.As(err, &respErr) {
		return responseMessage(respErr.Body)
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return UnknownError
}

func responseMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return UnknownServerError
	}

	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return UnknownServerError
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		if msg := strings.TrimSpace(obj.Message); msg != "" {
			return msg
		}
		return UnknownServerError
	}

	if json.Valid([]byte(trimmed)) {
		// Structured body without a message field.
		return UnknownServerError
	}
	return trimmed
}

func prefix(op, msg string) string {
	if op == "" {
		return msg
	}
	return op + ": " + msg
}
