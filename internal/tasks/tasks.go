// Package tasks holds the current page of the task list.
//
// Writes never touch the held page; callers refetch to see their effect.
// Concurrent fetches are not fenced: the page reflects whichever response
// arrived last.
package tasks

import (
	"context"
	"log/slog"
	"sync"

	"taskdesk/internal/apperr"
	"taskdesk/internal/service"
)

// DefaultPageSize is used when New is given a size below 1.
const DefaultPageSize = 3

// Credentials supplies the current bearer credential.
type Credentials interface {
	Credential() (string, bool)
}

// Query selects a page of tasks. Nil IsCompleted and empty strings are not sent.
type Query struct {
	Page        int
	IsCompleted *bool
	SortBy      string
	SortOrder   string
	SearchQuery string
}

// Store holds exactly one page.
type Store struct {
	api      service.Service
	creds    Credentials
	log      *slog.Logger
	pageSize int

	mu   sync.RWMutex
	page service.Page
}

// New returns a Store holding an empty first page.
func New(api service.Service, creds Credentials, pageSize int, log *slog.Logger) *Store {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Store{
		api:      api,
		creds:    creds,
		log:      log,
		pageSize: pageSize,
		page:     service.Page{Items: []service.Task{}, Page: 1, PageSize: pageSize},
	}
}

// PageSize returns the configured page size.
func (s *Store) PageSize() int { return s.pageSize }

// Page returns a copy of the held page.
func (s *Store) Page() service.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.page
	p.Items = append([]service.Task{}, s.page.Items...)
	return p
}

// FetchTasks loads one page and replaces the held page with it.
func (s *Store) FetchTasks(ctx context.Context, q Query) error {
	credential, ok := s.creds.Credential()
	if !ok {
		return apperr.Auth(apperr.OpFetchTasks)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	result, err := s.api.ListTasks(ctx, credential, service.TaskQuery{
		Page:        page,
		PageSize:    s.pageSize,
		IsCompleted: q.IsCompleted,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
		SearchQuery: q.SearchQuery,
	})
	if err != nil {
		return apperr.Remote(apperr.OpFetchTasks, err)
	}
	if result.Items == nil {
		result.Items = []service.Task{}
	}

	s.mu.Lock()
	s.page = result
	s.mu.Unlock()
	s.log.Debug("tasks fetched", "page", result.Page, "items", len(result.Items), "total", result.TotalCount)
	return nil
}

// CreateTask creates a task and returns the server's copy.
func (s *Store) CreateTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	credential, ok := s.creds.Credential()
	if !ok {
		return service.Task{}, apperr.Auth(apperr.OpCreateTask)
	}
	created, err := s.api.CreateTask(ctx, credential, t)
	if err != nil {
		return service.Task{}, apperr.Remote(apperr.OpCreateTask, err)
	}
	return created, nil
}

// UpdateTask sends the set fields of p.
func (s *Store) UpdateTask(ctx context.Context, id int, p service.TaskPatch) error {
	credential, ok := s.creds.Credential()
	if !ok {
		return apperr.Auth(apperr.OpUpdateTask)
	}
	if err := s.api.UpdateTask(ctx, credential, id, p); err != nil {
		return apperr.Remote(apperr.OpUpdateTask, err)
	}
	return nil
}

// DeleteTask deletes a task.
func (s *Store) DeleteTask(ctx context.Context, id int) error {
	credential, ok := s.creds.Credential()
	if !ok {
		return apperr.Auth(apperr.OpDeleteTask)
	}
	if err := s.api.DeleteTask(ctx, credential, id); err != nil {
		return apperr.Remote(apperr.OpDeleteTask, err)
	}
	return nil
}

// CompleteTask marks a task complete. It never un-completes.
func (s *Store) CompleteTask(ctx context.Context, id int) error {
	credential, ok := s.creds.Credential()
	if !ok {
		return apperr.Auth(apperr.OpCompleteTask)
	}
	if err := s.api.CompleteTask(ctx, credential, id); err != nil {
		return apperr.Remote(apperr.OpCompleteTask, err)
	}
	return nil
}
