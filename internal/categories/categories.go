// Package categories keeps the merged list of global and user categories.
package categories

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"taskdesk/internal/apperr"
	"taskdesk/internal/service"
)

// Placeholder replaces names that are empty or whitespace.
const Placeholder = "Без названия"

// Credentials supplies the current bearer credential.
type Credentials interface {
	Credential() (string, bool)
}

// Store holds the category collection: global entries first, then user ones.
type Store struct {
	api   service.Service
	creds Credentials
	log   *slog.Logger

	mu    sync.RWMutex
	items []service.Category
}

// New returns an empty Store.
func New(api service.Service, creds Credentials, log *slog.Logger) *Store {
	return &Store{api: api, creds: creds, log: log}
}

// All returns a copy of the collection.
func (s *Store) All() []service.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]service.Category(nil), s.items...)
}

// Find returns the entry with id and scope.
func (s *Store) Find(id int, scope service.Scope) (service.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id, scope)
	if i < 0 {
		return service.Category{}, false
	}
	return s.items[i], true
}

// index returns the position of id with scope, or -1. Caller holds s.mu.
func (s *Store) index(id int, scope service.Scope) int {
	for i, c := range s.items {
		if c.ID == id && c.Scope == scope {
			return i
		}
	}
	return -1
}

// Fetch reads both category sets concurrently and replaces the collection.
// On failure the collection is left as it was.
func (s *Store) Fetch(ctx context.Context) error {
	credential, ok := s.creds.Credential()
	if !ok {
		return apperr.Auth(apperr.OpFetchCategories)
	}

	var global, user []service.Category
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		global, err = s.api.GlobalCategories(gctx, credential)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.api.UserCategories(gctx, credential)
		return err
	})
	if err := g.Wait(); err != nil {
		return apperr.Remote(apperr.OpFetchCategories, err)
	}

	merged := make([]service.Category, 0, len(global)+len(user))
	for _, c := range global {
		merged = append(merged, normalize(c, service.ScopeGlobal))
	}
	for _, c := range user {
		merged = append(merged, normalize(c, service.ScopeUser))
	}

	s.mu.Lock()
	s.items = merged
	s.mu.Unlock()
	s.log.Debug("categories fetched", "global", len(global), "user", len(user))
	return nil
}

func normalize(c service.Category, scope service.Scope) service.Category {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = Placeholder
	}
	c.Scope = scope
	return c
}

// Create adds a user category and appends it to the collection.
func (s *Store) Create(ctx context.Context, name string) (service.Category, error) {
	credential, ok := s.creds.Credential()
	if !ok {
		return service.Category{}, apperr.Auth(apperr.OpCreateCategory)
	}
	created, err := s.api.CreateCategory(ctx, credential, name)
	if err != nil {
		return service.Category{}, apperr.Remote(apperr.OpCreateCategory, err)
	}
	c := service.Category{ID: created.ID, Name: created.Name, Scope: service.ScopeUser}
	if c.Name == "" {
		c.Name = name
	}
	c = normalize(c, service.ScopeUser)

	s.mu.Lock()
	s.items = append(s.items, c)
	s.mu.Unlock()
	return c, nil
}

// Update renames a user category. Only entries already in the collection
// with user scope can be renamed.
func (s *Store) Update(ctx context.Context, id int, name string) error {
	credential, ok := s.creds.Credential()
	if !ok {
		return apperr.Auth(apperr.OpUpdateCategory)
	}
	if _, found := s.Find(id, service.ScopeUser); !found {
		return apperr.NotFound(apperr.OpUpdateCategory, id)
	}
	if err := s.api.UpdateCategory(ctx, credential, id, name); err != nil {
		return apperr.Remote(apperr.OpUpdateCategory, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id, service.ScopeUser); i >= 0 {
		s.items[i] = normalize(service.Category{ID: id, Name: name}, service.ScopeUser)
	}
	return nil
}

// Delete removes a user category. The lookup rule matches Update.
func (s *Store) Delete(ctx context.Context, id int) error {
	credential, ok := s.creds.Credential()
	if !ok {
		return apperr.Auth(apperr.OpDeleteCategory)
	}
	if _, found := s.Find(id, service.ScopeUser); !found {
		return apperr.NotFound(apperr.OpDeleteCategory, id)
	}
	if err := s.api.DeleteCategory(ctx, credential, id); err != nil {
		return apperr.Remote(apperr.OpDeleteCategory, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id, service.ScopeUser); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	return nil
}
