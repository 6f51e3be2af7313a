// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taskdesk/internal/service"
)

// Errors returned by FakeService, shaped like real server responses.
var (
	ErrUnauthorized = &service.ResponseError{StatusCode: 401, Body: []byte(`{"message":"Требуется авторизация"}`)}
	ErrBadLogin     = &service.ResponseError{StatusCode: 401, Body: []byte(`{"message":"Неверный email или пароль"}`)}
	ErrEmailTaken   = &service.ResponseError{StatusCode: 409, Body: []byte(`"Пользователь с таким email уже существует"`)}
	ErrNotFound     = &service.ResponseError{StatusCode: 404, Body: []byte(`{"message":"Не найдено"}`)}
)

type fakeUser struct {
	identity service.Identity
	password string
}

// FakeService is an in-memory implementation of service.Service for testing.
// It validates credentials like a real server and counts every call.
type FakeService struct {
	mu         sync.Mutex
	users      map[string]*fakeUser // email -> user
	tokens     map[string]int       // credential -> user id
	global     []service.Category
	categories map[int][]service.Category // user id -> categories
	tasks      map[int][]service.Task     // user id -> tasks
	nextID     int
	calls      map[string]int

	// LastQuery is the most recent ListTasks query.
	LastQuery service.TaskQuery
	// LastPatch is the most recent UpdateTask patch.
	LastPatch service.TaskPatch

	// Error injection for testing
	LoginErr            error
	RegisterErr         error
	CurrentUserErr      error
	GlobalCategoriesErr error
	UserCategoriesErr   error
	CreateCategoryErr   error
	UpdateCategoryErr   error
	DeleteCategoryErr   error
	ListTasksErr        error
	CreateTaskErr       error
	UpdateTaskErr       error
	DeleteTaskErr       error
	CompleteTaskErr     error

	// GlobalCategoriesDelay holds the global read back so the user read
	// finishes first.
	GlobalCategoriesDelay time.Duration

	// Now is the clock used for createdAt.
	Now func() time.Time
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users:      make(map[string]*fakeUser),
		tokens:     make(map[string]int),
		categories: make(map[int][]service.Category),
		tasks:      make(map[int][]service.Task),
		nextID:     100,
		calls:      make(map[string]int),
		Now:        func() time.Time { return time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC) },
	}
}

// AddUser registers a user and returns its id.
func (f *FakeService) AddUser(email, username, password string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUser(email, username, password)
}

func (f *FakeService) addUser(email, username, password string) int {
	f.nextID++
	f.users[strings.ToLower(email)] = &fakeUser{
		identity: service.Identity{ID: f.nextID, Email: email, Username: username},
		password: password,
	}
	return f.nextID
}

// IssueToken returns a valid credential for the user.
func (f *FakeService) IssueToken(userID int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueToken(userID)
}

func (f *FakeService) issueToken(userID int) string {
	f.nextID++
	token := fmt.Sprintf("token-%d-%d", userID, f.nextID)
	f.tokens[token] = userID
	return token
}

// RevokeToken makes a credential invalid.
func (f *FakeService) RevokeToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
}

// AddGlobalCategory adds a shared category.
func (f *FakeService) AddGlobalCategory(id int, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global = append(f.global, service.Category{ID: id, Name: name})
}

// AddUserCategory adds a category owned by userID.
func (f *FakeService) AddUserCategory(userID, id int, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[userID] = append(f.categories[userID], service.Category{ID: id, Name: name})
}

// UserCategoryNames returns the names of the categories userID owns.
func (f *FakeService) UserCategoryNames(userID int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, c := range f.categories[userID] {
		names = append(names, c.Name)
	}
	return names
}

// AddTask stores a task for userID, assigning an id when t.ID is zero.
func (f *FakeService) AddTask(userID int, t service.Task) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		f.nextID++
		t.ID = f.nextID
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = service.Timestamp{Time: f.Now()}
	}
	f.tasks[userID] = append(f.tasks[userID], t)
	return t.ID
}

// Task returns the stored task of userID with id.
func (f *FakeService) Task(userID, id int) (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks[userID] {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Calls returns how many times method was called.
func (f *FakeService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

// authorize resolves credential to a user id. Caller holds f.mu.
func (f *FakeService) authorize(credential string) (int, error) {
	id, ok := f.tokens[credential]
	if !ok {
		return 0, ErrUnauthorized
	}
	return id, nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) (string, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[strings.ToLower(email)]
	if !ok || u.password != password {
		return "", ErrBadLogin
	}
	return f.issueToken(u.identity.ID), nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, email, username, password string) (string, error) {
	f.record("Register")
	if f.RegisterErr != nil {
		return "", f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[strings.ToLower(email)]; exists {
		return "", ErrEmailTaken
	}
	id := f.addUser(email, username, password)
	return f.issueToken(id), nil
}

// CurrentUser implements service.Service.
func (f *FakeService) CurrentUser(ctx context.Context, credential string) (service.Identity, error) {
	f.record("CurrentUser")
	if f.CurrentUserErr != nil {
		return service.Identity{}, f.CurrentUserErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return service.Identity{}, err
	}
	for _, u := range f.users {
		if u.identity.ID == id {
			return u.identity, nil
		}
	}
	return service.Identity{}, ErrUnauthorized
}

// GlobalCategories implements service.Service.
func (f *FakeService) GlobalCategories(ctx context.Context, credential string) ([]service.Category, error) {
	f.record("GlobalCategories")
	if f.GlobalCategoriesDelay > 0 {
		select {
		case <-time.After(f.GlobalCategoriesDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.GlobalCategoriesErr != nil {
		return nil, f.GlobalCategoriesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.authorize(credential); err != nil {
		return nil, err
	}
	return append([]service.Category(nil), f.global...), nil
}

// UserCategories implements service.Service.
func (f *FakeService) UserCategories(ctx context.Context, credential string) ([]service.Category, error) {
	f.record("UserCategories")
	if f.UserCategoriesErr != nil {
		return nil, f.UserCategoriesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return nil, err
	}
	return append([]service.Category(nil), f.categories[id]...), nil
}

// CreateCategory implements service.Service.
func (f *FakeService) CreateCategory(ctx context.Context, credential, name string) (service.Category, error) {
	f.record("CreateCategory")
	if f.CreateCategoryErr != nil {
		return service.Category{}, f.CreateCategoryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return service.Category{}, err
	}
	f.nextID++
	c := service.Category{ID: f.nextID, Name: name}
	f.categories[id] = append(f.categories[id], c)
	return c, nil
}

// UpdateCategory implements service.Service.
func (f *FakeService) UpdateCategory(ctx context.Context, credential string, catID int, name string) error {
	f.record("UpdateCategory")
	if f.UpdateCategoryErr != nil {
		return f.UpdateCategoryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return err
	}
	for i, c := range f.categories[id] {
		if c.ID == catID {
			f.categories[id][i].Name = name
			return nil
		}
	}
	return ErrNotFound
}

// DeleteCategory implements service.Service.
func (f *FakeService) DeleteCategory(ctx context.Context, credential string, catID int) error {
	f.record("DeleteCategory")
	if f.DeleteCategoryErr != nil {
		return f.DeleteCategoryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return err
	}
	cats := f.categories[id]
	for i, c := range cats {
		if c.ID == catID {
			f.categories[id] = append(cats[:i], cats[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, credential string, q service.TaskQuery) (service.Page, error) {
	f.record("ListTasks")
	f.mu.Lock()
	f.LastQuery = q
	f.mu.Unlock()
	if f.ListTasksErr != nil {
		return service.Page{}, f.ListTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return service.Page{}, err
	}

	var matched []service.Task
	search := strings.ToLower(q.SearchQuery)
	for _, t := range f.tasks[id] {
		if q.IsCompleted != nil && t.IsCompleted != *q.IsCompleted {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		matched = append(matched, t)
	}
	sortTasks(matched, q.SortBy, q.SortOrder)

	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	result := service.Page{Items: []service.Task{}, TotalCount: len(matched), Page: page, PageSize: pageSize}
	start := (page - 1) * pageSize
	if start < len(matched) {
		end := start + pageSize
		if end > len(matched) {
			end = len(matched)
		}
		result.Items = append(result.Items, matched[start:end]...)
	}
	return result, nil
}

func sortTasks(tasks []service.Task, by, order string) {
	var less func(a, b service.Task) bool
	switch by {
	case "title":
		less = func(a, b service.Task) bool { return a.Title < b.Title }
	case "dueDate":
		less = func(a, b service.Task) bool {
			if a.DueDate == nil || b.DueDate == nil {
				return a.DueDate != nil
			}
			return a.DueDate.Before(b.DueDate.Time)
		}
	case "createdAt":
		less = func(a, b service.Task) bool { return a.CreatedAt.Before(b.CreatedAt.Time) }
	default:
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if order == "desc" {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, credential string, nt service.NewTask) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return service.Task{}, err
	}
	f.nextID++
	t := service.Task{
		ID:          f.nextID,
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     nt.DueDate,
		CreatedAt:   service.Timestamp{Time: f.Now()},
		Categories:  f.resolveCategories(id, nt.CategoryIDs),
	}
	f.tasks[id] = append(f.tasks[id], t)
	return t, nil
}

// resolveCategories maps ids to the categories visible to userID. Caller holds f.mu.
func (f *FakeService) resolveCategories(userID int, ids []int) []service.Category {
	var out []service.Category
	for _, want := range ids {
		for _, c := range f.global {
			if c.ID == want {
				out = append(out, c)
			}
		}
		for _, c := range f.categories[userID] {
			if c.ID == want {
				out = append(out, c)
			}
		}
	}
	return out
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, credential string, taskID int, p service.TaskPatch) error {
	f.record("UpdateTask")
	f.mu.Lock()
	f.LastPatch = p
	f.mu.Unlock()
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return err
	}
	for i, t := range f.tasks[id] {
		if t.ID != taskID {
			continue
		}
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.IsCompleted != nil {
			t.IsCompleted = *p.IsCompleted
		}
		if p.DueDate != nil {
			t.DueDate = p.DueDate
		}
		if p.CategoryIDs != nil {
			t.Categories = f.resolveCategories(id, *p.CategoryIDs)
		}
		f.tasks[id][i] = t
		return nil
	}
	return ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, credential string, taskID int) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return err
	}
	tasks := f.tasks[id]
	for i, t := range tasks {
		if t.ID == taskID {
			f.tasks[id] = append(tasks[:i], tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// CompleteTask implements service.Service.
func (f *FakeService) CompleteTask(ctx context.Context, credential string, taskID int) error {
	f.record("CompleteTask")
	if f.CompleteTaskErr != nil {
		return f.CompleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := f.authorize(credential)
	if err != nil {
		return err
	}
	for i, t := range f.tasks[id] {
		if t.ID == taskID {
			f.tasks[id][i].IsCompleted = true
			return nil
		}
	}
	return ErrNotFound
}
