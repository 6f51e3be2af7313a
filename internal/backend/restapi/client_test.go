package restapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/apperr"
	"taskdesk/internal/backend/restapi"
	"taskdesk/internal/config"
	"taskdesk/internal/logging"
	"taskdesk/internal/service"
	"taskdesk/internal/testutil"
)

func newClient(t *testing.T) (*restapi.Client, *testutil.APIServer) {
	t.Helper()
	srv := testutil.NewAPIServer(t)
	c, err := restapi.NewWithHTTPClient(srv.BaseURL(), srv.Client(), logging.Discard())
	require.NoError(t, err)
	return c, srv
}

func login(t *testing.T, c *restapi.Client, srv *testutil.APIServer) (string, int) {
	t.Helper()
	uid := srv.AddUser(t, "a@b.c", "alice", "secret")
	token, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return token, uid
}

func TestNew_FromConfig(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{BaseURL: "https://example.test/api/", Timeout: time.Second}}
	_, err := restapi.New(cfg, logging.Discard())
	require.NoError(t, err)

	cfg.API.BaseURL = "ftp://example.test"
	_, err = restapi.New(cfg, logging.Discard())
	require.Error(t, err)
}

func TestLoginAndCurrentUser(t *testing.T) {
	c, srv := newClient(t)
	token, uid := login(t, c, srv)

	loginReq := srv.Requests()[0]
	require.Equal(t, "/api/login", loginReq.Path)
	require.Empty(t, loginReq.Header.Get("Authorization"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(loginReq.Body, &body))
	require.Equal(t, map[string]string{"email": "a@b.c", "password": "secret"}, body)

	id, err := c.CurrentUser(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, service.Identity{ID: uid, Email: "a@b.c", Username: "alice"}, id)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	require.Equal(t, "/api/me", req.Path)
	require.Equal(t, "Bearer "+token, req.Header.Get("Authorization"))
	_, err = uuid.Parse(req.Header.Get(restapi.RequestIDHeader))
	require.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	c, srv := newClient(t)
	srv.AddUser(t, "a@b.c", "alice", "secret")

	_, err := c.Login(context.Background(), "a@b.c", "nope")
	var respErr *service.ResponseError
	require.ErrorAs(t, err, &respErr)
	require.Equal(t, http.StatusUnauthorized, respErr.StatusCode)
	require.Equal(t, "Неверный email или пароль", apperr.Message(err))
}

func TestRegister_Conflict(t *testing.T) {
	c, _ := newClient(t)

	token, err := c.Register(context.Background(), "n@b.c", "newbie", "pw")
	require.NoError(t, err)
	id, err := c.CurrentUser(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "newbie", id.Username)

	_, err = c.Register(context.Background(), "n@b.c", "again", "pw")
	require.Equal(t, "Пользователь с таким email уже существует", apperr.Message(err))
}

func TestExpiredToken(t *testing.T) {
	c, srv := newClient(t)
	uid := srv.AddUser(t, "a@b.c", "alice", "secret")

	_, err := c.CurrentUser(context.Background(), srv.Token(t, uid, -time.Minute))
	var respErr *service.ResponseError
	require.ErrorAs(t, err, &respErr)
	require.Equal(t, http.StatusUnauthorized, respErr.StatusCode)
}

func TestCategories(t *testing.T) {
	c, srv := newClient(t)
	token, _ := login(t, c, srv)
	ctx := context.Background()
	srv.Service.AddGlobalCategory(1, "Shared")

	global, err := c.GlobalCategories(ctx, token)
	require.NoError(t, err)
	require.Equal(t, []service.Category{{ID: 1, Name: "Shared"}}, global)

	created, err := c.CreateCategory(ctx, token, "Home")
	require.NoError(t, err)
	require.Equal(t, "Home", created.Name)

	require.NoError(t, c.UpdateCategory(ctx, token, created.ID, "House"))
	req, _ := srv.LastRequest()
	require.Equal(t, http.MethodPut, req.Method)
	require.JSONEq(t, `{"name":"House"}`, string(req.Body))

	user, err := c.UserCategories(ctx, token)
	require.NoError(t, err)
	require.Equal(t, []service.Category{{ID: created.ID, Name: "House"}}, user)

	require.NoError(t, c.DeleteCategory(ctx, token, created.ID))
	user, err = c.UserCategories(ctx, token)
	require.NoError(t, err)
	require.Empty(t, user)

	err = c.DeleteCategory(ctx, token, created.ID)
	var respErr *service.ResponseError
	require.ErrorAs(t, err, &respErr)
	require.Equal(t, http.StatusNotFound, respErr.StatusCode)
}

func TestListTasks_QueryParameters(t *testing.T) {
	c, srv := newClient(t)
	token, _ := login(t, c, srv)

	done := true
	page, err := c.ListTasks(context.Background(), token, service.TaskQuery{
		Page: 2, PageSize: 3, IsCompleted: &done, SortBy: "dueDate", SortOrder: "desc",
	})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.NotNil(t, page.Items)
	require.Zero(t, page.TotalCount)

	req, _ := srv.LastRequest()
	require.Equal(t, "/api/tasks", req.Path)
	require.Equal(t, "2", req.Query.Get("page"))
	require.Equal(t, "3", req.Query.Get("pageSize"))
	require.Equal(t, "true", req.Query.Get("isCompleted"))
	require.Equal(t, "dueDate", req.Query.Get("sortBy"))
	require.Equal(t, "desc", req.Query.Get("sortOrder"))
	require.False(t, req.Query.Has("searchQuery"))
}

func TestTaskQueryValues(t *testing.T) {
	v := restapi.TaskQueryValues(service.TaskQuery{Page: 0, SearchQuery: "milk"})
	require.Equal(t, "1", v.Get("page"))
	require.Equal(t, "milk", v.Get("searchQuery"))
	for _, key := range []string{"pageSize", "isCompleted", "sortBy", "sortOrder"} {
		require.False(t, v.Has(key), key)
	}

	open := false
	v = restapi.TaskQueryValues(service.TaskQuery{Page: 3, IsCompleted: &open})
	require.Equal(t, "false", v.Get("isCompleted"))
}

func TestTaskLifecycle(t *testing.T) {
	c, srv := newClient(t)
	token, _ := login(t, c, srv)
	ctx := context.Background()
	srv.Service.AddGlobalCategory(1, "Work")

	due, err := service.ParseTimestamp("2026-03-01T09:30:00Z")
	require.NoError(t, err)
	created, err := c.CreateTask(ctx, token, service.NewTask{
		Title: "Report", DueDate: &due, CategoryIDs: []int{1},
	})
	require.NoError(t, err)
	require.Equal(t, "Report", created.Title)
	require.Equal(t, []service.Category{{ID: 1, Name: "Work"}}, created.Categories)
	require.True(t, created.DueDate.Equal(due.Time))

	title := "Final report"
	require.NoError(t, c.UpdateTask(ctx, token, created.ID, service.TaskPatch{Title: &title}))
	req, _ := srv.LastRequest()
	require.JSONEq(t, `{"title":"Final report"}`, string(req.Body))

	require.NoError(t, c.CompleteTask(ctx, token, created.ID))
	req, _ = srv.LastRequest()
	require.Equal(t, http.MethodPatch, req.Method)
	require.Equal(t, "/api/tasks/"+strconv.Itoa(created.ID)+"/complete", req.Path)
	require.JSONEq(t, `{}`, string(req.Body))

	page, err := c.ListTasks(ctx, token, service.TaskQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, created.ID, page.Items[0].ID)
	require.Equal(t, "Final report", page.Items[0].Title)
	require.True(t, page.Items[0].IsCompleted)

	require.NoError(t, c.DeleteTask(ctx, token, created.ID))
	page, err = c.ListTasks(ctx, token, service.TaskQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestServerErrorBody(t *testing.T) {
	c, srv := newClient(t)
	token, _ := login(t, c, srv)
	srv.Service.ListTasksErr = &service.ResponseError{StatusCode: 500, Body: []byte("database is down")}

	_, err := c.ListTasks(context.Background(), token, service.TaskQuery{Page: 1})
	require.Equal(t, "database is down", apperr.Message(err))
	var respErr *service.ResponseError
	require.ErrorAs(t, err, &respErr)
	require.Equal(t, 500, respErr.StatusCode)
}

func TestTransportError(t *testing.T) {
	c, err := restapi.NewWithHTTPClient("http://127.0.0.1:1/api", nil, logging.Discard())
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "a@b.c", "x")
	require.Error(t, err)
	var respErr *service.ResponseError
	require.NotErrorAs(t, err, &respErr)
	require.NotEmpty(t, apperr.Message(err))
}


// deadlineRecorder answers every request and records whether it carried a
// deadline.
type deadlineRecorder struct {
	mu        sync.Mutex
	deadlines map[string]bool
}

func (d *deadlineRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	_, has := req.Context().Deadline()
	d.mu.Lock()
	d.deadlines[req.URL.Path] = has
	d.mu.Unlock()
	body := `{"token":"t","id":1,"email":"a@b.c","username":"alice"}`
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func TestTimeout_SameForAnonymousAndAuthenticated(t *testing.T) {
	for _, timeout := range []time.Duration{0, 5 * time.Second} {
		t.Run(timeout.String(), func(t *testing.T) {
			rec := &deadlineRecorder{deadlines: map[string]bool{}}
			hc := &http.Client{Transport: rec, Timeout: timeout}
			c, err := restapi.NewWithHTTPClient("http://api.test/api", hc, logging.Discard())
			require.NoError(t, err)

			_, err = c.Login(context.Background(), "a@b.c", "secret")
			require.NoError(t, err)
			_, err = c.CurrentUser(context.Background(), "t")
			require.NoError(t, err)

			want := timeout > 0
			require.Equal(t, map[string]bool{"/api/login": want, "/api/me": want}, rec.deadlines)
		})
	}
}

func TestTimeout_AppliesToBothPaths(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	hc := &http.Client{Timeout: 50 * time.Millisecond}
	c, err := restapi.NewWithHTTPClient(slow.URL+"/api", hc, logging.Discard())
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "a@b.c", "secret")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Timeout")

	_, err = c.CurrentUser(context.Background(), "t")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Timeout")
}
