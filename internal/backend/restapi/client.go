// Package restapi implements the service.Service interface over the task REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"taskdesk/internal/config"
	"taskdesk/internal/service"
)

const (
	// DefaultTimeout is used by New when api.timeout is not positive.
	DefaultTimeout = 30 * time.Second

	// RequestIDHeader carries a per-request id for server-side correlation.
	RequestIDHeader = "X-Request-ID"

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 64 << 10
)

// Client implements service.Service against the REST API.
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

// New creates a client for cfg.API.
func New(cfg *config.Config, log *slog.Logger) (*Client, error) {
	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithHTTPClient(cfg.API.BaseURL, &http.Client{Timeout: timeout}, log)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The client's Transport and Timeout apply to every request, anonymous or
// authenticated.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api.base_url: unsupported scheme %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{base: u, http: httpClient, log: log}, nil
}

// endpoint joins path segments onto the base URL.
func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.base
	for _, s := range segments {
		u.Path += "/" + url.PathEscape(s)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// clientFor returns an http.Client that adds the bearer credential.
// Anonymous calls use the base client.
func (c *Client) clientFor(ctx context.Context, credential string) *http.Client {
	if credential == "" {
		return c.http
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: credential,
		TokenType:   "Bearer",
	}))
	hc.Timeout = c.http.Timeout
	return hc
}

// do sends one request. in, when non-nil, is JSON-encoded as the body; out,
// when non-nil, receives the decoded JSON response.
func (c *Client) do(ctx context.Context, credential, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.clientFor(ctx, credential).Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "url", target, "request_id", requestID, "error", err)
		return err
	}
	defer resp.Body.Close()
	c.log.Debug("request", "method", method, "url", target, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &service.ResponseError{StatusCode: resp.StatusCode, Body: data}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	in := map[string]string{"email": email, "password": password}
	var out tokenResponse
	if err := c.do(ctx, "", http.MethodPost, c.endpoint(nil, "login"), in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Register implements service.Service.
func (c *Client) Register(ctx context.Context, email, username, password string) (string, error) {
	in := map[string]string{"email": email, "username": username, "password": password}
	var out tokenResponse
	if err := c.do(ctx, "", http.MethodPost, c.endpoint(nil, "register"), in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// CurrentUser implements service.Service.
func (c *Client) CurrentUser(ctx context.Context, credential string) (service.Identity, error) {
	var out service.Identity
	err := c.do(ctx, credential, http.MethodGet, c.endpoint(nil, "me"), nil, &out)
	return out, err
}

// GlobalCategories implements service.Service.
func (c *Client) GlobalCategories(ctx context.Context, credential string) ([]service.Category, error) {
	var out []service.Category
	err := c.do(ctx, credential, http.MethodGet, c.endpoint(nil, "categories", "global"), nil, &out)
	return out, err
}

// UserCategories implements service.Service.
func (c *Client) UserCategories(ctx context.Context, credential string) ([]service.Category, error) {
	var out []service.Category
	err := c.do(ctx, credential, http.MethodGet, c.endpoint(nil, "categories", "user"), nil, &out)
	return out, err
}

type categoryBody struct {
	Name string `json:"name"`
}

// CreateCategory implements service.Service.
func (c *Client) CreateCategory(ctx context.Context, credential, name string) (service.Category, error) {
	var out service.Category
	err := c.do(ctx, credential, http.MethodPost, c.endpoint(nil, "categories", "user"), categoryBody{Name: name}, &out)
	return out, err
}

// UpdateCategory implements service.Service.
func (c *Client) UpdateCategory(ctx context.Context, credential string, id int, name string) error {
	return c.do(ctx, credential, http.MethodPut,
		c.endpoint(nil, "categories", "user", strconv.Itoa(id)), categoryBody{Name: name}, nil)
}

// DeleteCategory implements service.Service.
func (c *Client) DeleteCategory(ctx context.Context, credential string, id int) error {
	return c.do(ctx, credential, http.MethodDelete,
		c.endpoint(nil, "categories", "user", strconv.Itoa(id)), nil, nil)
}

// TaskQueryValues encodes q as list parameters. Nil IsCompleted and empty
// strings are left out; Page below 1 becomes 1.
func TaskQueryValues(q service.TaskQuery) url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.IsCompleted != nil {
		v.Set("isCompleted", strconv.FormatBool(*q.IsCompleted))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	if q.SearchQuery != "" {
		v.Set("searchQuery", q.SearchQuery)
	}
	return v
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, credential string, q service.TaskQuery) (service.Page, error) {
	var out service.Page
	if err := c.do(ctx, credential, http.MethodGet, c.endpoint(TaskQueryValues(q), "tasks"), nil, &out); err != nil {
		return service.Page{}, err
	}
	if out.Items == nil {
		out.Items = []service.Task{}
	}
	return out, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, credential string, t service.NewTask) (service.Task, error) {
	var out service.Task
	err := c.do(ctx, credential, http.MethodPost, c.endpoint(nil, "tasks"), t, &out)
	return out, err
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, credential string, id int, p service.TaskPatch) error {
	return c.do(ctx, credential, http.MethodPut, c.endpoint(nil, "tasks", strconv.Itoa(id)), p, nil)
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, credential string, id int) error {
	return c.do(ctx, credential, http.MethodDelete, c.endpoint(nil, "tasks", strconv.Itoa(id)), nil, nil)
}

// CompleteTask implements service.Service.
func (c *Client) CompleteTask(ctx context.Context, credential string, id int) error {
	return c.do(ctx, credential, http.MethodPatch,
		c.endpoint(nil, "tasks", strconv.Itoa(id), "complete"), struct{}{}, nil)
}
