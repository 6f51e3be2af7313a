package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"taskdesk/internal/service"
)

// APIPrefix is the path the API is mounted under on an APIServer.
const APIPrefix = "/api"

// Claims are carried by the tokens an APIServer issues.
type Claims struct {
	UserID int `json:"uid"`
	jwt.RegisteredClaims
}

// RecordedRequest is one request seen by an APIServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type apiUser struct {
	id   int
	hash []byte
}

// APIServer serves a FakeService over HTTP with JWT bearer authentication.
// Error injection on Service surfaces as HTTP error responses.
type APIServer struct {
	*httptest.Server
	Service *FakeService

	secret []byte

	mu       sync.Mutex
	users    map[string]apiUser // lowercased email
	tokens   map[int]string     // user id -> Service credential
	requests []RecordedRequest
}

type ctxKey struct{}

// NewAPIServer starts an APIServer; it is closed when the test ends.
func NewAPIServer(t *testing.T) *APIServer {
	t.Helper()
	s := &APIServer{
		Service: NewFakeService(),
		secret:  []byte("test-secret"),
		users:   make(map[string]apiUser),
		tokens:  make(map[int]string),
	}

	r := mux.NewRouter()
	r.Use(s.record)
	api := r.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.authenticate)
	authed.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/categories/global", s.handleGlobalCategories).Methods(http.MethodGet)
	authed.HandleFunc("/categories/user", s.handleUserCategories).Methods(http.MethodGet)
	authed.HandleFunc("/categories/user", s.handleCreateCategory).Methods(http.MethodPost)
	authed.HandleFunc("/categories/user/{id:[0-9]+}", s.handleUpdateCategory).Methods(http.MethodPut)
	authed.HandleFunc("/categories/user/{id:[0-9]+}", s.handleDeleteCategory).Methods(http.MethodDelete)
	authed.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/{id:[0-9]+}", s.handleUpdateTask).Methods(http.MethodPut)
	authed.HandleFunc("/tasks/{id:[0-9]+}", s.handleDeleteTask).Methods(http.MethodDelete)
	authed.HandleFunc("/tasks/{id:[0-9]+}/complete", s.handleCompleteTask).Methods(http.MethodPatch)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the value to use as api.base_url.
func (s *APIServer) BaseURL() string {
	return s.URL + APIPrefix
}

// AddUser registers a user with a bcrypt-hashed password and returns its id.
func (s *APIServer) AddUser(t *testing.T, email, username, password string) int {
	t.Helper()
	id, err := s.addUser(email, username, password)
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	return id
}

func (s *APIServer) addUser(email, username, password string) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return 0, err
	}
	id := s.Service.AddUser(email, username, "")
	s.mu.Lock()
	s.users[strings.ToLower(email)] = apiUser{id: id, hash: hash}
	s.mu.Unlock()
	return id, nil
}

// Token signs a token for userID valid for ttl. A negative ttl yields an
// expired token.
func (s *APIServer) Token(t *testing.T, userID int, ttl time.Duration) string {
	t.Helper()
	tok, err := s.sign(userID, ttl)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func (s *APIServer) sign(userID int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *APIServer) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if c, ok := token.Claims.(*Claims); ok && token.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// Requests returns the requests received so far.
func (s *APIServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *APIServer) LastRequest() (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *APIServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the bearer token to the Service credential of its user.
func (s *APIServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, ErrUnauthorized)
			return
		}
		claims, err := s.parse(raw)
		if err != nil {
			writeError(w, ErrUnauthorized)
			return
		}

		s.mu.Lock()
		cred, ok := s.tokens[claims.UserID]
		if !ok {
			cred = s.Service.IssueToken(claims.UserID)
			s.tokens[claims.UserID] = cred
		}
		s.mu.Unlock()

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, cred)))
	})
}

func credential(r *http.Request) string {
	cred, _ := r.Context().Value(ctxKey{}).(string)
	return cred
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var respErr *service.ResponseError
	if errors.As(err, &respErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(respErr.StatusCode)
		_, _ = w.Write(respErr.Body)
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return false
	}
	return true
}

type authRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *APIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in authRequest
	if !decode(w, r, &in) {
		return
	}
	if s.Service.LoginErr != nil {
		writeError(w, s.Service.LoginErr)
		return
	}
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(in.Email))]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(in.Password)) != nil {
		writeError(w, ErrBadLogin)
		return
	}
	s.writeToken(w, u.id)
}

func (s *APIServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in authRequest
	if !decode(w, r, &in) {
		return
	}
	if s.Service.RegisterErr != nil {
		writeError(w, s.Service.RegisterErr)
		return
	}
	s.mu.Lock()
	_, exists := s.users[strings.ToLower(strings.TrimSpace(in.Email))]
	s.mu.Unlock()
	if exists {
		writeError(w, ErrEmailTaken)
		return
	}
	id, err := s.addUser(in.Email, in.Username, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeToken(w, id)
}

func (s *APIServer) writeToken(w http.ResponseWriter, userID int) {
	tok, err := s.sign(userID, time.Hour)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *APIServer) handleMe(w http.ResponseWriter, r *http.Request) {
	id, err := s.Service.CurrentUser(r.Context(), credential(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *APIServer) handleGlobalCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Service.GlobalCategories(r.Context(), credential(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (s *APIServer) handleUserCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Service.UserCategories(r.Context(), credential(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func nonNil(cats []service.Category) []service.Category {
	if cats == nil {
		return []service.Category{}
	}
	return cats
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *APIServer) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in nameRequest
	if !decode(w, r, &in) {
		return
	}
	c, err := s.Service.CreateCategory(r.Context(), credential(r), in.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *APIServer) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in nameRequest
	if !decode(w, r, &in) {
		return
	}
	if err := s.Service.UpdateCategory(r.Context(), credential(r), pathID(r), in.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteCategory(r.Context(), credential(r), pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := service.TaskQuery{
		SortBy:      v.Get("sortBy"),
		SortOrder:   v.Get("sortOrder"),
		SearchQuery: v.Get("searchQuery"),
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.PageSize, _ = strconv.Atoi(v.Get("pageSize"))
	if raw := v.Get("isCompleted"); raw != "" {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid isCompleted"})
			return
		}
		q.IsCompleted = &done
	}
	page, err := s.Service.ListTasks(r.Context(), credential(r), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *APIServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in service.NewTask
	if !decode(w, r, &in) {
		return
	}
	task, err := s.Service.CreateTask(r.Context(), credential(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *APIServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in service.TaskPatch
	if !decode(w, r, &in) {
		return
	}
	if err := s.Service.UpdateTask(r.Context(), credential(r), pathID(r), in); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteTask(r.Context(), credential(r), pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.CompleteTask(r.Context(), credential(r), pathID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
