// Package session owns the authentication credential and the current identity.
//
// The store moves through three states:
//
//	Anonymous --login/register--> Authenticated
//	Anonymous --initialize (persisted credential)--> Restoring --identity ok--> Authenticated
//	Restoring --identity failed--> Anonymous
//	any --logout--> Anonymous
//
// It is the only component that writes the persisted credential.
package session

import (
	"context"
	"log/slog"
	"sync"

	"taskdesk/internal/apperr"
	"taskdesk/internal/keystore"
	"taskdesk/internal/service"
)

// State is a session lifecycle state.
type State int

const (
	Anonymous State = iota
	Restoring
	Authenticated
)

func (s State) String() string {
	switch s {
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Store holds the session for one process.
type Store struct {
	api     service.Service
	storage keystore.Store
	log     *slog.Logger

	mu         sync.RWMutex
	state      State
	credential string
	identity   *service.Identity
}

// New returns an Anonymous store.
func New(api service.Service, storage keystore.Store, log *slog.Logger) *Store {
	return &Store{api: api, storage: storage, log: log}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether both credential and identity are present.
func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// Credential returns the bearer credential, if any. Callers must not keep it
// beyond the operation they need it for.
func (s *Store) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.credential != ""
}

// Identity returns the authenticated user, if known.
func (s *Store) Identity() (service.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return service.Identity{}, false
	}
	return *s.identity, true
}

// Login authenticates with email and password.
// On any failure the store is left Anonymous with nothing persisted.
func (s *Store) Login(ctx context.Context, email, password string) error {
	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return apperr.Remote(apperr.OpLogin, err)
	}
	return s.establish(ctx, apperr.OpLogin, token)
}

// Register creates an account and authenticates as it.
// Failure handling matches Login.
func (s *Store) Register(ctx context.Context, email, username, password string) error {
	token, err := s.api.Register(ctx, email, username, password)
	if err != nil {
		return apperr.Remote(apperr.OpRegister, err)
	}
	return s.establish(ctx, apperr.OpRegister, token)
}

// establish stores and persists token, then loads the identity.
// Any failure rolls back to Anonymous.
func (s *Store) establish(ctx context.Context, op, token string) error {
	if token == "" {
		s.log.Debug("server returned an empty credential", "op", op)
		return &apperr.RemoteError{Op: op, Message: apperr.UnknownServerError}
	}

	s.mu.Lock()
	s.credential = token
	s.identity = nil
	s.mu.Unlock()

	if err := s.storage.Set(keystore.CredentialKey, token); err != nil {
		s.Logout()
		return apperr.Remote(op, err)
	}
	if err := s.FetchIdentity(ctx); err != nil {
		s.Logout()
		return apperr.Remote(op, err)
	}

	s.setState(Authenticated)
	s.log.Debug("session established", "op", op)
	return nil
}

// FetchIdentity loads the identity for the current credential.
// It does not change the state.
func (s *Store) FetchIdentity(ctx context.Context) error {
	credential, ok := s.Credential()
	if !ok {
		return apperr.Auth(apperr.OpFetchIdentity)
	}
	identity, err := s.api.CurrentUser(ctx, credential)
	if err != nil {
		return apperr.Remote(apperr.OpFetchIdentity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent logout wins over a late identity response.
	if s.credential != credential {
		return apperr.Auth(apperr.OpFetchIdentity)
	}
	s.identity = &identity
	return nil
}

// Logout clears the session and the persisted credential. It always succeeds;
// a storage failure is logged.
func (s *Store) Logout() {
	s.mu.Lock()
	s.credential = ""
	s.identity = nil
	s.state = Anonymous
	s.mu.Unlock()

	if err := s.storage.Delete(keystore.CredentialKey); err != nil {
		s.log.Warn("failed to remove persisted credential", "error", err)
	}
}

// Initialize restores a persisted session. Restore failures are not returned:
// the store logs out and stays Anonymous. Calling it on an Authenticated
// store, or again after a failed restore, does nothing.
func (s *Store) Initialize(ctx context.Context) {
	if s.State() == Authenticated {
		return
	}

	token, ok, err := s.storage.Get(keystore.CredentialKey)
	if err != nil {
		s.log.Debug("failed to read persisted credential", "error", err)
		s.Logout()
		return
	}
	if !ok {
		s.setState(Anonymous)
		return
	}

	s.mu.Lock()
	s.credential = token
	s.identity = nil
	s.state = Restoring
	s.mu.Unlock()

	if err := s.FetchIdentity(ctx); err != nil {
		s.log.Debug("session restore failed", "error", err)
		s.Logout()
		return
	}
	s.setState(Authenticated)
	s.log.Debug("session restored")
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}
