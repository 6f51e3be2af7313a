// Package app wires the stores to a backend and durable storage.
package app

import (
	"fmt"
	"log/slog"

	"taskdesk/internal/categories"
	"taskdesk/internal/config"
	"taskdesk/internal/guard"
	"taskdesk/internal/keystore"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
	"taskdesk/internal/tasks"
)

// App is the set of stores one command works with.
type App struct {
	Session    *session.Store
	Categories *categories.Store
	Tasks      *tasks.Store
	Guard      *guard.Guard
	Log        *slog.Logger

	storage keystore.Store
}

// New builds the stores over api and storage. The category and task stores
// read the credential from the session store.
func New(cfg *config.Config, api service.Service, storage keystore.Store, log *slog.Logger) *App {
	sess := session.New(api, storage, log)
	return &App{
		Session:    sess,
		Categories: categories.New(api, sess, log),
		Tasks:      tasks.New(api, sess, cfg.Tasks.PageSize, log),
		Guard:      guard.New(sess),
		Log:        log,
		storage:    storage,
	}
}

// OpenStorage creates the config directory and opens the credential storage
// selected by storage.backend inside it.
func OpenStorage(cfg *config.Config) (keystore.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageSQLite, config.StorageFile, "":
	default:
		return nil, fmt.Errorf("unknown storage.backend: %s", cfg.Storage.Backend)
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		s, err := keystore.OpenSQLite(cfg.DatabasePath())
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", config.DatabaseFile, err)
		}
		return s, nil
	default:
		return keystore.NewFileStore(cfg.Dir), nil
	}
}

// Close releases the storage if it holds resources.
func (a *App) Close() error {
	if c, ok := a.storage.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
