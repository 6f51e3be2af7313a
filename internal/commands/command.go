// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"taskdesk/internal/app"
	"taskdesk/internal/apperr"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires an authenticated session.
	// Commands like login, register, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, settings).
	// a is nil for offline commands.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int
}

// Offline is implemented by commands that never touch the session or the
// network, such as help and version.
type Offline interface {
	Offline() bool
}

// IsOffline reports whether cmd runs without a session.
func IsOffline(cmd Command) bool {
	o, ok := cmd.(Offline)
	return ok && o.Offline()
}

// ExitCode maps a store error to a process exit code.
func ExitCode(err error) int {
	var authErr *apperr.AuthError
	var nfErr *apperr.NotFoundError
	var remoteErr *apperr.RemoteError
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &authErr):
		return exitcode.AuthError
	case errors.As(err, &nfErr):
		return exitcode.UserError
	case errors.As(err, &remoteErr) && (remoteErr.StatusCode == 401 || remoteErr.StatusCode == 403):
		return exitcode.AuthError
	case errors.As(err, &remoteErr) && remoteErr.StatusCode >= 400 && remoteErr.StatusCode < 500:
		return exitcode.UserError
	default:
		return exitcode.BackendError
	}
}

// fail prints err and returns its exit code.
func fail(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %s\n", err)
	return ExitCode(err)
}

// printOK prints "ok" unless quiet.
func printOK(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// parseID parses the first positional argument as a positive id.
func parseID(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s id required", what)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s id: %s", what, args[0])
	}
	return id, nil
}

// parseIDList parses a comma-separated id list. An empty string yields an
// empty, non-nil list.
func parseIDList(s string) ([]int, error) {
	ids := []int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid category id: %s", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// joinArgs joins positional args into one trimmed string.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
