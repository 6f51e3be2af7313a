package commands_test

import (
	"context"
	"flag"
	"io"
	"testing"

	"taskdesk/internal/app"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
)

type stubCmd struct {
	name      string
	aliases   []string
	needsAuth bool
	offline   bool
}

func (c *stubCmd) Name() string                   { return c.name }
func (c *stubCmd) Aliases() []string              { return c.aliases }
func (c *stubCmd) Synopsis() string               { return "" }
func (c *stubCmd) Usage() string                  { return "" }
func (c *stubCmd) NeedsAuth() bool                { return c.needsAuth }
func (c *stubCmd) Offline() bool                  { return c.offline }
func (c *stubCmd) RegisterFlags(fs *flag.FlagSet) {}
func (c *stubCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	return exitcode.Success
}

func TestRegistry_FindByAlias(t *testing.T) {
	r := commands.NewRegistry()
	cmd := &stubCmd{name: "remove", aliases: []string{"rm", "del"}}
	if err := r.Register(cmd); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, name := range []string{"remove", "rm", "del"} {
		got, ok := r.Find(name)
		if !ok || got != cmd {
			t.Errorf("Find(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := r.Find("delete"); ok {
		t.Error("unexpected command for unregistered name")
	}
}

func TestRegistry_AllSortedOnce(t *testing.T) {
	r := commands.NewRegistry()
	for _, c := range []*stubCmd{
		{name: "whoami"},
		{name: "add", aliases: []string{"create"}},
		{name: "list", aliases: []string{"ls"}},
	} {
		if err := r.Register(c); err != nil {
			t.Fatalf("register %s: %v", c.name, err)
		}
	}

	all := r.All()
	var names []string
	for _, c := range all {
		names = append(names, c.Name())
	}
	want := []string{"add", "list", "whoami"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
			break
		}
	}

	// The returned slice is a copy.
	all[0] = nil
	if r.All()[0] == nil {
		t.Error("All should return a copy")
	}
}

func TestRegistry_Conflicts(t *testing.T) {
	tests := []struct {
		name string
		cmd  *stubCmd
		want string
	}{
		{"duplicate name", &stubCmd{name: "list"}, "command name already registered: list"},
		{"alias taken", &stubCmd{name: "index", aliases: []string{"ls"}}, "command name already registered: ls"},
		{"alias shadows name", &stubCmd{name: "show", aliases: []string{"list"}}, "command name already registered: list"},
		{"offline needs auth", &stubCmd{name: "stats", needsAuth: true, offline: true}, "command stats is offline but needs auth"},
		{"no name", &stubCmd{}, "command has no name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := commands.NewRegistry()
			if err := r.Register(&stubCmd{name: "list", aliases: []string{"ls"}}); err != nil {
				t.Fatalf("register: %v", err)
			}

			err := r.Register(tt.cmd)
			if err == nil || err.Error() != tt.want {
				t.Errorf("expected error %q, got %v", tt.want, err)
			}
			if len(r.All()) != 1 {
				t.Errorf("failed registration should add nothing, got %d commands", len(r.All()))
			}
		})
	}
}

// TestDefaultRegistry_OfflineCommands verifies only commands that never need a
// session are registered as offline.
func TestDefaultRegistry_OfflineCommands(t *testing.T) {
	var offline []string
	for _, c := range commands.DefaultRegistry.All() {
		if commands.IsOffline(c) {
			offline = append(offline, c.Name())
			if c.NeedsAuth() {
				t.Errorf("%s is offline but needs auth", c.Name())
			}
		}
	}
	if len(offline) != 2 || offline[0] != "help" || offline[1] != "version" {
		t.Errorf("expected offline commands [help version], got %v", offline)
	}
}
