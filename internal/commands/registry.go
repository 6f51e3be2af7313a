package commands

import (
	"fmt"
	"sort"
)

// Registry maps command names and aliases to commands. Commands are
// registered from init functions and the registry is read-only afterwards.
type Registry struct {
	byName  map[string]Command
	primary []Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

// Register adds c under its name and aliases.
// It fails when a name is taken or when c is offline but needs a session:
// offline commands run before the session is restored.
func (r *Registry) Register(c Command) error {
	name := c.Name()
	if name == "" {
		return fmt.Errorf("command has no name")
	}
	if IsOffline(c) && c.NeedsAuth() {
		return fmt.Errorf("command %s is offline but needs auth", name)
	}

	names := append([]string{name}, c.Aliases()...)
	for _, n := range names {
		if _, exists := r.byName[n]; exists {
			return fmt.Errorf("command name already registered: %s", n)
		}
	}
	for _, n := range names {
		r.byName[n] = c
	}

	r.primary = append(r.primary, c)
	sort.Slice(r.primary, func(i, j int) bool {
		return r.primary[i].Name() < r.primary[j].Name()
	})
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	cmd, ok := r.byName[name]
	return cmd, ok
}

// All returns each command once, sorted by name.
func (r *Registry) All() []Command {
	return append([]Command(nil), r.primary...)
}

// DefaultRegistry holds the commands of this binary.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry and panics on conflict.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
