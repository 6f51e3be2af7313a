package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/output"
)

func init() {
	Register(&CategoriesCmd{})
	Register(&AddCatCmd{})
	Register(&RenameCatCmd{})
	Register(&RmCatCmd{})
}

// CategoriesCmd implements the categories command.
type CategoriesCmd struct{}

func (c *CategoriesCmd) Name() string      { return "categories" }
func (c *CategoriesCmd) Aliases() []string { return []string{"cats"} }
func (c *CategoriesCmd) Synopsis() string  { return "List global and own categories" }
func (c *CategoriesCmd) Usage() string     { return "taskdesk categories [common flags]" }
func (c *CategoriesCmd) NeedsAuth() bool   { return true }

func (c *CategoriesCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CategoriesCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if err := a.Categories.Fetch(ctx); err != nil {
		return fail(errOut, err)
	}
	all := a.Categories.All()
	if len(all) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no categories")
	}
	for _, cat := range all {
		output.FormatCategory(out, cat)
	}
	return exitcode.Success
}

// AddCatCmd implements the addcat command.
type AddCatCmd struct{}

func (c *AddCatCmd) Name() string      { return "addcat" }
func (c *AddCatCmd) Aliases() []string { return nil }
func (c *AddCatCmd) Synopsis() string  { return "Create a category" }
func (c *AddCatCmd) Usage() string     { return "taskdesk addcat [common flags] <name...>" }
func (c *AddCatCmd) NeedsAuth() bool   { return true }

func (c *AddCatCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCatCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	name := joinArgs(args)
	if name == "" {
		fmt.Fprintln(errOut, "error: category name required")
		return exitcode.UserError
	}
	cat, err := a.Categories.Create(ctx, name)
	if err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintln(out, cat.ID)
	return exitcode.Success
}

// RenameCatCmd implements the renamecat command.
type RenameCatCmd struct{}

func (c *RenameCatCmd) Name() string      { return "renamecat" }
func (c *RenameCatCmd) Aliases() []string { return nil }
func (c *RenameCatCmd) Synopsis() string  { return "Rename one of your categories" }
func (c *RenameCatCmd) Usage() string     { return "taskdesk renamecat [common flags] <id> <name...>" }
func (c *RenameCatCmd) NeedsAuth() bool   { return true }

func (c *RenameCatCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RenameCatCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	id, err := parseID(args, "category")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	name := joinArgs(args[1:])
	if name == "" {
		fmt.Fprintln(errOut, "error: category name required")
		return exitcode.UserError
	}

	// Ownership is checked against the fetched collection.
	if err := a.Categories.Fetch(ctx); err != nil {
		return fail(errOut, err)
	}
	if err := a.Categories.Update(ctx, id, name); err != nil {
		return fail(errOut, err)
	}
	return printOK(cfg, out)
}

// RmCatCmd implements the rmcat command.
type RmCatCmd struct{}

func (c *RmCatCmd) Name() string      { return "rmcat" }
func (c *RmCatCmd) Aliases() []string { return nil }
func (c *RmCatCmd) Synopsis() string  { return "Delete one of your categories" }
func (c *RmCatCmd) Usage() string     { return "taskdesk rmcat [common flags] <id>" }
func (c *RmCatCmd) NeedsAuth() bool   { return true }

func (c *RmCatCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCatCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	id, err := parseID(args, "category")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := a.Categories.Fetch(ctx); err != nil {
		return fail(errOut, err)
	}
	if err := a.Categories.Delete(ctx, id); err != nil {
		return fail(errOut, err)
	}
	return printOK(cfg, out)
}
