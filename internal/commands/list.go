package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/output"
	"taskdesk/internal/tasks"
)

func init() {
	Register(&ListCmd{})
}

// Values accepted by list --status.
const (
	StatusAll  = "all"
	StatusOpen = "open"
	StatusDone = "done"
)

// ListCmd implements the list command.
// Handles both `taskdesk` (no args) and `taskdesk list [flags]`.
type ListCmd struct {
	page   int
	status string
	sortBy string
	order  string
	search string
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskdesk list [--page <n>] [--status all|open|done] [--sort <field>] [--order asc|desc] [--search <text>]"
}
func (c *ListCmd) NeedsAuth() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.page, "page", 1, "")
	fs.StringVar(&c.status, "status", StatusAll, "")
	fs.StringVar(&c.sortBy, "sort", "", "")
	fs.StringVar(&c.order, "order", "", "")
	fs.StringVar(&c.search, "search", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if c.page < 1 {
		fmt.Fprintf(errOut, "error: invalid page number: %d\n", c.page)
		return exitcode.UserError
	}
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	q := tasks.Query{
		Page:        c.page,
		SortBy:      strings.TrimSpace(c.sortBy),
		SearchQuery: strings.TrimSpace(c.search),
	}
	switch c.status {
	case StatusAll, "":
	case StatusOpen:
		open := false
		q.IsCompleted = &open
	case StatusDone:
		done := true
		q.IsCompleted = &done
	default:
		fmt.Fprintf(errOut, "error: invalid status: %s\n", c.status)
		return exitcode.UserError
	}
	switch order := strings.ToLower(strings.TrimSpace(c.order)); order {
	case "", "asc", "desc":
		q.SortOrder = order
	default:
		fmt.Fprintf(errOut, "error: invalid order: %s\n", c.order)
		return exitcode.UserError
	}

	if err := a.Tasks.FetchTasks(ctx, q); err != nil {
		return fail(errOut, err)
	}
	output.FormatPage(out, a.Tasks.Page())
	return exitcode.Success
}
