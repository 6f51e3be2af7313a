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
	"taskdesk/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only flags given on the command
// line are sent.
type EditCmd struct {
	title       *string
	description *string
	due         *string
	categories  *string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change fields of a task" }
func (c *EditCmd) Usage() string {
	return "taskdesk edit [--title <text>] [--description <text>] [--due <time>] [--categories <id,id>] <id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.description, c.due, c.categories = nil, nil, nil, nil
	fs.Func("title", "", setString(&c.title))
	fs.Func("description", "", setString(&c.description))
	fs.Func("due", "", setString(&c.due))
	fs.Func("categories", "", setString(&c.categories))
}

func setString(dst **string) func(string) error {
	return func(v string) error {
		*dst = &v
		return nil
	}
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	id, err := parseID(args, "task")
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	var patch service.TaskPatch
	if c.title != nil {
		title := strings.TrimSpace(*c.title)
		if title == "" {
			fmt.Fprintln(errOut, "error: title must not be empty")
			return exitcode.UserError
		}
		patch.Title = &title
	}
	if c.description != nil {
		patch.Description = c.description
	}
	if c.due != nil {
		due, err := service.ParseTimestamp(*c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid due date: %s\n", *c.due)
			return exitcode.UserError
		}
		patch.DueDate = &due
	}
	if c.categories != nil {
		ids, err := parseIDList(*c.categories)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		patch.CategoryIDs = &ids
	}
	if patch.IsEmpty() {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	if err := a.Tasks.UpdateTask(ctx, id, patch); err != nil {
		return fail(errOut, err)
	}
	return printOK(cfg, out)
}
