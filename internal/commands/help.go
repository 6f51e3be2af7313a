package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskdesk help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }
func (c *HelpCmd) Offline() bool     { return true }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskdesk                                           List the first page of tasks
  taskdesk list [common flags] [--page <n>] [--status all|open|done]
                [--sort <field>] [--order asc|desc] [--search <text>]
  taskdesk add [common flags] [--description <text>] [--due <time>]
               [--categories <id,id>] <title...>
  taskdesk edit [common flags] [--title <text>] [--description <text>]
                [--due <time>] [--categories <id,id>] <id>
  taskdesk done [common flags] <id>
  taskdesk rm [common flags] <id>
  taskdesk categories [common flags]
  taskdesk addcat [common flags] <name...>
  taskdesk renamecat [common flags] <id> <name...>
  taskdesk rmcat [common flags] <id>
  taskdesk login [common flags] --email <email> --password <password>
  taskdesk register [common flags] --email <email> --username <name> --password <password>
  taskdesk logout [common flags]
  taskdesk whoami [common flags]
  taskdesk help
  taskdesk version

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Settings are read from config.toml in the config directory and from
TASKDESK_* environment variables (TASKDESK_API_BASE_URL, ...).
`
