package ticketctl

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// errUsage marks mistakes in how a command was invoked.
var errUsage = errors.New("usage error")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// command is one ticketctl subcommand.
type command struct {
	name    string
	usage   string
	summary string
	// flags may be nil for commands without flags.
	flags func() *pflag.FlagSet
	run   func(fs *pflag.FlagSet, args []string) error
}

func (c *command) execute(args []string) error {
	fs := pflag.NewFlagSet(c.name, pflag.ContinueOnError)
	if c.flags != nil {
		fs = c.flags()
	}
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageErrorf("%v\n\nusage: %s", err, c.usage)
	}
	return c.run(fs, fs.Args())
}

func printHelp(w io.Writer, commands []*command) {
	fmt.Fprintln(w, "ticketctl: command-line client for the TicketFlow API")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Run "ticketctl <command> --help" for the flags of a command.`)
}

func printCommandHelp(w io.Writer, c *command) {
	fmt.Fprintf(w, "usage: %s\n\n%s\n", c.usage, c.summary)
	if c.flags == nil {
		return
	}
	fs := c.flags()
	if usage := strings.TrimRight(fs.FlagUsages(), "\n"); usage != "" {
		fmt.Fprintf(w, "\nFlags:\n%s\n", usage)
	}
}
