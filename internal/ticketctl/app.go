// Package ticketctl implements the ticketctl command line: saving a login,
// browsing the ticket dashboard, and creating, triaging and commenting on
// tickets through the TicketFlow API.
package ticketctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ticketflow/ticketflow/pkg/client"
)

const (
	// APIURLEnv sets the API base URL used by login.
	APIURLEnv     = "TICKETFLOW_API_URL"
	defaultAPIURL = "http://localhost:4000/api"
)

// Exit codes returned by Run.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// App holds the process environment a command runs against. Tests swap
// the streams and the session path.
type App struct {
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	SessionPath string
	HTTPClient  *http.Client

	ctx context.Context
}

// New returns an App wired to the real process streams.
func New() *App {
	return &App{
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		SessionPath: SessionFilePath(),
	}
}

// Run executes the command named by args[0] and returns the exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	a.ctx = ctx
	commands := a.commands()

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printHelp(a.Stdout, commands)
		if len(args) == 0 {
			return ExitUsage
		}
		return ExitOK
	}

	var cmd *command
	for _, c := range commands {
		if c.name == args[0] {
			cmd = c
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(a.Stderr, "ticketctl: unknown command %q\n\n", args[0])
		printHelp(a.Stderr, commands)
		return ExitUsage
	}

	err := cmd.execute(args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, pflag.ErrHelp):
		printCommandHelp(a.Stdout, cmd)
		return ExitOK
	case errors.Is(err, errUsage):
		fmt.Fprintf(a.Stderr, "ticketctl %s: %s\n", cmd.name, strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
		return ExitUsage
	case client.IsUnauthorized(err):
		// The token expired or was revoked; a stale session would fail
		// every later command the same way.
		if rmErr := RemoveSession(a.SessionPath); rmErr != nil {
			fmt.Fprintf(a.Stderr, "ticketctl: %v\n", rmErr)
		}
		fmt.Fprintln(a.Stderr, `ticketctl: your session has expired, run "ticketctl login" again`)
		return ExitError
	default:
		fmt.Fprintf(a.Stderr, "ticketctl %s: %v\n", cmd.name, err)
		return ExitError
	}
}

func (a *App) context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// apiClient builds a client from the saved session.
func (a *App) apiClient() (*client.Client, *Session, error) {
	session, err := LoadSession(a.SessionPath)
	if err != nil {
		return nil, nil, err
	}
	return client.New(session.APIURL, session.Token, client.WithHTTPClient(a.HTTPClient)), session, nil
}

// readToken reads a pasted token: from a file when tokenFile is set, with
// echo disabled when stdin is a terminal, otherwise from stdin as a pipe.
func (a *App) readToken(tokenFile string) (string, error) {
	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return "", fmt.Errorf("reading token file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if f, ok := a.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.Stderr, "Paste your access token: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	raw, err := io.ReadAll(a.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading token from stdin: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
