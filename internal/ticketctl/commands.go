package ticketctl

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/ticketflow/ticketflow/pkg/client"
)

var (
	statusValues   = []string{"ABIERTO", "EN_PROGRESO", "RESUELTO", "CERRADO"}
	priorityValues = []string{"BAJA", "MEDIA", "ALTA", "CRITICA"}
)

func (a *App) commands() []*command {
	return []*command{
		a.loginCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.listCommand(),
		a.createCommand(),
		a.updateCommand(),
		a.commentsCommand(),
		a.commentCommand(),
	}
}

func (a *App) loginCommand() *command {
	var apiURL, tokenFile string
	return &command{
		name:    "login",
		usage:   "ticketctl login [--api-url URL] [--token-file PATH]",
		summary: "Save an access token for later commands",
		flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			def := os.Getenv(APIURLEnv)
			if def == "" {
				def = defaultAPIURL
			}
			fs.StringVar(&apiURL, "api-url", def, "API base URL (env "+APIURLEnv+")")
			fs.StringVar(&tokenFile, "token-file", "", "read the token from this file instead of prompting")
			return fs
		},
		run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unexpected argument %q", args[0])
			}
			token, err := a.readToken(tokenFile)
			if err != nil {
				return err
			}
			info, err := client.DecodeUnverified(token)
			if err != nil {
				return fmt.Errorf("the token could not be read, paste the full access token: %w", err)
			}
			if info.ExpiresAt != nil && info.ExpiresAt.Before(time.Now()) {
				return errors.New("the token has already expired")
			}
			session := &Session{APIURL: strings.TrimRight(apiURL, "/"), Token: token}
			if err := SaveSession(session, a.SessionPath); err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "Logged in as %s\n", describeIdentity(info))
			fmt.Fprintf(a.Stderr, "Session saved to %s\n", a.SessionPath)
			return nil
		},
	}
}

func (a *App) logoutCommand() *command {
	return &command{
		name:    "logout",
		usage:   "ticketctl logout",
		summary: "Forget the saved session",
		run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unexpected argument %q", args[0])
			}
			if err := RemoveSession(a.SessionPath); err != nil {
				return err
			}
			fmt.Fprintln(a.Stdout, "Logged out")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *command {
	return &command{
		name:    "whoami",
		usage:   "ticketctl whoami",
		summary: "Show who the saved token belongs to",
		run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unexpected argument %q", args[0])
			}
			session, err := LoadSession(a.SessionPath)
			if err != nil {
				return err
			}
			info, err := client.DecodeUnverified(session.Token)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.Stdout, "User:    %s\n", describeIdentity(info))
			roles := "-"
			if len(info.Roles) > 0 {
				roles = strings.Join(info.Roles, ", ")
			}
			fmt.Fprintf(a.Stdout, "Roles:   %s\n", roles)
			fmt.Fprintf(a.Stdout, "API:     %s\n", session.APIURL)
			if info.ExpiresAt != nil {
				fmt.Fprintf(a.Stdout, "Expires: %s\n", info.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func (a *App) listCommand() *command {
	var status, priority string
	return &command{
		name:    "list",
		usage:   "ticketctl list [--status STATUS] [--priority PRIORITY]",
		summary: "Show the ticket dashboard",
		flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
			fs.StringVar(&status, "status", "", "only tickets in this status ("+strings.Join(statusValues, ", ")+")")
			fs.StringVar(&priority, "priority", "", "only tickets with this priority ("+strings.Join(priorityValues, ", ")+")")
			return fs
		},
		run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unexpected argument %q", args[0])
			}
			statusFilter, err := normalizeChoice("status", status, statusValues)
			if err != nil {
				return err
			}
			priorityFilter, err := normalizeChoice("priority", priority, priorityValues)
			if err != nil {
				return err
			}

			api, _, err := a.apiClient()
			if err != nil {
				return err
			}
			tickets, err := api.ListTickets(a.context())
			if err != nil {
				return err
			}
			tickets = filterTickets(tickets, statusFilter, priorityFilter)
			if len(tickets) == 0 {
				fmt.Fprintln(a.Stdout, "No tickets found.")
				return nil
			}
			fmt.Fprintln(a.Stdout, renderTickets(tickets))
			fmt.Fprintf(a.Stdout, "%d ticket(s)\n", len(tickets))
			return nil
		},
	}
}

func (a *App) createCommand() *command {
	var title, description, priority string
	return &command{
		name:    "create",
		usage:   "ticketctl create --title TITLE --description TEXT [--priority PRIORITY]",
		summary: "Open a new ticket",
		flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
			fs.StringVarP(&title, "title", "t", "", "short summary, at least 5 characters")
			fs.StringVarP(&description, "description", "d", "", "what happened, at least 10 characters")
			fs.StringVarP(&priority, "priority", "p", "", "BAJA, MEDIA (default), ALTA or CRITICA")
			return fs
		},
		run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unexpected argument %q", args[0])
			}
			if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
				return usageErrorf("--title and --description are required")
			}
			normalized, err := normalizeChoice("priority", priority, priorityValues)
			if err != nil {
				return err
			}
			api, _, err := a.apiClient()
			if err != nil {
				return err
			}
			created, err := api.CreateTicket(a.context(), client.CreateTicketRequest{
				Title:       title,
				Description: description,
				Priority:    normalized,
			})
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(a.Stdout, "%s (#%d)\n", created.Message, created.ID)
			return nil
		},
	}
}

func (a *App) updateCommand() *command {
	var status, priority, assignee string
	return &command{
		name:    "update",
		usage:   "ticketctl update <id> [--status STATUS] [--priority PRIORITY] [--assign EMAIL]",
		summary: "Change status, priority or assignee (support staff only)",
		flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
			fs.StringVar(&status, "status", "", "new status")
			fs.StringVar(&priority, "priority", "", "new priority")
			fs.StringVar(&assignee, "assign", "", "email of the agent taking the ticket")
			return fs
		},
		run: func(fs *pflag.FlagSet, args []string) error {
			id, err := ticketIDArg(args, 1)
			if err != nil {
				return err
			}
			var req client.UpdateTicketRequest
			if fs.Changed("status") {
				v, err := normalizeChoice("status", status, statusValues)
				if err != nil {
					return err
				}
				req.Status = &v
			}
			if fs.Changed("priority") {
				v, err := normalizeChoice("priority", priority, priorityValues)
				if err != nil {
					return err
				}
				req.Priority = &v
			}
			if fs.Changed("assign") {
				v := strings.TrimSpace(assignee)
				req.AssignedToEmail = &v
			}
			if req.Status == nil && req.Priority == nil && req.AssignedToEmail == nil {
				return usageErrorf("nothing to update, pass --status, --priority or --assign")
			}

			api, _, err := a.apiClient()
			if err != nil {
				return err
			}
			msg, err := api.UpdateTicket(a.context(), id, req)
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(a.Stdout, "%s (#%d)\n", msg, id)
			return nil
		},
	}
}

func (a *App) commentsCommand() *command {
	return &command{
		name:    "comments",
		usage:   "ticketctl comments <id>",
		summary: "Show the conversation on a ticket",
		run: func(_ *pflag.FlagSet, args []string) error {
			id, err := ticketIDArg(args, 1)
			if err != nil {
				return err
			}
			api, _, err := a.apiClient()
			if err != nil {
				return err
			}
			comments, err := api.ListComments(a.context(), id)
			if err != nil {
				return err
			}
			if len(comments) == 0 {
				fmt.Fprintf(a.Stdout, "No comments on ticket #%d yet.\n", id)
				return nil
			}
			fmt.Fprint(a.Stdout, renderComments(comments))
			return nil
		},
	}
}

func (a *App) commentCommand() *command {
	return &command{
		name:    "comment",
		usage:   "ticketctl comment <id> <text...>",
		summary: "Add a comment to a ticket",
		run: func(_ *pflag.FlagSet, args []string) error {
			if len(args) < 2 {
				return usageErrorf("expected a ticket id and the comment text")
			}
			id, err := ticketIDArg(args[:1], 1)
			if err != nil {
				return err
			}
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return usageErrorf("the comment text is empty")
			}
			api, _, err := a.apiClient()
			if err != nil {
				return err
			}
			created, err := api.AddComment(a.context(), id, content)
			if err != nil {
				return describeAPIError(err)
			}
			fmt.Fprintf(a.Stdout, "%s (#%d)\n", created.Message, created.ID)
			return nil
		},
	}
}

func ticketIDArg(args []string, want int) (int64, error) {
	if len(args) != want {
		return 0, usageErrorf("expected exactly one ticket id")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErrorf("invalid ticket id %q", args[0])
	}
	return id, nil
}

// normalizeChoice upper-cases value and checks it against allowed. An empty
// value stays empty.
func normalizeChoice(name, value string, allowed []string) (string, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return "", nil
	}
	for _, candidate := range allowed {
		if value == candidate {
			return value, nil
		}
	}
	return "", usageErrorf("invalid %s %q, expected one of %s", name, value, strings.Join(allowed, ", "))
}

func filterTickets(tickets []client.Ticket, status, priority string) []client.Ticket {
	if status == "" && priority == "" {
		return tickets
	}
	filtered := make([]client.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if status != "" && t.Status != status {
			continue
		}
		if priority != "" && t.Priority != priority {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

func describeIdentity(info client.TokenInfo) string {
	switch {
	case info.Name != "" && info.Email != "":
		return fmt.Sprintf("%s <%s>", info.Name, info.Email)
	case info.Email != "":
		return info.Email
	case info.Name != "":
		return info.Name
	default:
		return info.Subject
	}
}

// describeAPIError adds field details of a validation failure to the message.
func describeAPIError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Details) == 0 {
		return err
	}
	var b strings.Builder
	b.WriteString(apiErr.Message)
	for _, field := range sortedKeys(apiErr.Details) {
		fmt.Fprintf(&b, "\n  %s: %v", field, apiErr.Details[field])
	}
	return errors.New(b.String())
}
