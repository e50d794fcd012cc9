package ticketctl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ticketflow/ticketflow/pkg/client"
)

const timeLayout = "2006-01-02 15:04"

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	authorStyle = lipgloss.NewStyle().Bold(true)

	priorityColors = map[string]lipgloss.Color{
		"BAJA":    lipgloss.Color("8"),
		"MEDIA":   lipgloss.Color("4"),
		"ALTA":    lipgloss.Color("3"),
		"CRITICA": lipgloss.Color("1"),
	}
	statusColors = map[string]lipgloss.Color{
		"ABIERTO":     lipgloss.Color("2"),
		"EN_PROGRESO": lipgloss.Color("6"),
		"RESUELTO":    lipgloss.Color("5"),
		"CERRADO":     lipgloss.Color("8"),
	}
)

const (
	colPriority = 2
	colStatus   = 3
)

func renderTickets(tickets []client.Ticket) string {
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		assignee := "-"
		if t.AssignedToEmail != nil && *t.AssignedToEmail != "" {
			assignee = *t.AssignedToEmail
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			truncate(t.Title, 40),
			t.Priority,
			t.Status,
			t.CreatedByEmail,
			assignee,
			t.CreatedAt.Local().Format(timeLayout),
		})
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "TITLE", "PRIORITY", "STATUS", "CREATED BY", "ASSIGNED TO", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			style := cellStyle
			if row < 0 || row >= len(rows) {
				return style
			}
			switch col {
			case colPriority:
				if c, ok := priorityColors[rows[row][col]]; ok {
					style = style.Foreground(c).Bold(rows[row][col] == "CRITICA")
				}
			case colStatus:
				if c, ok := statusColors[rows[row][col]]; ok {
					style = style.Foreground(c)
				}
			}
			return style
		})
	return tbl.String()
}

func renderComments(comments []client.Comment) string {
	var b strings.Builder
	for _, c := range comments {
		fmt.Fprintf(&b, "%s %s %s\n",
			authorStyle.Render("["+c.UserRole+"]"),
			c.UserEmail,
			mutedStyle.Render(c.CreatedAt.Local().Format(timeLayout)))
		for _, line := range strings.Split(c.Content, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
