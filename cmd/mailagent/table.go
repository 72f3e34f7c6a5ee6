package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/theme"
)

// cellStyler picks a style for a body cell; row and col are zero-based.
type cellStyler func(row, col int) lipgloss.Style

func renderTable(w io.Writer, title string, headers []string, rows [][]string, style cellStyler) {
	fmt.Fprintln(w, theme.HeaderStyle.Render(title))
	if len(rows) == 0 {
		fmt.Fprintln(w, theme.DimmedStyle.Render("  (none)"))
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(theme.BorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeaderStyle
			}
			if style != nil {
				return style(row, col)
			}
			return theme.CellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// describeAction renders an action the way it is written in the config.
func describeAction(a model.Action) string {
	switch act := a.(type) {
	case model.ForwardAction:
		if act.To == "" {
			return "forward (no destination)"
		}
		return "forward to " + act.To
	case model.NotifyAction:
		return "notify (" + act.Priority + ")"
	case model.AutoReplyAction:
		return "auto_reply (" + string(act.Template) + ")"
	case model.UnknownAction:
		return act.Type + " (unknown)"
	default:
		return string(a.Kind())
	}
}

func describeActions(actions []model.Action) string {
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		parts = append(parts, describeAction(a))
	}
	return strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
