package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/meshup-dev/meshup/internal/ops"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleCursor  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	styleHint    = lipgloss.NewStyle().Faint(true)
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleSpinner = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	stylePass = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m model) View() string {
	switch m.screen {
	case screenMenu:
		var b strings.Builder
		b.WriteString(styleTitle.Render("meshup: meshtasticd installer") + "\n\n")
		for i, item := range menuItems {
			cursor := "  "
			line := item.label
			if i == m.cursor {
				cursor = styleCursor.Render("> ")
				line = styleCursor.Render(item.label)
			}
			b.WriteString(cursor + line)
			if item.hint != "" {
				b.WriteString("  " + styleHint.Render(item.hint))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n" + styleHint.Render("↑/↓ move · enter select · q quit"))
		return b.String()

	case screenPick:
		var b strings.Builder
		b.WriteString(styleTitle.Render(m.pickTitle) + "\n\n")
		for i, c := range m.choices {
			if i == m.cursor {
				b.WriteString(styleCursor.Render("> "+c) + "\n")
			} else {
				b.WriteString("  " + c + "\n")
			}
		}
		b.WriteString("\n" + styleHint.Render("enter select · esc back"))
		return b.String()

	case screenBusy:
		return fmt.Sprintf("\n %s %s\n", m.spin.View(), m.busyLabel)

	case screenView:
		return styleTitle.Render(m.viewTitle) + "\n" + m.view.View() + "\n" + styleHint.Render("esc back")

	case screenLogs:
		return styleTitle.Render(m.viewTitle) + "\n" + m.view.View() + "\n" + styleHint.Render("refreshing every 2s · esc back")
	}
	return ""
}

func renderCheck(c ops.Check) string {
	var tag string
	switch c.Status {
	case ops.StatusPass:
		tag = stylePass.Render("pass")
	case ops.StatusWarn:
		tag = styleWarn.Render("warn")
	default:
		tag = styleFail.Render("fail")
	}
	return fmt.Sprintf("%s %-15s %s", tag, c.Name, c.Detail)
}
