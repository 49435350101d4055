package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bankassist/internal/session"
)

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// View renders the header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := "Bank Support Assistant"
	if m.phase == phaseChat {
		header += " · " + m.identity.CustomerID
	}

	return headerStyle.Render(header) + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

func renderTranscript(turns []session.Turn, width int) string {
	if len(turns) == 0 {
		return "No messages yet."
	}

	wrap := lipgloss.NewStyle()
	if width > 4 {
		wrap = wrap.Width(width - 4)
	}

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if t.Role == session.RoleUser {
			b.WriteString(userStyle.Render("You"))
		} else {
			b.WriteString(assistantStyle.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(strings.TrimRight(t.Text, "\n")))
	}
	return b.String()
}
