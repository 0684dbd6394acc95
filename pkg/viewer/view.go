package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"irrigation/entities"
	"irrigation/pkg/dashboard"
	"irrigation/pkg/form"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	runningStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	badgeStyles = map[string]lipgloss.Style{
		"default":   lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("238")).Padding(0, 1),
		"secondary": lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220")).Padding(0, 1),
		"outline":   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Padding(0, 1),
	}
)

var fieldLabels = map[string]string{
	form.FieldPlantName:    "Nome da planta",
	form.FieldSpecificDate: "Data",
	form.FieldTime:         "Horário",
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Agendamentos de Irrigação"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("conexão: " + string(m.feedState)))
	if m.snap != nil {
		b.WriteString(dimStyle.Render(" · atualizado " + m.snap.ReceivedAt.Format("15:04:05")))
	}
	b.WriteString("\n\n")

	help := m.keys.listHelp()
	switch {
	case m.form.IsOpen():
		b.WriteString(m.formView())
		help = m.keys.formHelp()
	case m.confirm.IsOpen():
		b.WriteString(m.confirmView())
		help = m.keys.confirmHelp()
	case m.loading:
		b.WriteString(dashboard.LoadingMessage)
	default:
		b.WriteString(m.listView())
	}

	b.WriteString("\n\n")
	if line := m.statusLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(helpLine(help))
	return b.String()
}

func hhmm(s string) string {
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

func actionsText(a dashboard.Actions) string {
	if a.Marker != "" {
		return runningStyle.Render(a.Marker)
	}
	var parts []string
	if a.Edit {
		parts = append(parts, "[e] editar")
	}
	if a.Delete {
		parts = append(parts, "[d] remover")
	}
	return dimStyle.Render(strings.Join(parts, " "))
}

func (m Model) listView() string {
	if len(m.rows) == 0 {
		return dimStyle.Render("Nenhuma irrigação agendada.")
	}
	var b strings.Builder
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-20s %-10s %-14s %-5s  %-13s %s", "Planta", "Data", "Dia", "Hora", "Status", "Ações")))
	b.WriteString("\n")
	for i, r := range m.rows {
		line := fmt.Sprintf("%-20s %-10s %-14s %-5s  ", truncate(r.PlantName, 20), r.DisplayDate, r.DayOfWeek, hhmm(r.Time))
		badge := badgeStyles[r.Variant].Render(r.StatusLabel)
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + badge + " " + actionsText(r.Actions))
		if i < len(m.rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) formView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.form.Title()))
	b.WriteString("\n")
	for i, name := range fieldOrder {
		b.WriteString("\n")
		b.WriteString(fieldLabels[name])
		b.WriteString(": ")
		b.WriteString(m.inputs[i].View())
		if msg, ok := m.form.Errors[name]; ok {
			b.WriteString("\n  ")
			b.WriteString(errorStyle.Render(msg))
		}
	}
	b.WriteString("\n\n")
	if m.form.Busy() {
		b.WriteString(dimStyle.Render("Enviando..."))
	} else {
		b.WriteString("[enter] " + m.form.SubmitLabel())
	}
	return boxStyle.Render(b.String())
}

func (m Model) confirmView() string {
	t := m.confirm.Target
	var b strings.Builder
	b.WriteString(titleStyle.Render("Remover Irrigação"))
	b.WriteString("\n\n")
	b.WriteString(dashboard.DeletePrompt)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s · %s %s · %s", t.PlantName, t.DisplayDate, hhmm(t.Time), t.Status.Label()))
	if m.confirm.Err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.confirm.Err))
	}
	b.WriteString("\n\n")
	if m.confirm.Disabled() {
		b.WriteString(dimStyle.Render("Removendo..."))
	} else {
		b.WriteString("[y] Remover  [n] Cancelar")
	}
	return boxStyle.Render(b.String())
}

// statusLine shows the local flash message, falling back to the newest
// notice.
func (m Model) statusLine() string {
	if m.flash != "" {
		return m.flash
	}
	if len(m.notices) == 0 {
		return ""
	}
	n := m.notices[0]
	switch n.Level {
	case entities.NoticeError:
		return errorStyle.Render(n.Message)
	case entities.NoticeSuccess:
		return successStyle.Render(n.Message)
	}
	return n.Message
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, k := range bindings {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}
