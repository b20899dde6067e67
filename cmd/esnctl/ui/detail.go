package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"esn-monitor/cmd/esnctl/api"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// BackToDashboardMsg signals transition back to dashboard
type BackToDashboardMsg struct{}

type ServerDetailModel struct {
	Session  *Session
	Server   api.Server
	Alerts   table.Model
	alerts   []api.Alert
	commands []api.Command
	Form     *CommandFormModel
	Log      []string
	Err      error
	width    int
	height   int
}

func NewServerDetailModel(s *Session, srv api.Server, width, height int) ServerDetailModel {
	columns := []table.Column{
		{Title: "Severity", Width: 10},
		{Title: "Source", Width: 24},
		{Title: "Alert", Width: 40},
		{Title: "Count", Width: 6},
		{Title: "Time", Width: 20},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height/2-4, 5)),
	)
	t.SetStyles(tableStyles())
	return ServerDetailModel{Session: s, Server: srv, Alerts: t, width: width, height: height}
}

func (m ServerDetailModel) Init() tea.Cmd {
	return tea.Batch(m.Session.loadAlerts(m.Server.ID), m.Session.loadCommands(m.Server.ID))
}

func (m ServerDetailModel) Update(msg tea.Msg) (ServerDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case alertsLoadedMsg:
		if msg.serverID == m.Server.ID {
			m.alerts = msg.alerts
			m.Alerts.SetRows(alertRows(msg.alerts))
		}
		return m, nil
	case commandsLoadedMsg:
		if msg.serverID == m.Server.ID {
			m.commands = msg.commands
		}
		return m, nil
	case CommandSentMsg:
		m.Form = nil
		m.Err = nil
		m.appendLog(msg.Log)
		return m, m.Session.loadCommands(m.Server.ID)
	case formClosedMsg:
		m.Form = nil
		return m, nil
	case errMsg:
		if m.Form != nil {
			m.Form.Err = msg
		} else {
			m.Err = msg
		}
		return m, nil
	}

	if m.Form != nil {
		form, cmd := m.Form.Update(msg)
		m.Form = &form
		return m, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "backspace":
			return m, func() tea.Msg { return BackToDashboardMsg{} }
		case "r":
			return m, m.Init()
		case "c":
			form := NewCommandFormModel(m.Server.ID, m.Session, m.width, m.height)
			m.Form = &form
			return m, nil
		case "d":
			idx := m.Alerts.Cursor()
			if idx >= 0 && idx < len(m.alerts) {
				return m, m.deleteAlert(m.alerts[idx].Source)
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.Alerts, cmd = m.Alerts.Update(msg)
	return m, cmd
}

// deleteAlert queues DELETE_ALERT for the file the agent reported the alert
// from; agents use the file name as the alert source.
func (m ServerDetailModel) deleteAlert(filename string) tea.Cmd {
	serverID, session := m.Server.ID, m.Session
	return func() tea.Msg {
		ctx, cancel := session.ctx()
		defer cancel()
		q, err := session.Client.DeleteAlert(ctx, serverID, filename)
		if err != nil {
			return errMsg{err}
		}
		return CommandSentMsg{Log: fmt.Sprintf("DELETE_ALERT %s queued as command %d", filename, q.CommandID)}
	}
}

func (m *ServerDetailModel) appendLog(line string) {
	m.Log = append(m.Log, time.Now().Format(time.TimeOnly)+" "+line)
	if len(m.Log) > 5 {
		m.Log = m.Log[len(m.Log)-5:]
	}
}

func alertRows(alerts []api.Alert) []table.Row {
	rows := make([]table.Row, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, table.Row{a.Severity, a.Source, a.Alert, strconv.Itoa(a.Counter), a.Timestamp.Local().Format(time.DateTime)})
	}
	return rows
}

func (m ServerDetailModel) View() string {
	if m.Form != nil {
		return m.Form.View()
	}
	var b strings.Builder
	title := fmt.Sprintf("Server %d  %s  (%s)", m.Server.ID, m.Server.IP, m.Server.RegionName)
	b.WriteString(titleStyle.Render(title) + "\n\n")
	b.WriteString(m.Alerts.View() + "\n\n")

	b.WriteString(focusedStyle.Render("Commands") + "\n")
	start := 0
	if len(m.commands) > 8 {
		start = len(m.commands) - 8
	}
	for _, c := range m.commands[start:] {
		fmt.Fprintf(&b, "  #%-6d %-13s %-8s %s\n", c.ID, c.Type, c.Status, c.CreatedAt.Local().Format(time.DateTime))
	}
	if len(m.commands) == 0 {
		b.WriteString(blurredStyle.Render("  no commands") + "\n")
	}
	for _, l := range m.Log {
		b.WriteString(statusMessageStyle(l) + "\n")
	}
	b.WriteString("\n" + blurredStyle.Render("'c' command, 'd' delete selected alert, 'r' refresh, Esc back"))
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
