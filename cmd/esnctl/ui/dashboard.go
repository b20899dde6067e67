package ui

import (
	"strconv"
	"strings"
	"time"

	"esn-monitor/cmd/esnctl/api"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type DashboardModel struct {
	Session *Session
	Table   table.Model
	Servers []api.Server
	Err     error
}

// ServerSelectedMsg opens the detail view.
type ServerSelectedMsg struct {
	Server api.Server
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

func NewDashboardModel(s *Session, height int) DashboardModel {
	columns := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Region", Width: 14},
		{Title: "IP", Width: 16},
		{Title: "CGM", Width: 10},
		{Title: "Admin", Width: 10},
		{Title: "Last update", Width: 20},
		{Title: "Critical", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height-10, 5)),
	)
	t.SetStyles(tableStyles())
	return DashboardModel{Session: s, Table: t}
}

func (m DashboardModel) Init() tea.Cmd {
	return m.Session.loadServers
}

func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.Session.loadServers
		case "enter":
			idx := m.Table.Cursor()
			if idx >= 0 && idx < len(m.Servers) {
				srv := m.Servers[idx]
				return m, func() tea.Msg { return ServerSelectedMsg{Server: srv} }
			}
		case "q":
			return m, tea.Quit
		}
	case serversLoadedMsg:
		m.Err = nil
		m.Servers = msg.servers
		m.Table.SetRows(serverRows(msg.servers))
	case errMsg:
		m.Err = msg
		return m, nil
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func serverRows(servers []api.Server) []table.Row {
	rows := make([]table.Row, 0, len(servers))
	for _, s := range servers {
		last := "-"
		if s.LastUpdate != nil {
			last = s.LastUpdate.Local().Format(time.DateTime)
		}
		crit := ""
		if s.HasCriticalAlerts {
			crit = "yes"
		}
		rows = append(rows, table.Row{strconv.FormatInt(s.ID, 10), s.RegionName, s.IP, s.CGMVersion, s.AdminVersion, last, crit})
	}
	return rows
}

func (m DashboardModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard - Servers") + "\n\n")
	b.WriteString(m.Table.View())
	b.WriteString("\n\n")
	critical := 0
	for _, s := range m.Servers {
		if s.HasCriticalAlerts {
			critical++
		}
	}
	if critical > 0 {
		b.WriteString(criticalStyle.Render(strconv.Itoa(critical)+" server(s) with critical alerts") + "\n")
	}
	b.WriteString(blurredStyle.Render("'r' refresh, Enter open, 'q' quit"))
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
