package ui

import (
	"esn-monitor/cmd/esnctl/api"

	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateLogin state = iota
	stateDashboard
	stateServerDetail
)

type RootModel struct {
	State     state
	Session   *Session
	Login     LoginModel
	Dashboard DashboardModel
	Detail    ServerDetailModel
	Quitting  bool
	width     int
	height    int
}

func NewRootModel(c *api.Client, server, username string) RootModel {
	s := NewSession(c)
	return RootModel{
		State:   stateLogin,
		Session: s,
		Login:   NewLoginModel(s, server, username),
	}
}

func (m RootModel) Init() tea.Cmd {
	return m.Login.Init()
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		switch m.State {
		case stateDashboard:
			m.Dashboard.Table.SetHeight(max(msg.Height-10, 5))
		case stateServerDetail:
			m.Detail.Alerts.SetHeight(max(msg.Height/2-4, 5))
		}
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			return m, tea.Quit
		}
	}

	switch m.State {
	case stateLogin:
		if _, ok := msg.(loginSuccessMsg); ok {
			m.State = stateDashboard
			m.Dashboard = NewDashboardModel(m.Session, m.height)
			return m, m.Dashboard.Init()
		}
		var cmd tea.Cmd
		m.Login, cmd = m.Login.Update(msg)
		return m, cmd

	case stateDashboard:
		if sel, ok := msg.(ServerSelectedMsg); ok {
			m.State = stateServerDetail
			m.Detail = NewServerDetailModel(m.Session, sel.Server, m.width, m.height)
			return m, m.Detail.Init()
		}
		var cmd tea.Cmd
		m.Dashboard, cmd = m.Dashboard.Update(msg)
		return m, cmd

	case stateServerDetail:
		if _, ok := msg.(BackToDashboardMsg); ok {
			m.State = stateDashboard
			return m, m.Dashboard.Init() // Refresh list
		}
		var cmd tea.Cmd
		m.Detail, cmd = m.Detail.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	switch m.State {
	case stateLogin:
		return m.Login.View()
	case stateDashboard:
		return m.Dashboard.View()
	case stateServerDetail:
		return m.Detail.View()
	}
	return "Unknown state"
}
