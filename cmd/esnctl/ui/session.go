package ui

import (
	"context"
	"time"

	"esn-monitor/cmd/esnctl/api"

	tea "github.com/charmbracelet/bubbletea"
)

const requestTimeout = 10 * time.Second

// Session holds the admin API client shared by every view.
type Session struct {
	Client *api.Client
}

func NewSession(c *api.Client) *Session { return &Session{Client: c} }

func (s *Session) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type serversLoadedMsg struct{ servers []api.Server }

type alertsLoadedMsg struct {
	serverID int64
	alerts   []api.Alert
}

type commandsLoadedMsg struct {
	serverID int64
	commands []api.Command
}

// CommandSentMsg indicates a command was queued
type CommandSentMsg struct {
	Log string
}

func (s *Session) loadServers() tea.Msg {
	ctx, cancel := s.ctx()
	defer cancel()
	servers, err := s.Client.ListServers(ctx)
	if err != nil {
		return errMsg{err}
	}
	return serversLoadedMsg{servers: servers}
}

func (s *Session) loadAlerts(serverID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := s.ctx()
		defer cancel()
		alerts, err := s.Client.ListAlerts(ctx, serverID)
		if err != nil {
			return errMsg{err}
		}
		return alertsLoadedMsg{serverID: serverID, alerts: alerts}
	}
}

func (s *Session) loadCommands(serverID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := s.ctx()
		defer cancel()
		cmds, err := s.Client.ListCommands(ctx, serverID, "")
		if err != nil {
			return errMsg{err}
		}
		return commandsLoadedMsg{serverID: serverID, commands: cmds}
	}
}
