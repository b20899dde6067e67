package ui

import (
	"encoding/json"
	"errors"
	"testing"

	"esn-monitor/cmd/esnctl/api"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootModelTransitions(t *testing.T) {
	m := NewRootModel(api.NewClient("http://127.0.0.1:1", "admin", ""), "http://127.0.0.1:1", "admin")
	assert.Equal(t, stateLogin, m.State)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(RootModel)

	next, cmd := m.Update(loginSuccessMsg{})
	m = next.(RootModel)
	assert.Equal(t, stateDashboard, m.State)
	assert.NotNil(t, cmd)

	srv := api.Server{ID: 4, IP: "10.0.0.4", RegionName: "eu"}
	next, _ = m.Update(serversLoadedMsg{servers: []api.Server{srv}})
	m = next.(RootModel)
	assert.Contains(t, m.View(), "10.0.0.4")

	next, _ = m.Update(ServerSelectedMsg{Server: srv})
	m = next.(RootModel)
	require.Equal(t, stateServerDetail, m.State)
	assert.Equal(t, int64(4), m.Detail.Server.ID)

	next, _ = m.Update(alertsLoadedMsg{serverID: 4, alerts: []api.Alert{{ID: 1, Severity: "Critical", Source: "disk.json", Alert: "full", Counter: 1}}})
	m = next.(RootModel)
	assert.Contains(t, m.View(), "disk.json")

	// results for another server are ignored
	next, _ = m.Update(alertsLoadedMsg{serverID: 5, alerts: nil})
	m = next.(RootModel)
	assert.Len(t, m.Detail.alerts, 1)

	next, _ = m.Update(BackToDashboardMsg{})
	m = next.(RootModel)
	assert.Equal(t, stateDashboard, m.State)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(RootModel)
	assert.True(t, m.Quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestDetailShowsErrorsAndLog(t *testing.T) {
	s := NewSession(api.NewClient("http://127.0.0.1:1", "", ""))
	d := NewServerDetailModel(s, api.Server{ID: 1}, 100, 30)

	d, _ = d.Update(errMsg{errors.New("backend down")})
	assert.Contains(t, d.View(), "backend down")

	d, _ = d.Update(CommandSentMsg{Log: "CUSTOM queued as command 3"})
	assert.Nil(t, d.Err)
	assert.Contains(t, d.View(), "CUSTOM queued as command 3")
}

func TestCommandFormPayloads(t *testing.T) {
	del := availableCommands[0]
	raw, err := del.Payload([]string{"disk.json"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"filename":"disk.json"}`, string(raw))

	custom := availableCommands[1]
	raw, err = custom.Payload([]string{""})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	_, err = custom.Payload([]string{`[1,2]`})
	assert.Error(t, err)

	var obj map[string]any
	raw, err = custom.Payload([]string{`{"note":"x"}`})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &obj))
	assert.Equal(t, "x", obj["note"])
}

func TestCommandFormRequiresFields(t *testing.T) {
	s := NewSession(api.NewClient("http://127.0.0.1:1", "", ""))
	f := NewCommandFormModel(1, s, 80, 24)
	f.SelectedCmd = 0
	f.State = StateFilling
	f.initInputs()

	msg := f.submitCommand()()
	e, ok := msg.(errMsg)
	require.True(t, ok)
	assert.Contains(t, e.Error(), "filename is required")
}
