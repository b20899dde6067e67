package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type LoginModel struct {
	Session  *Session
	Inputs   []textinput.Model
	FocusIdx int
	Err      error
}

const (
	inputServer = iota
	inputUsername
	inputPassword
)

type loginSuccessMsg struct{}

func NewLoginModel(s *Session, server, username string) LoginModel {
	inputs := make([]textinput.Model, 3)

	inputs[inputServer] = textinput.New()
	inputs[inputServer].Placeholder = "http://127.0.0.1:8000"
	inputs[inputServer].Prompt = "Server: "
	inputs[inputServer].SetValue(server)

	inputs[inputUsername] = textinput.New()
	inputs[inputUsername].Placeholder = "admin"
	inputs[inputUsername].Prompt = "Username: "
	inputs[inputUsername].SetValue(username)

	inputs[inputPassword] = textinput.New()
	inputs[inputPassword].Placeholder = "password"
	inputs[inputPassword].EchoMode = textinput.EchoPassword
	inputs[inputPassword].Prompt = "Password: "

	m := LoginModel{Session: s, Inputs: inputs, FocusIdx: inputPassword}
	m.Inputs[m.FocusIdx].Focus()
	return m
}

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	cmds := make([]tea.Cmd, len(m.Inputs))

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			if m.FocusIdx == len(m.Inputs)-1 {
				m.Err = nil
				return m, m.LoginCmd
			}
			m.move(1)
		case tea.KeyTab, tea.KeyDown:
			m.move(1)
		case tea.KeyShiftTab, tea.KeyUp:
			m.move(-1)
		}
	case errMsg:
		m.Err = msg
	}

	for i := range m.Inputs {
		m.Inputs[i], cmds[i] = m.Inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *LoginModel) move(delta int) {
	m.Inputs[m.FocusIdx].Blur()
	m.FocusIdx = (m.FocusIdx + delta + len(m.Inputs)) % len(m.Inputs)
	m.Inputs[m.FocusIdx].Focus()
}

func (m LoginModel) LoginCmd() tea.Msg {
	server := strings.TrimRight(strings.TrimSpace(m.Inputs[inputServer].Value()), "/")
	username := strings.TrimSpace(m.Inputs[inputUsername].Value())
	password := m.Inputs[inputPassword].Value()
	if server == "" || username == "" || password == "" {
		return errMsg{errors.New("server, username and password are required")}
	}
	m.Session.Client.SetCredentials(server, username, password)
	ctx, cancel := m.Session.ctx()
	defer cancel()
	if err := m.Session.Client.Login(ctx); err != nil {
		return errMsg{err}
	}
	return loginSuccessMsg{}
}

func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ESN Monitor - Admin Login") + "\n\n")
	for i := range m.Inputs {
		b.WriteString(m.Inputs[i].View())
		if i < len(m.Inputs)-1 {
			b.WriteRune('\n')
		}
	}
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("Tab to change fields, Enter to submit, Ctrl+C to quit"))

	if m.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
