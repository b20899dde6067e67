package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"esn-monitor/cmd/esnctl/api"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type FormState int

const (
	StateSelecting FormState = iota
	StateFilling
)

type cmdItem struct {
	title, desc string
	index       int
}

func (i cmdItem) Title() string       { return i.title }
func (i cmdItem) Description() string { return i.desc }
func (i cmdItem) FilterValue() string { return i.title }

// CommandDef describes one queueable command and how its payload is built.
type CommandDef struct {
	Name        string
	Description string
	Fields      []FieldDef
	Payload     func(values []string) (json.RawMessage, error)
}

type FieldDef struct {
	Name        string
	Placeholder string
	Required    bool
	Default     string
}

var availableCommands = []CommandDef{
	{
		Name:        "DELETE_ALERT",
		Description: "Remove an alert file on the agent",
		Fields: []FieldDef{
			{Name: "filename", Placeholder: "alert file name, e.g. disk-full.json", Required: true},
		},
		Payload: func(v []string) (json.RawMessage, error) {
			return json.Marshal(map[string]string{"filename": v[0]})
		},
	},
	{
		Name:        "CUSTOM",
		Description: "Send a JSON object the agent logs and acknowledges",
		Fields: []FieldDef{
			{Name: "payload", Placeholder: `{"note":"hello"}`, Default: "{}"},
		},
		Payload: func(v []string) (json.RawMessage, error) {
			raw := strings.TrimSpace(v[0])
			if raw == "" {
				raw = "{}"
			}
			var obj map[string]any
			if err := json.Unmarshal([]byte(raw), &obj); err != nil {
				return nil, errors.New("payload must be a JSON object")
			}
			return json.RawMessage(raw), nil
		},
	},
}

// CommandFormModel picks a command type and collects its fields.
type CommandFormModel struct {
	ServerID    int64
	Session     *Session
	State       FormState
	List        list.Model
	Inputs      []textinput.Model
	Focused     int
	SelectedCmd int
	Err         error
}

type formClosedMsg struct{}

func NewCommandFormModel(serverID int64, session *Session, width, height int) CommandFormModel {
	items := []list.Item{}
	for i, cmd := range availableCommands {
		items = append(items, cmdItem{title: cmd.Name, desc: cmd.Description, index: i})
	}
	l := list.New(items, list.NewDefaultDelegate(), width, max(height-6, 8))
	l.Title = "Select Command"
	l.SetShowHelp(false)

	return CommandFormModel{ServerID: serverID, Session: session, State: StateSelecting, List: l}
}

func (m *CommandFormModel) initInputs() {
	def := availableCommands[m.SelectedCmd]
	m.Inputs = make([]textinput.Model, len(def.Fields))
	for i, field := range def.Fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.Prompt = field.Name + ": "
		ti.CharLimit = 1024
		if field.Default != "" {
			ti.SetValue(field.Default)
		}
		if i == 0 {
			ti.Focus()
		}
		m.Inputs[i] = ti
	}
	m.Focused = 0
	m.Err = nil
}

func (m CommandFormModel) Update(msg tea.Msg) (CommandFormModel, tea.Cmd) {
	var cmd tea.Cmd

	if m.State == StateSelecting {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "enter":
				if i, ok := m.List.SelectedItem().(cmdItem); ok {
					m.SelectedCmd = i.index
					m.State = StateFilling
					m.initInputs()
					return m, textinput.Blink
				}
			case "esc":
				return m, func() tea.Msg { return formClosedMsg{} }
			}
		}
		m.List, cmd = m.List.Update(msg)
		return m, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.State = StateSelecting
			return m, nil
		case "enter":
			if m.Focused == len(m.Inputs)-1 {
				return m, m.submitCommand()
			}
			m.focus(m.Focused + 1)
			return m, nil
		case "tab", "down":
			m.focus((m.Focused + 1) % len(m.Inputs))
			return m, nil
		case "shift+tab", "up":
			m.focus((m.Focused - 1 + len(m.Inputs)) % len(m.Inputs))
			return m, nil
		}
	}
	cmds := make([]tea.Cmd, len(m.Inputs))
	for i := range m.Inputs {
		m.Inputs[i], cmds[i] = m.Inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *CommandFormModel) focus(i int) {
	m.Inputs[m.Focused].Blur()
	m.Focused = i
	m.Inputs[m.Focused].Focus()
}

func (m CommandFormModel) submitCommand() tea.Cmd {
	def := availableCommands[m.SelectedCmd]
	values := make([]string, len(m.Inputs))
	for i, in := range m.Inputs {
		values[i] = strings.TrimSpace(in.Value())
		if def.Fields[i].Required && values[i] == "" {
			err := fmt.Errorf("%s is required", def.Fields[i].Name)
			return func() tea.Msg { return errMsg{err} }
		}
	}
	payload, err := def.Payload(values)
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	serverID, session := m.ServerID, m.Session
	return func() tea.Msg {
		ctx, cancel := session.ctx()
		defer cancel()
		q, err := session.Client.SendCommand(ctx, api.SendCommandRequest{ServerID: serverID, Type: def.Name, Payload: payload})
		if err != nil {
			return errMsg{err}
		}
		return CommandSentMsg{Log: fmt.Sprintf("%s queued as command %d", def.Name, q.CommandID)}
	}
}

func (m CommandFormModel) View() string {
	if m.State == StateSelecting {
		return m.List.View()
	}
	var b strings.Builder
	def := availableCommands[m.SelectedCmd]
	b.WriteString(titleStyle.Render(def.Name) + "\n" + blurredStyle.Render(def.Description) + "\n\n")
	for i := range m.Inputs {
		if i == m.Focused {
			b.WriteString(focusedStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(m.Inputs[i].View() + "\n")
	}
	b.WriteString("\n" + blurredStyle.Render("Enter on last field to send, Esc to go back"))
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
