// Package tui is the terminal chat client: customer login, then a
// question/answer loop until the customer logs out.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"bankassist/internal/rag"
	"bankassist/internal/service"
	"bankassist/internal/session"
)

// Assistant is the TUI-facing subset of the assistant service.
type Assistant interface {
	Login(ctx context.Context, req service.LoginRequest) (service.LoginResponse, error)
	Ask(ctx context.Context, id service.Identity, req service.AskRequest) (service.AskResponse, error)
}

type phase int

const (
	phaseCustomerID phase = iota
	phasePassword
	phaseChat
)

type loginResultMsg struct {
	resp service.LoginResponse
	err  error
}

type askResultMsg struct {
	resp service.AskResponse
	err  error
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	ctx       context.Context
	assistant Assistant
	input     textinput.Model
	viewport  viewport.Model
	phase     phase
	pendingID string
	identity  service.Identity
	turns     []session.Turn
	status    string
	busy      bool
	ready     bool
}

// New creates a new TUI model instance.
func New(ctx context.Context, assistant Assistant) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 0
	m := Model{
		ctx:       ctx,
		assistant: assistant,
		input:     ti,
		viewport:  viewport.New(0, 0),
	}
	m.enterPhase(phaseCustomerID)
	m.status = "Enter your customer ID."
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Identity returns the logged-in customer, if any.
func (m Model) Identity() (service.Identity, bool) {
	return m.identity, m.phase == phaseChat
}

// Update handles key, window and service result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil

	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.enterPhase(phaseCustomerID)
			m.status = loginErrorText(msg.err)
			return m, nil
		}
		m.identity = service.Identity{CustomerID: msg.resp.CustomerID, SessionID: msg.resp.SessionID}
		m.turns = nil
		m.enterPhase(phaseChat)
		m.status = "Logged in as " + msg.resp.CustomerID + ". Type \"logout\" to end the session."
		m.refresh()
		return m, nil

	case askResultMsg:
		m.busy = false
		return m.handleAnswer(msg)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			if m.busy {
				return m, nil
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	m.input.SetValue("")

	switch m.phase {
	case phaseCustomerID:
		id := strings.TrimSpace(value)
		if id == "" {
			return m, nil
		}
		m.pendingID = id
		m.enterPhase(phasePassword)
		m.status = "Enter the password for " + strings.ToUpper(id) + "."
		return m, nil

	case phasePassword:
		m.busy = true
		m.status = "Logging in..."
		return m, m.login(m.pendingID, value)

	default:
		if strings.TrimSpace(value) == "" {
			return m, nil
		}
		m.turns = append(m.turns, session.Turn{Role: session.RoleUser, Text: value})
		m.busy = true
		m.status = "Thinking..."
		m.refresh()
		return m, m.ask(value)
	}
}

func (m Model) handleAnswer(msg askResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, service.ErrUnauthorized):
		m.logout("Session expired. Enter your customer ID.")
		return m, nil
	case errors.Is(msg.err, service.ErrExternalService):
		m.turns = append(m.turns, session.Turn{Role: session.RoleAssistant, Text: rag.ErrorMessage})
		m.status = "Error: " + msg.err.Error()
	case msg.err != nil:
		m.status = "Error: " + msg.err.Error()
	default:
		m.turns = append(m.turns, session.Turn{Role: session.RoleAssistant, Text: msg.resp.Reply})
		m.status = ""
	}

	if msg.resp.LoggedOut {
		m.logout(msg.resp.Reply + " Enter your customer ID.")
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m Model) login(customerID, password string) tea.Cmd {
	ctx, assistant := m.ctx, m.assistant
	return func() tea.Msg {
		resp, err := assistant.Login(ctx, service.LoginRequest{CustomerID: customerID, Password: password})
		return loginResultMsg{resp: resp, err: err}
	}
}

func (m Model) ask(query string) tea.Cmd {
	ctx, assistant, id := m.ctx, m.assistant, m.identity
	return func() tea.Msg {
		resp, err := assistant.Ask(ctx, id, service.AskRequest{Message: query})
		return askResultMsg{resp: resp, err: err}
	}
}

// logout forgets the session and its transcript and returns to login.
func (m *Model) logout(status string) {
	m.identity = service.Identity{}
	m.turns = nil
	m.pendingID = ""
	m.enterPhase(phaseCustomerID)
	m.status = status
	m.refresh()
}

func (m *Model) enterPhase(p phase) {
	m.phase = p
	switch p {
	case phaseCustomerID:
		m.input.Prompt = "Customer ID: "
		m.input.Placeholder = "CUST1001"
		m.input.EchoMode = textinput.EchoNormal
	case phasePassword:
		m.input.Prompt = "Password: "
		m.input.Placeholder = ""
		m.input.EchoMode = textinput.EchoPassword
	case phaseChat:
		m.input.Prompt = "> "
		m.input.Placeholder = "Ask about your account, cards, loans or transactions"
		m.input.EchoMode = textinput.EchoNormal
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.turns, m.viewport.Width))
	m.viewport.GotoBottom()
}

func loginErrorText(err error) string {
	if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrInvalidInput) {
		return "Invalid customer ID or password. Enter your customer ID."
	}
	return "Login failed: " + err.Error()
}
