// Package ui renders the terminal front end: a secret prompt while the
// access gate is closed, then the chat log, input line and upload panel.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"kaichat/internal/models"
	"kaichat/internal/session"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	alertStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	panelStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

type gateDoneMsg struct{}
type sendDoneMsg struct{}
type uploadDoneMsg struct{}
type tickMsg time.Time

// Model is the bubbletea model driving a Session.
type Model struct {
	sess   *session.Session
	prompt *SecretPrompt
	alerts *AlertBuffer

	input  textinput.Model
	secret textinput.Model
	vp     viewport.Model
	spin   spinner.Model

	width  int
	height int
	ready  bool
	status string
}

// New builds the model. prompt and alerts must be the same instances wired
// into the session's gate.
func New(sess *session.Session, prompt *SecretPrompt, alerts *AlertBuffer) Model {
	input := textinput.New()
	input.Placeholder = "Type a message, or /upload <files>"
	input.CharLimit = 2000
	input.Focus()

	secret := textinput.New()
	secret.Placeholder = "Secret word"
	secret.EchoMode = textinput.EchoPassword
	secret.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = dimStyle

	return Model{
		sess:   sess,
		prompt: prompt,
		alerts: alerts,
		input:  input,
		secret: secret,
		spin:   sp,
	}
}

// Init runs the gate once at startup: cached credentials open it without a
// prompt, mock mode self-grants, and a fresh networked session falls through
// to the secret view because the prompt is still empty.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.gateCmd())
}

func (m Model) gateCmd() tea.Cmd {
	return func() tea.Msg {
		m.sess.Start(context.Background())
		return gateDoneMsg{}
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	return func() tea.Msg {
		m.sess.Send(context.Background(), text)
		return sendDoneMsg{}
	}
}

func (m Model) uploadCmd(batch []session.FileInfo) tea.Cmd {
	return func() tea.Msg {
		m.sess.EnqueueUploads(batch)
		return uploadDoneMsg{}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles input events and session progress.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.vp = viewport.New(m.chatWidth(), m.chatHeight())
			m.ready = true
		} else {
			m.vp.Width = m.chatWidth()
			m.vp.Height = m.chatHeight()
		}
		m.refreshChat()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.sess.Authenticated() {
				return m.submitSecret()
			}
			return m.submitInput()
		}

	case gateDoneMsg:
		m.drainAlerts()
		if m.sess.Authenticated() && m.status == "" {
			m.status = "Access granted."
		}
		return m, nil

	case sendDoneMsg, uploadDoneMsg:
		m.refreshChat()
		return m, nil

	case tickMsg:
		m.refreshChat()
		if m.sess.Sending() || m.sess.Uploading() {
			return m, tickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.sess.Authenticated() {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.secret, cmd = m.secret.Update(msg)
	}
	return m, cmd
}

func (m Model) submitSecret() (tea.Model, tea.Cmd) {
	secret := strings.TrimSpace(m.secret.Value())
	m.secret.Reset()
	if secret == "" {
		return m, nil
	}
	m.prompt.Put(secret)
	m.status = "Checking..."
	return m, m.gateCmd()
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.status = ""

	if batch, ok := parseUploadCommand(text); ok {
		return m, tea.Batch(m.uploadCmd(batch), tickCmd())
	}
	return m, tea.Batch(m.sendCmd(text), tickCmd())
}

// parseUploadCommand turns "/upload a.png b.pdf" into a batch. Sizes are
// synthetic; the transfer itself is simulated anyway.
func parseUploadCommand(text string) ([]session.FileInfo, bool) {
	if !strings.HasPrefix(text, "/upload") {
		return nil, false
	}
	names := strings.Fields(strings.TrimPrefix(text, "/upload"))
	batch := make([]session.FileInfo, len(names))
	for i, name := range names {
		batch[i] = session.FileInfo{Name: name, Size: int64(1024 * (i + 1))}
	}
	return batch, true
}

func (m *Model) drainAlerts() {
	if m.alerts == nil {
		return
	}
	if pending := m.alerts.Drain(); len(pending) > 0 {
		m.status = pending[len(pending)-1]
	}
}

func (m *Model) refreshChat() {
	if !m.ready {
		return
	}
	m.vp.SetContent(m.renderMessages())
	m.vp.GotoBottom()
}

func (m Model) chatWidth() int {
	w := m.width - panelWidth - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) chatHeight() int {
	h := m.height - 5
	if h < 5 {
		h = 5
	}
	return h
}

const panelWidth = 28

func (m Model) renderMessages() string {
	var b strings.Builder
	for _, msg := range m.sess.Messages() {
		label := assistantStyle.Render("kAI")
		if msg.Role == models.RoleUser {
			label = userStyle.Render("You")
		}
		text := msg.Text
		if text == session.PlaceholderText {
			text = m.spin.View() + " thinking"
		}
		b.WriteString(label + " " + text + "\n\n")
	}
	return lipgloss.NewStyle().Width(m.chatWidth()).Render(b.String())
}

func (m Model) renderUploads() string {
	uploads := m.sess.Uploads()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Uploads") + "\n")
	if m.sess.Uploading() {
		b.WriteString(m.spin.View() + " uploading...\n")
	}
	if len(uploads) == 0 && !m.sess.Uploading() {
		b.WriteString(dimStyle.Render("none yet") + "\n")
	}
	for _, u := range uploads {
		b.WriteString(fmt.Sprintf("%s %s\n", u.Name, dimStyle.Render(string(u.Status))))
	}
	return panelStyle.Width(panelWidth).Render(b.String())
}

// View renders either the gate screen or the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	if !m.sess.Authenticated() {
		var b strings.Builder
		b.WriteString(titleStyle.Render("kaichat") + "\n\n")
		b.WriteString("Enter the secret word to continue.\n\n")
		b.WriteString(m.secret.View() + "\n\n")
		if m.status != "" {
			b.WriteString(alertStyle.Render(m.status) + "\n")
		}
		b.WriteString(dimStyle.Render("enter to submit, esc to quit"))
		return b.String()
	}

	title := titleStyle.Render("kaichat")
	if m.sess.MockMode() {
		title += dimStyle.Render("  (mock mode)")
	}

	left := m.vp.View()
	right := m.renderUploads()
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	statusLine := dimStyle.Render("enter to send, /upload <files>, esc to quit")
	if m.status != "" {
		statusLine = alertStyle.Render(m.status)
	}

	return title + "\n" + body + "\n" + m.input.View() + "\n" + statusLine
}
