package bubbletea

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/tranquility"
	"github.com/fwojciec/tranquility/session"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Commands typed into the input.
const (
	voiceCommand = "/voice"
	resetCommand = "/reset"
)

// Model is the Bubble Tea model for a Tranquility conversation.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model
	// Spinner animates while a reply is pending.
	Spinner spinner.Model

	session  *session.Session
	updates  <-chan session.Snapshot
	snap     session.Snapshot
	theme    tranquility.Theme
	styles   Styles
	readFile func(string) ([]byte, error)

	// assistant caches rendered replies by message ID.
	assistant map[string]*AssistantBlock

	pending bool
	notice  string
	err     error
	width   int
	ready   bool
}

// Option configures a [Model].
type Option func(*Model)

// WithUpdates subscribes the model to snapshots published by the session
// observer, so the user's message appears before the reply arrives.
func WithUpdates(u *Updates) Option {
	return func(m *Model) { m.updates = u.ch }
}

// WithReadFile replaces os.ReadFile for /voice.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(m *Model) { m.readFile = fn }
}

// New creates a new TUI Model for sess.
func New(sess *session.Session, theme tranquility.Theme, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "How are you feeling?"
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = tranquility.MaxInputGraphemes

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		Input:     ti,
		Spinner:   sp,
		session:   sess,
		snap:      sess.Snapshot(),
		theme:     theme,
		styles:    NewStyles(theme),
		readFile:  os.ReadFile,
		assistant: make(map[string]*AssistantBlock),
	}
	for _, o := range opts {
		o(&m)
	}
	m.Spinner.Style = m.styles.Accent
	return m
}

// Sending returns whether a reply is pending.
func (m Model) Sending() bool { return m.pending || m.snap.State == session.StateSending }

// Err returns the error of the last submission, if any. Cancellation is not
// an error.
func (m Model) Err() error { return m.err }

// Snapshot returns the state the model last rendered.
func (m Model) Snapshot() session.Snapshot { return m.snap }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.updates != nil {
		return tea.Batch(textinput.Blink, listenForSnapshot(m.updates))
	}
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		if msg.Snapshot.Version >= m.snap.Version {
			m = m.apply(msg.Snapshot)
		}
		if m.updates == nil {
			return m, nil
		}
		return m, listenForSnapshot(m.updates)

	case SubmitDoneMsg:
		m.pending = false
		switch {
		case msg.Err == nil, errors.Is(msg.Err, context.Canceled):
			m.err = nil
		default:
			m.err = msg.Err
			// Input rejected before the session changed state.
			if errors.Is(msg.Err, tranquility.ErrValidation) || errors.Is(msg.Err, tranquility.ErrBusy) {
				m.notice = tranquility.PublicMessage(msg.Err)
			}
		}
		m = m.apply(m.session.Snapshot())
		cmd := m.Input.Focus()
		return m, cmd

	case spinner.TickMsg:
		if !m.Sending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	// Viewport always receives messages for scrolling (keyboard and mouse).
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if !m.Sending() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	m.width = msg.Width
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.Sending() {
			m.session.Cancel()
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEsc:
		m.notice = ""
		m.session.DismissError()
		m = m.apply(m.session.Snapshot())
		return m, nil

	case tea.KeyEnter:
		if m.Sending() {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	// When idle, pass keys to both the input (for typing) and viewport
	// (for scrolling). Only forward non-character keys to viewport to avoid
	// conflicts (e.g. 'j'/'k' are viewport scroll AND text characters).
	if !m.Sending() {
		var cmd tea.Cmd
		var cmds []tea.Cmd

		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.notice = ""
	m.err = nil

	switch {
	case text == resetCommand:
		m.session.Reset()
		m = m.apply(m.session.Snapshot())
		return m, nil

	case text == voiceCommand || strings.HasPrefix(text, voiceCommand+" "):
		path := strings.TrimSpace(strings.TrimPrefix(text, voiceCommand))
		if path == "" {
			m.notice = "Usage: /voice <file>"
			return m, nil
		}
		data, err := m.readFile(path)
		if err != nil {
			m.notice = "Could not read " + path
			return m, nil
		}
		audio := tranquility.Audio{MIMEType: tranquility.AudioMIMEType(path), Data: data}
		m.pending = true
		m.Input.Blur()
		sess := m.session
		return m, tea.Batch(m.Spinner.Tick, func() tea.Msg {
			return SubmitDoneMsg{Err: sess.SubmitAudio(context.Background(), audio)}
		})
	}

	m.pending = true
	m.Input.Blur()
	sess := m.session
	return m, tea.Batch(m.Spinner.Tick, func() tea.Msg {
		return SubmitDoneMsg{Err: sess.Submit(context.Background(), text)}
	})
}

// apply renders snap into the viewport.
func (m Model) apply(snap session.Snapshot) Model {
	m.snap = snap
	if m.ready {
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
	}
	return m
}

func (m Model) renderContent() string {
	var blocks []MessageBlock
	for _, msg := range m.snap.Messages {
		switch msg.Role {
		case tranquility.RoleUser:
			blocks = append(blocks, NewUserMessageBlock(msg.Text, m.styles))
		case tranquility.RoleAssistant:
			b, ok := m.assistant[msg.ID]
			if !ok {
				b = NewAssistantBlock(msg, m.theme, m.styles)
				m.assistant[msg.ID] = b
			}
			blocks = append(blocks, b)
		}
	}
	if m.snap.State == session.StateError && m.snap.LastError != "" {
		blocks = append(blocks, NewErrorBlock(m.snap.LastError, m.styles))
	}

	var b strings.Builder
	for i, block := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) statusLine() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	fit := func(s string) string { return runewidth.Truncate(s, width, "…") }

	switch {
	case m.Sending():
		return m.Spinner.View() + " " + m.styles.Muted.Render(fit("Listening... Ctrl+C to cancel"))
	case m.notice != "":
		return m.styles.Error.Render(fit(m.notice))
	case m.snap.State == session.StateError:
		return m.styles.Error.Render(fit("Something went wrong. Esc to dismiss, Enter to try again"))
	case m.snap.State == session.StateClosed:
		return m.styles.Muted.Render(fit("Session closed"))
	}
	return m.styles.Muted.Render(fit("Enter to send, /voice <file> for a voice note, Ctrl+C to quit"))
}
