// Package tui renders a tutoring session in the terminal: the reconciled
// transcript and the blackboard side by side, a text input for typed
// prompts, and controls for the voice channel.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	tutoring "github.com/tesslearn/tessa-core/core"
	"github.com/tesslearn/tessa-core/core/transcript"
	"github.com/tesslearn/tessa-core/core/voicechannel"
)

const defaultVolume = 0.8

type sessionEventMsg struct{}

type sessionErrMsg struct{ err error }

type promptDoneMsg struct{ err error }

type conversationDoneMsg struct{ err error }

// Callbacks builds the session options that feed engine updates into the
// events channel the model consumes. Wire them into tutoring.NewSession
// before constructing the model with the same channel.
func Callbacks(events chan tea.Msg) []tutoring.SessionOption {
	notify := func(msg tea.Msg) {
		// The model refreshes all state from the session on every event, so
		// a dropped notification only delays a redraw. Callbacks fire on the
		// session's goroutines and must never block, least of all after the
		// program stopped draining the channel.
		select {
		case events <- msg:
		default:
		}
	}

	return []tutoring.SessionOption{
		tutoring.WithTranscriptChangedCallback(func() { notify(sessionEventMsg{}) }),
		tutoring.WithBlackboardChangedCallback(func(string) { notify(sessionEventMsg{}) }),
		tutoring.WithStatusChangedCallback(func(voicechannel.Status) { notify(sessionEventMsg{}) }),
		tutoring.WithSpeakingChangedCallback(func(bool) { notify(sessionEventMsg{}) }),
		tutoring.WithErrorCallback(func(err error) { notify(sessionErrMsg{err: err}) }),
	}
}

type Model struct {
	session          *tutoring.Session
	events           chan tea.Msg
	conversationOpts []tutoring.ConversationOption

	messages   []transcript.Message
	blackboard string
	status     voicechannel.Status
	speaking   bool

	responding bool
	connecting bool
	muted      bool
	volume     float64
	errLine    string

	width  int
	height int

	input   textinput.Model
	chat    viewport.Model
	board   viewport.Model
	spinner spinner.Model

	theme theme
}

func New(session *tutoring.Session, events chan tea.Msg, conversationOpts ...tutoring.ConversationOption) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type to Tessa, or ctrl+t to start talking"
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		session:          session,
		events:           events,
		conversationOpts: conversationOpts,
		status:           session.Status(),
		volume:           defaultVolume,
		input:            input,
		chat:             viewport.New(0, 0),
		board:            viewport.New(0, 0),
		spinner:          sp,
		theme:            newTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForEvent())
}

func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

func (m Model) promptCmd(text string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return promptDoneMsg{err: session.SendPrompt(context.Background(), text)}
	}
}

func (m Model) toggleConversationCmd() tea.Cmd {
	session := m.session
	opts := m.conversationOpts
	if m.status == voicechannel.StatusDisconnected {
		return func() tea.Msg {
			return conversationDoneMsg{err: session.StartConversation(context.Background(), opts...)}
		}
	}
	return func() tea.Msg {
		return conversationDoneMsg{err: session.EndConversation(context.Background())}
	}
}

// refresh re-reads everything displayable from the session. Events are only
// wake-ups; the session is the single source of truth.
func (m *Model) refresh() {
	m.messages = m.session.Transcript()
	m.blackboard = m.session.Blackboard()
	m.status = m.session.Status()
	m.speaking = m.session.IsSpeaking()
	m.renderPanes()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case sessionEventMsg:
		m.refresh()
		cmds = append(cmds, m.waitForEvent())

	case sessionErrMsg:
		m.errLine = msg.err.Error()
		m.refresh()
		cmds = append(cmds, m.waitForEvent())

	case promptDoneMsg:
		m.responding = false
		if msg.err != nil {
			m.errLine = msg.err.Error()
		}
		m.refresh()

	case conversationDoneMsg:
		m.connecting = false
		if msg.err != nil {
			m.errLine = msg.err.Error()
		}
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+t":
			if m.connecting {
				return m, tea.Batch(cmds...)
			}
			m.connecting = true
			m.errLine = ""
			cmds = append(cmds, m.toggleConversationCmd())

		case "ctrl+o":
			m.muted = !m.muted
			m.applyVolume()

		case "ctrl+up":
			m.volume = clamp(m.volume+0.1, 0, 1)
			m.applyVolume()

		case "ctrl+down":
			m.volume = clamp(m.volume-0.1, 0, 1)
			m.applyVolume()

		case "pgup":
			m.chat.LineUp(5)

		case "pgdown":
			m.chat.LineDown(5)

		case "enter":
			if m.responding {
				return m, tea.Batch(cmds...)
			}
			text := m.input.Value()
			if text == "" {
				return m, tea.Batch(cmds...)
			}
			m.input.SetValue("")
			m.errLine = ""
			m.responding = true
			cmds = append(cmds, m.promptCmd(text))

		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) applyVolume() {
	if m.muted {
		m.session.SetVolume(0)
		return
	}
	m.session.SetVolume(m.volume)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
