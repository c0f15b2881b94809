package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/tesslearn/tessa-core/core/events"
	"github.com/tesslearn/tessa-core/core/transcript"
	"github.com/tesslearn/tessa-core/core/voicechannel"
)

type theme struct {
	header     lipgloss.Style
	chatPanel  lipgloss.Style
	boardPanel lipgloss.Style
	panelTitle lipgloss.Style
	learner    lipgloss.Style
	tutor      lipgloss.Style
	annotation lipgloss.Style
	voiceTag   lipgloss.Style
	statusOn   lipgloss.Style
	statusOff  lipgloss.Style
	errorLine  lipgloss.Style
	footer     lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("12")
	warm := lipgloss.Color("11")
	muted := lipgloss.Color("8")

	return theme{
		header: lipgloss.NewStyle().Bold(true).Foreground(accent),
		chatPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		boardPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(warm).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().Bold(true).Foreground(warm),
		learner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		tutor:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		annotation: lipgloss.NewStyle().Foreground(warm).Italic(true),
		voiceTag:   lipgloss.NewStyle().Foreground(muted),
		statusOn:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		statusOff:  lipgloss.NewStyle().Foreground(muted),
		errorLine:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		footer:     lipgloss.NewStyle().Foreground(muted),
	}
}

func (m *Model) resize() {
	boardWidth := m.width / 3
	if boardWidth > 48 {
		boardWidth = 48
	}
	chatWidth := m.width - boardWidth - 6

	// Header, input and footer each take a line, panel borders two more.
	paneHeight := m.height - 7
	if paneHeight < 3 {
		paneHeight = 3
	}

	m.chat.Width = chatWidth
	m.chat.Height = paneHeight
	m.board.Width = boardWidth
	m.board.Height = paneHeight
	m.input.Width = m.width - 6
}

func (m *Model) renderPanes() {
	atBottom := m.chat.AtBottom()
	m.chat.SetContent(m.renderTranscript())
	if atBottom {
		m.chat.GotoBottom()
	}
	m.board.SetContent(wordwrap.String(m.blackboard, max(m.board.Width, 1)))
}

func (m *Model) renderTranscript() string {
	width := max(m.chat.Width, 1)

	lines := make([]string, 0, len(m.messages))
	for _, message := range m.messages {
		lines = append(lines, m.renderMessage(message, width))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderMessage(message transcript.Message, width int) string {
	if message.IsAnnotation {
		return m.theme.annotation.Render(wordwrap.String("blackboard: "+message.Text, width))
	}

	label := m.theme.tutor.Render("Tessa")
	if message.Role == events.RoleLearner {
		label = m.theme.learner.Render("You")
	}
	if message.Channel == events.ChannelVoice {
		label += m.theme.voiceTag.Render(" (voice)")
	}

	text := message.Text
	if text == "" {
		text = m.spinner.View()
	}
	return label + "\n" + wordwrap.String(text, width)
}

func (m *Model) renderHeader() string {
	badge := m.theme.statusOff.Render("voice off")
	switch m.status {
	case voicechannel.StatusConnecting:
		badge = m.theme.statusOff.Render("connecting " + m.spinner.View())
	case voicechannel.StatusConnected:
		badge = m.theme.statusOn.Render("voice on")
		if m.speaking {
			badge += " " + m.theme.statusOn.Render("● speaking")
		}
	case voicechannel.StatusDisconnecting:
		badge = m.theme.statusOff.Render("hanging up")
	}

	volume := fmt.Sprintf("vol %d%%", int(m.volume*100+0.5))
	if m.muted {
		volume = "muted"
	}

	return m.theme.header.Render("Tessa") + "  " + badge + "  " + m.theme.footer.Render(volume)
}

func (m Model) View() string {
	if m.width == 0 {
		return "starting..."
	}

	chat := m.theme.chatPanel.Render(m.chat.View())
	board := m.theme.boardPanel.Render(
		m.theme.panelTitle.Render("Blackboard") + "\n" + m.board.View(),
	)

	input := m.input.View()
	if m.responding {
		input = m.spinner.View() + " thinking..."
	}

	statusLine := m.theme.footer.Render("enter send · ctrl+t voice · ctrl+o mute · ctrl+c quit")
	if m.errLine != "" {
		statusLine = m.theme.errorLine.Render(m.errLine)
	}

	return strings.Join([]string{
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, chat, board),
		input,
		statusLine,
	}, "\n")
}
