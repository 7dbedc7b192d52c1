package voice

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	voicedto "miso/internal/modules/voice/dto"
	"miso/internal/ui/theme"
)

const levelBarWidth = 24

// SnapshotMsg carries a controller state change into the view.
type SnapshotMsg struct {
	Snapshot voicedto.SnapshotOutput
}

// NoticeMsg carries a user-facing notice.
type NoticeMsg struct {
	Message string
	Failure bool
}

type Model struct {
	username string
	snapshot voicedto.SnapshotOutput
	notice   NoticeMsg
	spinner  spinner.Model
	width    int
	height   int
}

func New(username string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Pulse
	sp.Style = lipgloss.NewStyle().Foreground(theme.Peach)
	return Model{
		username: username,
		snapshot: voicedto.SnapshotOutput{State: "idle", AgentState: "disconnected"},
		spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd { return m.spinner.Tick }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		if msg.Snapshot.IsConnecting {
			m.notice = NoticeMsg{}
		}
	case NoticeMsg:
		m.notice = msg
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) Snapshot() voicedto.SnapshotOutput { return m.snapshot }

func (m Model) View() string {
	name := m.username
	if name == "" {
		name = "there"
	}
	lines := []string{
		theme.Title.Render(fmt.Sprintf("Hey %s!", name)),
		theme.Muted.Render("meet Miso, your compassionate AI-powered companion"),
		"",
		m.statusLine(),
	}
	if m.snapshot.SessionStarted {
		lines = append(lines,
			"",
			"Agent  "+agentLabel(m.snapshot.AgentState),
			"Level  "+levelBar(m.snapshot.AudioLevel),
		)
		if m.snapshot.SessionID != "" {
			lines = append(lines, theme.Muted.Render("session "+m.snapshot.SessionID))
		}
	}
	if m.notice.Message != "" {
		style := theme.Good
		if m.notice.Failure {
			style = theme.Bad
		}
		lines = append(lines, "", style.Render(m.notice.Message))
	}
	lines = append(lines, "", theme.Muted.Render(m.hint()))

	body := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) statusLine() string {
	switch {
	case m.snapshot.IsConnecting:
		return m.spinner.View() + " Connecting…"
	case m.snapshot.SessionStarted && m.snapshot.State == "connected":
		return theme.Good.Render("● Connected")
	case m.snapshot.SessionStarted:
		return theme.Hot.Render("○ " + m.snapshot.State)
	default:
		return theme.Muted.Render("○ Not in a session")
	}
}

func (m Model) hint() string {
	if m.snapshot.SessionStarted {
		return "space: end session"
	}
	return "space: start session"
}

func agentLabel(state string) string {
	switch state {
	case "listening":
		return theme.Good.Render("listening")
	case "thinking":
		return theme.Hot.Render("thinking")
	case "speaking":
		return lipgloss.NewStyle().Foreground(theme.Sapphire).Render("speaking")
	case "":
		return theme.Muted.Render("disconnected")
	default:
		return theme.Muted.Render(state)
	}
}

func levelBar(level float64) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	filled := int(level*levelBarWidth + 0.5)
	return lipgloss.NewStyle().Foreground(theme.Peach).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Surface1).Render(strings.Repeat("░", levelBarWidth-filled))
}
