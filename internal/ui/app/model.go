package app

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "miso/internal/modules/session/dto"
	voicedto "miso/internal/modules/voice/dto"
	apperrors "miso/internal/platform/errors"
	"miso/internal/ui/components"
	"miso/internal/ui/theme"
	historyview "miso/internal/ui/views/history"
	voiceview "miso/internal/ui/views/voice"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type voicePort interface {
	Toggle(ctx context.Context) error
	Resume(ctx context.Context, sessionID string) (voicedto.ResumeOutput, error)
	AutoResume(ctx context.Context, sessionID string) (voicedto.ResumeOutput, error)
	ResumeLast(ctx context.Context) (voicedto.ResumeOutput, error)
	Disconnect(ctx context.Context)
	Snapshot(ctx context.Context) voicedto.SnapshotOutput
	Watch(fn func(voicedto.SnapshotOutput)) func()
}

type sessionPort interface {
	Dashboard(ctx context.Context) (sessiondto.HistoryOutput, error)
	LoadMore(ctx context.Context) (sessiondto.HistoryOutput, error)
	Delete(ctx context.Context, sessionID string) (sessiondto.DeleteOutput, error)
	Export(ctx context.Context, sessionID, format string) (string, error)
}

type authPort interface {
	Logout(ctx context.Context)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabSession tabID = iota
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Session", "History"}

// ─── messages ────────────────────────────────────────────────────────────────

// SignedOutMsg is sent from outside the program when the backend ends the
// sign-in, so the TUI returns to the sign-in entry point.
type SignedOutMsg struct{ Reason string }

type snapshotChangedMsg struct{}

type toggledMsg struct{ err error }

type resumedMsg struct {
	out  voicedto.ResumeOutput
	err  error
	auto bool
}

type loggedOutMsg struct{}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Toggle  key.Binding
	Resume  key.Binding
	Delete  key.Binding
	More    key.Binding
	Refresh key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/end session")),
		Resume:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume selected")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete selected")),
		More:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		Refresh: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Toggle},
		{k.Resume, k.Delete, k.More, k.Refresh},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the global help
// overlay, and the command palette. Voice state arrives through the watch
// channel and notices through the notice channel.
type Model struct {
	voice   voicePort
	auth    authPort
	changed chan struct{}
	notices <-chan voiceview.NoticeMsg

	voiceView   voiceview.Model
	historyView historyview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	resumeID  string
	signedOut string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(
	username string,
	voice voicePort,
	session sessionPort,
	auth authPort,
	notices <-chan voiceview.NoticeMsg,
) Model {
	changed := make(chan struct{}, 1)
	voice.Watch(func(voicedto.SnapshotOutput) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	return Model{
		voice:       voice,
		auth:        auth,
		changed:     changed,
		notices:     notices,
		voiceView:   voiceview.New(username),
		historyView: historyview.New(historyPortBridge{p: session}),
		activeTab:   tabSession,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

// WithResume makes the program resume sessionID once it starts. "last"
// resumes the most recently connected session.
func (m Model) WithResume(sessionID string) Model {
	m.resumeID = sessionID
	return m
}

// SignedOut returns the reason the program quit for a sign-out, if it did.
func (m Model) SignedOut() (string, bool) {
	return m.signedOut, m.signedOut != ""
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.voiceView.Init(),
		m.historyView.Init(),
		m.waitSnapshotCmd(),
		m.waitNoticeCmd(),
	}
	if m.resumeID != "" {
		cmds = append(cmds, m.autoResumeCmd(m.resumeID))
	}
	return tea.Batch(cmds...)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case snapshotChangedMsg:
		snap := m.voice.Snapshot(context.Background())
		previous := m.voiceView.Snapshot()
		m.voiceView, _ = m.voiceView.Update(voiceview.SnapshotMsg{Snapshot: snap})
		cmds = append(cmds, m.waitSnapshotCmd())
		// A finished session shows up in the history.
		if previous.SessionStarted && !snap.SessionStarted {
			cmds = append(cmds, m.historyView.Reload())
		}
		return m, tea.Batch(cmds...)

	case voiceview.NoticeMsg:
		m.voiceView, _ = m.voiceView.Update(msg)
		m.status = msg.Message
		return m, m.waitNoticeCmd()

	case toggledMsg:
		if msg.err != nil {
			m.status = "session: " + msg.err.Error()
		}
		return m, nil

	case resumedMsg:
		switch {
		case msg.err != nil:
			m.status = "resume: " + msg.err.Error()
		case msg.out.Triggered:
			m.status = "resuming session " + msg.out.SessionID
			m.activeTab = tabSession
		case msg.auto:
			m.status = "session " + msg.out.SessionID + " not resumed: busy or resumed before"
		default:
			m.status = "session " + msg.out.SessionID + " not resumed: another session is active"
		}
		return m, nil

	case historyview.DeletedMsg:
		if msg.Err != nil {
			m.status = "delete: " + msg.Err.Error()
		} else {
			m.status = "deleted session " + msg.Result.SessionID
		}

	case historyview.HistoryLoadedMsg:
		if errors.Is(msg.Err, apperrors.ErrNoMorePages) {
			m.status = "no more sessions"
		}

	case SignedOutMsg:
		m.voice.Disconnect(context.Background())
		m.signedOut = msg.Reason
		if m.signedOut == "" {
			m.signedOut = "signed out"
		}
		return m, tea.Quit

	case loggedOutMsg:
		m.signedOut = "signed out"
		return m, tea.Quit

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to sub-view when its search filter is active.
		if m.subViewFiltering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.voice.Disconnect(context.Background())
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case " ":
			if m.activeTab == tabSession {
				return m, m.toggleCmd()
			}
		case "r":
			if m.activeTab == tabHistory {
				if id, ok := m.historyView.SelectedSessionID(); ok {
					return m, m.resumeCmd(id)
				}
			}
		case "d":
			if m.activeTab == tabHistory {
				return m, m.historyView.DeleteSelected()
			}
		case "m":
			if m.activeTab == tabHistory {
				return m, m.historyView.LoadMore()
			}
		case "R":
			if m.activeTab == tabHistory {
				return m, m.historyView.Reload()
			}
		}
	}

	// History results land even while the Session tab is shown.
	var tabCmd tea.Cmd
	switch msg.(type) {
	case historyview.HistoryLoadedMsg, historyview.DetailLoadedMsg, historyview.DeletedMsg:
		m.historyView, tabCmd = m.historyView.Update(msg)
		return m, tabCmd
	}

	switch m.activeTab {
	case tabSession:
		m.voiceView, tabCmd = m.voiceView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	tabBarH := lipgloss.Height(tabBar)
	statusBarH := lipgloss.Height(statusBar)

	contentH := m.height - tabBarH - statusBarH
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabSession:
		return m.voiceView.View()
	case tabHistory:
		return m.historyView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "miso  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if snap := m.voiceView.Snapshot(); snap.SessionStarted {
		left = theme.Hot.Render("● live") + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "session:start":
		if m.voiceView.Snapshot().SessionStarted {
			m.status = "a session is already running"
			return m, nil
		}
		m.activeTab = tabSession
		return m, m.toggleCmd()

	case "session:end":
		if !m.voiceView.Snapshot().SessionStarted {
			m.status = "no session running"
			return m, nil
		}
		return m, m.toggleCmd()

	case "session:resume":
		if len(parts) < 2 {
			id, ok := m.historyView.SelectedSessionID()
			if !ok {
				m.status = "usage: session:resume <id>"
				return m, nil
			}
			return m, m.resumeCmd(id)
		}
		return m, m.resumeCmd(parts[1])

	case "session:delete":
		if len(parts) < 2 {
			m.status = "usage: session:delete <id>"
			return m, nil
		}
		return m, m.deleteCmd(parts[1])

	case "sessions:more":
		m.activeTab = tabHistory
		return m, m.historyView.LoadMore()

	case "sessions:refresh":
		m.activeTab = tabHistory
		return m, m.historyView.Reload()

	case "logout":
		return m, m.logoutCmd()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// subViewFiltering reports whether the active tab's list filter is open,
// in which case global key bindings must yield to allow free typing.
func (m Model) subViewFiltering() bool {
	if m.activeTab == tabHistory {
		return m.historyView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.voiceView, _ = m.voiceView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) waitSnapshotCmd() tea.Cmd {
	return func() tea.Msg {
		<-m.changed
		return snapshotChangedMsg{}
	}
}

func (m Model) waitNoticeCmd() tea.Cmd {
	if m.notices == nil {
		return nil
	}
	return func() tea.Msg {
		notice, ok := <-m.notices
		if !ok {
			return nil
		}
		return notice
	}
}

func (m Model) toggleCmd() tea.Cmd {
	return func() tea.Msg {
		return toggledMsg{err: m.voice.Toggle(context.Background())}
	}
}

func (m Model) resumeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if id == "last" {
			out, err := m.voice.ResumeLast(context.Background())
			return resumedMsg{out: out, err: err}
		}
		out, err := m.voice.Resume(context.Background(), id)
		return resumedMsg{out: out, err: err}
	}
}

// autoResumeCmd handles the resume id given at startup.
func (m Model) autoResumeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if id == "last" {
			out, err := m.voice.ResumeLast(context.Background())
			return resumedMsg{out: out, err: err, auto: true}
		}
		out, err := m.voice.AutoResume(context.Background(), id)
		return resumedMsg{out: out, err: err, auto: true}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.historyView.Port().Delete(context.Background(), id)
		if out.SessionID == "" {
			out.SessionID = id
		}
		return historyview.DeletedMsg{Result: out, Err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		m.voice.Disconnect(context.Background())
		if m.auth != nil {
			m.auth.Logout(context.Background())
		}
		return loggedOutMsg{}
	}
}

// ─── port bridges ─────────────────────────────────────────────────────────────

type historyPortBridge struct{ p sessionPort }

func (b historyPortBridge) Dashboard(ctx context.Context) (sessiondto.HistoryOutput, error) {
	return b.p.Dashboard(ctx)
}
func (b historyPortBridge) LoadMore(ctx context.Context) (sessiondto.HistoryOutput, error) {
	return b.p.LoadMore(ctx)
}
func (b historyPortBridge) Delete(ctx context.Context, id string) (sessiondto.DeleteOutput, error) {
	return b.p.Delete(ctx, id)
}
func (b historyPortBridge) Export(ctx context.Context, id, format string) (string, error) {
	return b.p.Export(ctx, id, format)
}
