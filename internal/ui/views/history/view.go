package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	sessiondto "miso/internal/modules/session/dto"
	apperrors "miso/internal/platform/errors"
	"miso/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Dashboard(ctx context.Context) (sessiondto.HistoryOutput, error)
	LoadMore(ctx context.Context) (sessiondto.HistoryOutput, error)
	Delete(ctx context.Context, sessionID string) (sessiondto.DeleteOutput, error)
	Export(ctx context.Context, sessionID, format string) (string, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type HistoryLoadedMsg struct {
	History sessiondto.HistoryOutput
	Err     error
}

type DetailLoadedMsg struct {
	SessionID string
	Markdown  string
	Err       error
}

type DeletedMsg struct {
	Result sessiondto.DeleteOutput
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type sessionItem struct {
	summary sessiondto.SummaryOutput
	month   string
}

func (i sessionItem) Title() string {
	if i.summary.Title == "" {
		return "Untitled session"
	}
	return i.summary.Title
}

func (i sessionItem) Description() string {
	parts := []string{i.month}
	if !i.summary.StartedAt.IsZero() {
		parts = append(parts, i.summary.StartedAt.Format("Jan 2 15:04"))
	}
	if i.summary.Duration != nil {
		parts = append(parts, fmt.Sprintf("%.0f min", *i.summary.Duration/60))
	}
	if i.summary.Status != "" {
		parts = append(parts, i.summary.Status)
	}
	return strings.Join(parts, "  ")
}

func (i sessionItem) FilterValue() string { return i.summary.Title }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     Port
	list     list.Model
	preview  viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	history  sessiondto.HistoryOutput
	shownID  string
	loading  bool
	more     bool
	width    int
	height   int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Peach).BorderForeground(theme.Peach)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Peach)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Sessions"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Peach)

	r, _ := glamour.NewTermRenderer(glamour.WithStylePath("dark"), glamour.WithWordWrap(0))

	return Model{
		port:     port,
		list:     l,
		preview:  vp,
		spinner:  sp,
		renderer: r,
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadHistoryCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case HistoryLoadedMsg:
		m.loading = false
		m.more = false
		if errors.Is(msg.Err, apperrors.ErrNoMorePages) {
			return m, nil
		}
		if msg.Err != nil {
			m.list.Title = "Sessions: " + msg.Err.Error()
			return m, nil
		}
		cmds = append(cmds, m.setHistory(msg.History))

	case DeletedMsg:
		if msg.Err == nil {
			m.history = removeSession(m.history, msg.Result.SessionID)
			cmds = append(cmds, m.setHistory(m.history))
		}

	case DetailLoadedMsg:
		if msg.Err != nil {
			m.preview.SetContent(theme.Bad.Render("Error: " + msg.Err.Error()))
		} else if msg.SessionID == m.selectedID() {
			m.shownID = msg.SessionID
			m.preview.SetContent(m.renderMarkdown(msg.Markdown))
			m.preview.GotoTop()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			if id := m.selectedID(); id != "" {
				cmds = append(cmds, m.loadDetailCmd(id))
			}
			// Reaching the last row pulls the next page, like scrolling the sidebar.
			if m.list.Index() == len(m.list.Items())-1 && m.history.HasNext && !m.more {
				m.more = true
				cmds = append(cmds, m.loadMoreCmd())
			}
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading sessions…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	footer := theme.Muted.Render(fmt.Sprintf("%d of %d", countSessions(m.history), m.history.TotalCount))
	if m.more {
		footer += "  " + m.spinner.View() + theme.Muted.Render(" loading more")
	} else if m.history.HasNext {
		footer += theme.Muted.Render("  m: load more")
	}
	if m.history.Warning != "" {
		footer = theme.Bad.Render(m.history.Warning) + "  " + footer
	}

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height - 1).
		Render(m.list.View())
	left := lipgloss.JoinVertical(lipgloss.Left, listPane, footer)

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, detailPane)
}

func (m Model) Port() Port { return m.port }

// SelectedSessionID returns the current selection's id, if any.
func (m Model) SelectedSessionID() (string, bool) {
	id := m.selectedID()
	return id, id != ""
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// LoadMore fetches the next page when one exists.
func (m *Model) LoadMore() tea.Cmd {
	if !m.history.HasNext || m.more {
		return nil
	}
	m.more = true
	return tea.Batch(m.loadMoreCmd(), m.spinner.Tick)
}

// Reload fetches page one again.
func (m *Model) Reload() tea.Cmd {
	m.loading = true
	return tea.Batch(m.loadHistoryCmd(), m.spinner.Tick)
}

// DeleteSelected removes the selected session. The returned Cmd produces a
// DeletedMsg.
func (m Model) DeleteSelected() tea.Cmd {
	id := m.selectedID()
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		out, err := m.port.Delete(context.Background(), id)
		if out.SessionID == "" {
			out.SessionID = id
		}
		return DeletedMsg{Result: out, Err: err}
	}
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height-1)
	m.preview.Width = detailW - 4
	m.preview.Height = m.height - 4
	if r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(m.preview.Width-2),
	); err == nil {
		m.renderer = r
	}
}

func (m *Model) setHistory(h sessiondto.HistoryOutput) tea.Cmd {
	m.history = h
	items := []list.Item{}
	for _, g := range h.Groups {
		for _, s := range g.Sessions {
			items = append(items, sessionItem{summary: s, month: g.MonthName})
		}
	}
	cmds := []tea.Cmd{m.list.SetItems(items)}
	if id := m.selectedID(); id != "" && id != m.shownID {
		cmds = append(cmds, m.loadDetailCmd(id))
	}
	if len(items) == 0 {
		m.shownID = ""
		m.preview.SetContent(theme.Muted.Render("No sessions yet. Start one from the Session tab."))
	}
	return tea.Batch(cmds...)
}

func (m Model) selectedID() string {
	if item, ok := m.list.SelectedItem().(sessionItem); ok {
		return item.summary.ID
	}
	return ""
}

func (m Model) renderMarkdown(md string) string {
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(md); err == nil {
			return rendered + "\n" + theme.Muted.Render("r: resume  d: delete")
		}
	}
	return md
}

func (m Model) loadHistoryCmd() tea.Cmd {
	return func() tea.Msg {
		h, err := m.port.Dashboard(context.Background())
		return HistoryLoadedMsg{History: h, Err: err}
	}
}

func (m Model) loadMoreCmd() tea.Cmd {
	return func() tea.Msg {
		h, err := m.port.LoadMore(context.Background())
		return HistoryLoadedMsg{History: h, Err: err}
	}
}

func (m Model) loadDetailCmd(id string) tea.Cmd {
	return func() tea.Msg {
		md, err := m.port.Export(context.Background(), id, "markdown")
		return DetailLoadedMsg{SessionID: id, Markdown: md, Err: err}
	}
}

func removeSession(h sessiondto.HistoryOutput, id string) sessiondto.HistoryOutput {
	out := h
	out.Groups = nil
	for _, g := range h.Groups {
		kept := g
		kept.Sessions = nil
		for _, s := range g.Sessions {
			if s.ID != id {
				kept.Sessions = append(kept.Sessions, s)
			}
		}
		if len(kept.Sessions) > 0 {
			out.Groups = append(out.Groups, kept)
		}
	}
	return out
}

func countSessions(h sessiondto.HistoryOutput) int {
	n := 0
	for _, g := range h.Groups {
		n += len(g.Sessions)
	}
	return n
}
