package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"miso/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

const (
	maxShownCommands = 5
	maxRecall        = 20
)

var (
	frameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	usageStyle = lipgloss.NewStyle().Foreground(theme.Text)
	aboutStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
	keyStyle   = lipgloss.NewStyle().Foreground(theme.Peach)
)

// Command describes one palette entry.
type Command struct {
	Name  string
	Args  string
	About string
}

func (c Command) usage() string {
	if c.Args == "" {
		return c.Name
	}
	return c.Name + " " + c.Args
}

// Commands lists what the app's palette handler accepts; keep the two in
// sync.
var Commands = []Command{
	{Name: "session:start", About: "connect to Miso"},
	{Name: "session:end", About: "end the running session"},
	{Name: "session:resume", Args: "[id|last]", About: "resume a past session"},
	{Name: "session:delete", Args: "<id>", About: "delete a session"},
	{Name: "sessions:more", About: "load the next page of history"},
	{Name: "sessions:refresh", About: "reload history from page one"},
	{Name: "logout", About: "sign out and quit"},
}

// Palette is a command-palette overlay backed by bubbles/textinput. Up and
// down recall earlier submissions.
type Palette struct {
	input   textinput.Model
	visible bool
	width   int
	recall  []string
	cursor  int
}

func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "type a command…"
	ti.CharLimit = 256
	return Palette{input: ti}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty input and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.cursor = len(p.recall)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.remember(val)
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			if matches := Match(p.input.Value(), 1); len(matches) == 1 {
				p.input.SetValue(matches[0].Name + " ")
				p.input.CursorEnd()
			}
			return p, nil
		case "up":
			if p.cursor > 0 {
				p.cursor--
				p.input.SetValue(p.recall[p.cursor])
				p.input.CursorEnd()
			}
			return p, nil
		case "down":
			if p.cursor < len(p.recall) {
				p.cursor++
				value := ""
				if p.cursor < len(p.recall) {
					value = p.recall[p.cursor]
				}
				p.input.SetValue(value)
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	matches := Match(p.input.Value(), maxShownCommands)
	width := 0
	for _, c := range matches {
		width = max(width, len(c.usage()))
	}

	lines := []string{
		theme.Title.Render("Command Palette"),
		": " + p.input.View(),
	}
	if len(matches) > 0 {
		lines = append(lines, "")
		for _, c := range matches {
			pad := strings.Repeat(" ", width-len(c.usage())+2)
			lines = append(lines, "  "+usageStyle.Render(c.usage())+pad+aboutStyle.Render(c.About))
		}
		lines = append(lines, "", keyStyle.Render("  tab")+aboutStyle.Render(" complete  ")+
			keyStyle.Render("↑/↓")+aboutStyle.Render(" recall"))
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return frameStyle.Width(w - 2).Render(strings.Join(lines, "\n"))
}

// Match returns up to limit commands whose name starts with the first word
// of input.
func Match(input string, limit int) []Command {
	fields := strings.Fields(strings.ToLower(input))
	prefix := ""
	if len(fields) > 0 {
		prefix = fields[0]
	}
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, prefix) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p *Palette) remember(value string) {
	if value == "" || (len(p.recall) > 0 && p.recall[len(p.recall)-1] == value) {
		return
	}
	p.recall = append(p.recall, value)
	if len(p.recall) > maxRecall {
		p.recall = p.recall[len(p.recall)-maxRecall:]
	}
}
