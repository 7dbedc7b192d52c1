package theme

import "github.com/charmbracelet/lipgloss"

// Warm palette built around the miso orange accent.
var (
	Base     = lipgloss.Color("#1f1b18")
	Mantle   = lipgloss.Color("#191512")
	Surface0 = lipgloss.Color("#2e2823")
	Surface1 = lipgloss.Color("#4a4139")
	Text     = lipgloss.Color("#efe6dc")
	Subtext0 = lipgloss.Color("#b3a79a")
	Lavender = lipgloss.Color("#c9b8f0")
	Sapphire = lipgloss.Color("#7fb6d9")
	Green    = lipgloss.Color("#9fcf8f")
	Peach    = lipgloss.Color("#fb923c")
	Red      = lipgloss.Color("#e57373")

	App = lipgloss.NewStyle().
		Background(Base).
		Foreground(Text).
		Padding(1, 2)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(1)

	PaneActive = Pane.BorderForeground(Peach)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Good  = lipgloss.NewStyle().Foreground(Green)
	Bad   = lipgloss.NewStyle().Foreground(Red).Bold(true)
)
