package tui

import "github.com/charmbracelet/lipgloss"

var (
	blue    = lipgloss.Color("#2563eb")
	paleBlu = lipgloss.Color("#dbeafe")
	slate   = lipgloss.Color("#334155")
	muted   = lipgloss.Color("#94a3b8")
	red     = lipgloss.Color("#b91c1c")
	green   = lipgloss.Color("#059669")
)

// Styles groups the lipgloss styles used by the form.
type Styles struct {
	Header     lipgloss.Style
	Subtitle   lipgloss.Style
	Label      lipgloss.Style
	Focused    lipgloss.Style
	Choice     lipgloss.Style
	Button     lipgloss.Style
	ButtonBusy lipgloss.Style
	Error      lipgloss.Style
	Result     lipgloss.Style
	Caption    lipgloss.Style
	Help       lipgloss.Style
}

// DefaultStyles returns the palette of the web form translated to the terminal.
func DefaultStyles() Styles {
	return Styles{
		Header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(blue).Padding(0, 1),
		Subtitle:   lipgloss.NewStyle().Foreground(paleBlu),
		Label:      lipgloss.NewStyle().Bold(true).Foreground(slate),
		Focused:    lipgloss.NewStyle().Bold(true).Foreground(blue),
		Choice:     lipgloss.NewStyle().Foreground(slate),
		Button:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(blue).Padding(0, 2),
		ButtonBusy: lipgloss.NewStyle().Foreground(muted).Padding(0, 2),
		Error:      lipgloss.NewStyle().Foreground(red).Border(lipgloss.RoundedBorder()).BorderForeground(red).Padding(0, 1),
		Result:     lipgloss.NewStyle().Bold(true).Foreground(green).Border(lipgloss.RoundedBorder()).BorderForeground(green).Padding(0, 1),
		Caption:    lipgloss.NewStyle().Foreground(green),
		Help:       lipgloss.NewStyle().Foreground(muted),
	}
}
