package widget

import "github.com/charmbracelet/lipgloss"

// Color palette - Dracula theme inspired, shared with the host TUI.
var (
	colorPurple = lipgloss.Color("#bd93f9")
	colorGreen  = lipgloss.Color("#50fa7b")
	colorYellow = lipgloss.Color("#f1fa8c")
	colorCyan   = lipgloss.Color("#8be9fd")
	colorRed    = lipgloss.Color("#ff5555")
	colorWhite  = lipgloss.Color("#f8f8f2")
	colorGray   = lipgloss.Color("#6272a4")
)

// Styles holds the lipgloss styles for notebook cell rendering.
type Styles struct {
	CellHeader     lipgloss.Style
	SelectedHeader lipgloss.Style
	CodeLine       lipgloss.Style
	MarkdownLine   lipgloss.Style
	RawLine        lipgloss.Style
	OutputLine     lipgloss.Style
	ErrorLine      lipgloss.Style
	Collapsed      lipgloss.Style
	Empty          lipgloss.Style
}

// DefaultStyles returns the default widget style configuration.
func DefaultStyles() Styles {
	return Styles{
		CellHeader: lipgloss.NewStyle().
			Foreground(colorGray).
			Bold(true),

		SelectedHeader: lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true),

		CodeLine: lipgloss.NewStyle().
			Foreground(colorWhite),

		MarkdownLine: lipgloss.NewStyle().
			Foreground(colorCyan),

		RawLine: lipgloss.NewStyle().
			Foreground(colorGray),

		OutputLine: lipgloss.NewStyle().
			Foreground(colorGreen),

		ErrorLine: lipgloss.NewStyle().
			Foreground(colorRed),

		Collapsed: lipgloss.NewStyle().
			Foreground(colorYellow).
			Italic(true),

		Empty: lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true),
	}
}
