package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - Dracula theme inspired.
var (
	colorPurple   = lipgloss.Color("#bd93f9")
	colorPink     = lipgloss.Color("#ff79c6")
	colorGreen    = lipgloss.Color("#50fa7b")
	colorYellow   = lipgloss.Color("#f1fa8c")
	colorCyan     = lipgloss.Color("#8be9fd")
	colorRed      = lipgloss.Color("#ff5555")
	colorWhite    = lipgloss.Color("#f8f8f2")
	colorGray     = lipgloss.Color("#6272a4")
	colorDarkGray = lipgloss.Color("#44475a")
)

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	// Header styles
	Header lipgloss.Style

	// Tab styles
	Tab        lipgloss.Style
	ActiveTab  lipgloss.Style
	GroupLabel lipgloss.Style

	// Pane chrome
	PaneBorder        lipgloss.Style
	FocusedPaneBorder lipgloss.Style

	// Status bar styles
	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	StatusText lipgloss.Style
	StatusErr  lipgloss.Style

	// Empty state
	Empty lipgloss.Style

	// Help screen
	Help lipgloss.Style

	// Dialog styles
	Dialog       lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogButton lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPurple),

		Tab: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(colorGray),

		ActiveTab: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(colorPink).
			Bold(true).
			Underline(true),

		GroupLabel: lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true),

		PaneBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDarkGray),

		FocusedPaneBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple),

		StatusBar: lipgloss.NewStyle().
			Background(colorDarkGray).
			Foreground(colorWhite),

		StatusKey: lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true),

		StatusText: lipgloss.NewStyle().
			Foreground(colorWhite),

		StatusErr: lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true),

		Empty: lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true),

		Help: lipgloss.NewStyle().
			Foreground(colorCyan),

		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPurple).
			Padding(1, 3),

		DialogTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow),

		DialogButton: lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true),
	}
}
