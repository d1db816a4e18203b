package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	mutedColor     = lipgloss.Color("#6B7280")
	accentColor    = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#EF4444")
	successColor   = lipgloss.Color("#10B981")
	barBackground  = lipgloss.Color("#1F2937")
	barForeground  = lipgloss.Color("#D1D5DB")

	sidebarStyle   lipgloss.Style
	listStyle      lipgloss.Style
	readerStyle    lipgloss.Style
	dialogStyle    lipgloss.Style
	statusBarStyle lipgloss.Style
	titleStyle     lipgloss.Style
	selectedStyle  lipgloss.Style
	unreadStyle    lipgloss.Style
	markStyle      lipgloss.Style
	mutedTextStyle lipgloss.Style
	errorTextStyle lipgloss.Style
	okTextStyle    lipgloss.Style
	tagStyle       lipgloss.Style
)

func init() {
	buildStyles()
}

// applyTheme switches the palette. "light" suits light terminal
// backgrounds; anything else keeps the default dark palette.
func applyTheme(name string) {
	if name == "light" {
		primaryColor = lipgloss.Color("#5B21B6")
		secondaryColor = lipgloss.Color("#4338CA")
		mutedColor = lipgloss.Color("#4B5563")
		accentColor = lipgloss.Color("#B45309")
		barBackground = lipgloss.Color("#E5E7EB")
		barForeground = lipgloss.Color("#111827")
	}
	buildStyles()
}

func buildStyles() {
	sidebarStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(1, 1)

	listStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1)

	readerStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(1, 2)

	dialogStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
		Background(barBackground).
		Foreground(barForeground).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true)

	selectedStyle = lipgloss.NewStyle().
		Background(primaryColor).
		Foreground(lipgloss.Color("#FFFFFF"))

	unreadStyle = lipgloss.NewStyle().
		Bold(true)

	markStyle = lipgloss.NewStyle().
		Foreground(accentColor)

	mutedTextStyle = lipgloss.NewStyle().
		Foreground(mutedColor)

	errorTextStyle = lipgloss.NewStyle().
		Foreground(errorColor)

	okTextStyle = lipgloss.NewStyle().
		Foreground(successColor)

	tagStyle = lipgloss.NewStyle().
		Foreground(secondaryColor)
}
