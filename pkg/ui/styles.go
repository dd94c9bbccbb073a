// Package ui provides the Bubble Tea dashboard for the spread analyzer.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorDanger    = lipgloss.Color("#EF4444") // Red
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
)

// Styles
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	MutedValue = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessValue = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	WarningValue = lipgloss.NewStyle().
			Foreground(ColorWarning)

	DangerValue = lipgloss.NewStyle().
			Foreground(ColorDanger)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

// stepAppearance maps a startup step status to its icon, label and style.
// frame selects the spinner glyph while a step is connecting.
func stepAppearance(status string, frame int) (string, string, lipgloss.Style) {
	switch status {
	case "connected", "done":
		return "✓", "Ready", SuccessValue
	case "connecting":
		return spinnerFrames[frame%len(spinnerFrames)], "Connecting...", WarningValue
	case "failed":
		return "✗", "Failed", DangerValue
	default:
		return "○", "Pending", MutedValue
	}
}
