package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Base styles for confersense terminal components
var (
	// Header style for titles and section headers
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// Label style for form field labels
	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	// Success style for positive feedback
	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// Error style for error messages
	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// Warning style for warnings
	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// Muted style for secondary text
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Subtle style for hints and descriptions
	StyleSubtle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)

	// Highlight style for selected/focused items
	StyleHighlight = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	// Box style for bordered containers
	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSubtle).
			Padding(0, 1)
)

// Transcript styles
var (
	StyleTimestamp = lipgloss.NewStyle().Foreground(ColorSubtle)
	StyleOriginal  = lipgloss.NewStyle().Foreground(ColorMuted)
	// pending translations are dim until the final answer lands
	StylePending = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	StyleFinal   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleMarker  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

const logoASCII = `
  ___ ___  _ _  / _|___ _ _ ___ ___ _ _  ___ ___
 / _/ _ \| ' \|  _/ -_) '_(_-</ -_) ' \(_-</ -_)
 \__\___/|_||_|_| \___|_| /__/\___|_||_/__/\___|`

// Logo returns the confersense ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}

// StatusBadge renders a session status as a colored label
func StatusBadge(status string) string {
	color, ok := statusColors[status]
	if !ok {
		color = ColorMuted
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBg).
		Background(color).
		Padding(0, 1).
		Render(strings.ToUpper(status))
}
