package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the confersense terminal views
var (
	// Primary colors
	ColorPrimary   = lipgloss.Color("#0EA5E9") // Sky - main accent
	ColorSecondary = lipgloss.Color("#A78BFA") // Violet - secondary accent

	// Status colors
	ColorSuccess = lipgloss.Color("#22C55E") // Green
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorWarning = lipgloss.Color("#F59E0B") // Amber

	// Text colors
	ColorText   = lipgloss.Color("#F8FAFC") // Bright white
	ColorMuted  = lipgloss.Color("#94A3B8") // Slate gray
	ColorSubtle = lipgloss.Color("#64748B") // Darker gray

	// Background colors
	ColorBg        = lipgloss.Color("#0F172A") // Dark slate
	ColorHighlight = lipgloss.Color("#334155") // Selection highlight
)

// statusColors maps session statuses to badge colors
var statusColors = map[string]lipgloss.Color{
	"idle":        ColorSubtle,
	"connecting":  ColorWarning,
	"listening":   ColorSuccess,
	"translating": ColorPrimary,
	"error":       ColorError,
}
