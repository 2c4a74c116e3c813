package theme

import "github.com/charmbracelet/lipgloss"

// Palette shared with the chart theme.
var (
	Accent    = lipgloss.Color("#4FC3F7")
	White     = lipgloss.Color("#E0E0E0")
	LightGray = lipgloss.Color("#9CA3AF")
	DimGray   = lipgloss.Color("#6B7280")
	Border    = lipgloss.Color("#2A2A4A")

	Success = lipgloss.Color("#66BB6A")
	Warning = lipgloss.Color("#FFA726")
	Error   = lipgloss.Color("#EF5350")
	Info    = lipgloss.Color("#AB47BC")
)
