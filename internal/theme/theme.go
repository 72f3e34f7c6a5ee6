package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-agent/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for section titles printed above tables.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// TableHeaderStyle styles the header row of CLI tables.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Padding(0, 1)

// CellStyle is the base style for table cells.
var CellStyle = lipgloss.NewStyle().Padding(0, 1)

// BorderStyle colors table borders.
var BorderStyle = lipgloss.NewStyle().Foreground(ColorBorder)

// DimmedStyle is used for empty results and secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// PriorityStyle returns a color-coded style for an analysis priority,
// where 5 is the most urgent.
func PriorityStyle(priority int) lipgloss.Style {
	base := CellStyle.Bold(true)

	switch priority {
	case 5:
		return base.Foreground(ColorRed)
	case 4:
		return base.Foreground(ColorOrange)
	case 3:
		return base.Foreground(ColorYellow)
	case 2:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// CategoryStyle returns a color-coded style for an analysis category.
func CategoryStyle(category model.Category) lipgloss.Style {
	switch category {
	case model.CategoryUrgent:
		return CellStyle.Foreground(ColorRed)
	case model.CategoryBusiness:
		return CellStyle.Foreground(ColorBlue)
	case model.CategorySupport:
		return CellStyle.Foreground(ColorOrange)
	case model.CategoryPersonal:
		return CellStyle.Foreground(ColorGreen)
	case model.CategoryNewsletter:
		return CellStyle.Foreground(ColorMagenta)
	case model.CategorySpam:
		return CellStyle.Foreground(ColorGray)
	default:
		return CellStyle
	}
}

// FlagStyle renders yes/no columns.
func FlagStyle(set bool) lipgloss.Style {
	if set {
		return CellStyle.Foreground(ColorGreen)
	}
	return CellStyle.Foreground(ColorGray)
}
