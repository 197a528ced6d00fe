package report

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== sample.Store ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// Function, Method and Constructor color-code member kinds.
	Function    lipgloss.Style
	Method      lipgloss.Style
	Constructor lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		Function:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		Method:      lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		Constructor: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// KindStyle returns the style for a member kind.
func (s Styles) KindStyle(kind string) lipgloss.Style {
	switch kind {
	case "function":
		return s.Function
	case "method":
		return s.Method
	case "constructor":
		return s.Constructor
	default:
		return s.Muted
	}
}
