package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
}

// DefaultTheme returns the default palette.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#F97316"), // Hibiscus orange
		Secondary: lipgloss.Color("#14B8A6"), // Lagoon teal
		Text:      lipgloss.Color("#E5E7EB"),
		Muted:     lipgloss.Color("#6B7280"),
		Success:   lipgloss.Color("#84CC16"),
		Warning:   lipgloss.Color("#FACC15"),
		Error:     lipgloss.Color("#F43F5E"),
		Border:    lipgloss.Color("#374151"),
	}
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Score    lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Input    lipgloss.Style
	Status   lipgloss.Style
}

// NewStyles builds styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		Normal:   lipgloss.NewStyle().Foreground(t.Text),
		Muted:    lipgloss.NewStyle().Foreground(t.Muted),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Score:    lipgloss.NewStyle().Foreground(t.Success),
		Error:    lipgloss.NewStyle().Foreground(t.Error),
		Warning:  lipgloss.NewStyle().Foreground(t.Warning),
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Status: lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1),
	}
}

// DefaultStyles returns styles for the default theme.
func DefaultStyles() Styles {
	return NewStyles(DefaultTheme())
}
