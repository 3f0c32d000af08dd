package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	detail    lipgloss.Style
	link      lipgloss.Style
	healthOK  lipgloss.Style
	healthBad lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		detail:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		link:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		healthOK:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		healthBad: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}
