package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/chadvangaalen/sfr/internal/application"
)

// Snapshot is everything the status view shows about the running relay.
type Snapshot struct {
	Commander  string
	Health     application.Health
	SystemURL  string
	StationURL string
	Pending    int
}

func renderView(snapshot Snapshot, s styles) string {
	lines := []string{
		s.title.Render("Straylight Flight Recorder"),
		s.header.Render(fmt.Sprintf("commander: %s", commanderLabel(snapshot.Commander))),
		healthLine(snapshot.Health, s),
		s.detail.Render(fmt.Sprintf("pending reports: %d", snapshot.Pending)),
	}

	if snapshot.SystemURL != "" {
		lines = append(lines, s.link.Render(fmt.Sprintf("system:  %s", snapshot.SystemURL)))
	}
	if snapshot.StationURL != "" {
		lines = append(lines, s.link.Render(fmt.Sprintf("station: %s", snapshot.StationURL)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func healthLine(health application.Health, s styles) string {
	label := s.detail.Render("delivery:")
	state := s.healthOK.Render(health.String())
	if health == application.HealthError {
		state = s.healthBad.Render(health.String())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", state)
}

func commanderLabel(name string) string {
	if name == "" {
		return "not logged in"
	}
	return name
}
