package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/service"
)

const progressWidth = 30

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	eventBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

// renderSnapshot renders the client's view of the journey.
func renderSnapshot(s service.Snapshot) string {
	var b strings.Builder
	if s.Advisory != "" {
		b.WriteString(warnStyle.Render("! "+s.Advisory) + "\n")
	}
	if s.Error != "" {
		b.WriteString(dangerStyle.Render("error: "+s.Error) + "\n")
	}
	b.WriteString(renderJourney(s.Session, s.Events, s.ActiveEvent))
	if s.Loading {
		b.WriteString(dimStyle.Render("working...") + "\n")
	}
	return b.String()
}

// renderView renders an authoritative status view.
func renderView(v travel.StatusView) string {
	return renderJourney(v.Session, v.Events, v.Current)
}

func renderJourney(sess *travel.Session, events []travel.Event, active *travel.Event) string {
	if sess == nil {
		return dimStyle.Render("no journey in progress") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n",
		titleStyle.Render(sess.DestinationName),
		statusStyle.Render("["+string(sess.Status)+"]"))
	fmt.Fprintf(&b, "%s %.1f/%.1f mi  %s\n",
		progressBar(sess.Progress()),
		sess.MilesTraveled, sess.MilesTotal,
		dangerStyle.Render(dangerMarks(sess.DangerLevel)))

	meta := fmt.Sprintf("session %s  mode %s", sess.ID, sess.Mode)
	if sess.EstimatedArrival != nil {
		meta += "  eta " + sess.EstimatedArrival.Local().Format(time.Kitchen)
	}
	b.WriteString(dimStyle.Render(meta) + "\n")

	if active != nil {
		b.WriteString(eventBox.Render(renderEvent(active)) + "\n")
	}
	for i := range events {
		if active != nil && events[i].ID == active.ID {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n",
			dimStyle.Render(events[i].Timestamp.Local().Format(time.Kitchen)),
			events[i].Description)
	}
	return b.String()
}

func renderEvent(e *travel.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s", e.Description, dangerStyle.Render(dangerMarks(e.DangerLevel)))
	for _, c := range e.Choices {
		fmt.Fprintf(&b, "\n  > %s", c.Label)
		if c.Description != "" {
			b.WriteString(dimStyle.Render("  " + c.Description))
		}
	}
	return b.String()
}

func progressBar(p float64) string {
	filled := int(p * progressWidth)
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", progressWidth-filled) + "]"
}

func dangerMarks(d travel.DangerLevel) string {
	return strings.Repeat("!", int(d))
}
