package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rmcastelo/painel/internal/kpi"
	"github.com/rmcastelo/painel/internal/store"
	"github.com/rmcastelo/painel/internal/velocity"
)

var statusColors = map[string]lipgloss.Color{
	store.StatusNotStarted: colorMuted,
	store.StatusPlanned:    colorHighlight,
	store.StatusInProgress: colorPrimary,
	store.StatusCompleted:  colorSuccess,
	store.StatusSuspended:  colorWarning,
}

type dashboardModel struct {
	width  int
	height int

	projects []store.Project
	summary  kpi.Summary
	now      time.Time

	chart barchart.Model
}

func newDashboardModel() dashboardModel {
	return dashboardModel{
		chart: barchart.New(40, 8),
		now:   time.Now(),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.buildChart()
}

func (d *dashboardModel) setData(projects []store.Project, summary kpi.Summary, now time.Time) {
	d.projects = projects
	d.summary = summary
	d.now = now
	d.buildChart()
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	return d, nil
}

func (d *dashboardModel) buildChart() {
	chartWidth := d.width/2 - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 8
	if d.height > 28 {
		chartHeight = 10
	}

	d.chart = barchart.New(chartWidth, chartHeight)

	counts := []struct {
		label string
		value int
	}{
		{"N.Ini", d.summary.NotStarted},
		{"Plan", d.summary.Planned},
		{"Andam", d.summary.InProgress},
		{"Concl", d.summary.Completed},
		{"Susp", d.summary.Suspended},
	}

	var bars []barchart.BarData
	for i, c := range counts {
		style := lipgloss.NewStyle().Foreground(statusColors[projectStatuses[i]])
		bars = append(bars, barchart.BarData{
			Label: c.label,
			Values: []barchart.BarValue{
				{Name: c.label, Value: float64(c.value), Style: style},
			},
		})
	}

	d.chart.PushAll(bars)
	d.chart.Draw()
}

func (d dashboardModel) view() string {
	w := d.width - 4

	if len(d.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Dashboard"),
			"",
			mutedStyle.Render("No projects yet. Press 2 then n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	kpis := d.renderKPIs()
	chartPanel := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Status"),
		"",
		d.chart.View(),
	)

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Width(w/2).Render(kpis),
		panelStyle.Width(w-w/2-2).Render(chartPanel),
	)

	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Width(w/2).Render(d.renderDeadlines()),
		panelStyle.Width(w-w/2-2).Render(d.renderVelocity()),
	)

	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

func (d dashboardModel) renderKPIs() string {
	s := d.summary

	goal := fmt.Sprintf("%d/%d", s.CompletedThisYear, s.YearGoal)
	goalStyle := warningStyle
	if s.YearGoal > 0 && s.CompletedThisYear >= s.YearGoal {
		goalStyle = successStyle
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Overview"))
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Projects", highlightStyle.Render(fmt.Sprintf("%d", s.Total))))
	rows = append(rows, fmt.Sprintf("  %-22s %s", "In progress", fmt.Sprintf("%d", s.InProgress)))
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Average progress", fmt.Sprintf("%d%%", s.AvgProgress)))
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Goal this year", goalStyle.Render(goal)))
	rows = append(rows, "")

	overdue := fmt.Sprintf("%d", s.Overdue)
	if s.Overdue > 0 {
		overdue = errorStyle.Render(overdue)
	}
	stagnant := fmt.Sprintf("%d", s.Stagnant)
	if s.Stagnant > 0 {
		stagnant = velocityStagnantStyle.Render(stagnant)
	}
	waiting := fmt.Sprintf("%d", s.Waiting)
	if s.Waiting > 0 {
		waiting = warningStyle.Render(waiting)
	}

	rows = append(rows, fmt.Sprintf("  %-22s %s", "Overdue", overdue))
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Due within 7 days", fmt.Sprintf("%d", s.Upcoming)))
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Stagnant", stagnant))
	rows = append(rows, fmt.Sprintf("  %-22s %s", "Waiting on others", waiting))

	return strings.Join(rows, "\n")
}

// renderDeadlines lists projects ordered by how soon their deadline
// lands, overdue ones first.
func (d dashboardModel) renderDeadlines() string {
	today := time.Date(d.now.Year(), d.now.Month(), d.now.Day(), 0, 0, 0, 0, d.now.Location())

	type entry struct {
		p    store.Project
		days int
	}
	var entries []entry
	for _, p := range d.projects {
		if p.Status == store.StatusCompleted {
			continue
		}
		due, ok := store.ParsePrazo(p.Prazo)
		if !ok {
			continue
		}
		days := int(due.Sub(today).Hours() / 24)
		entries = append(entries, entry{p: p, days: days})
	}

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].days < entries[i].days {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Deadlines"))
	rows = append(rows, "")
	if len(entries) == 0 {
		rows = append(rows, mutedStyle.Render("  No deadlines set"))
		return strings.Join(rows, "\n")
	}

	limit := min(len(entries), 6)
	for _, e := range entries[:limit] {
		var when string
		switch {
		case e.days < 0:
			when = errorStyle.Render(fmt.Sprintf("%d day(s) overdue", -e.days))
		case e.days == 0:
			when = warningStyle.Render("today")
		default:
			when = mutedStyle.Render(fmt.Sprintf("in %d day(s)", e.days))
		}
		rows = append(rows, fmt.Sprintf("  %-26s %s", truncate(e.p.Nome, 26), when))
	}

	return strings.Join(rows, "\n")
}

// renderVelocity shows days-since-last-activity per active project.
func (d dashboardModel) renderVelocity() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Velocity"))
	rows = append(rows, "")

	shown := 0
	for _, p := range d.projects {
		if p.Status != store.StatusInProgress && p.Status != store.StatusPlanned {
			continue
		}
		if shown >= 6 {
			break
		}
		shown++

		days, ok := velocity.DaysSince(p, d.now)
		label := "no activity recorded"
		if ok {
			label = fmt.Sprintf("%d day(s) ago", days)
		}

		var style lipgloss.Style
		switch velocity.Classify(p, d.now) {
		case velocity.Good:
			style = velocityGoodStyle
		case velocity.Slow:
			style = velocitySlowStyle
		default:
			style = velocityStagnantStyle
		}

		rows = append(rows, fmt.Sprintf("  %s %-24s %s",
			style.Render("●"), truncate(p.Nome, 24), mutedStyle.Render(label)))
	}

	if shown == 0 {
		rows = append(rows, mutedStyle.Render("  No active projects"))
	}

	return strings.Join(rows, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
