// Package kpi computes the dashboard counters from a projects
// snapshot. Everything is recomputed in full each time; snapshots are
// small and the subscription model delivers whole collections anyway.
package kpi

import (
	"time"

	"github.com/rmcastelo/painel/internal/store"
	"github.com/rmcastelo/painel/internal/velocity"
)

// Summary is one dashboard's worth of counters.
type Summary struct {
	Total      int
	NotStarted int
	Planned    int
	InProgress int
	Completed  int
	Suspended  int

	AvgProgress int

	Overdue  int // deadline in the past, project not completed
	Upcoming int // deadline within the next 7 days

	CompletedThisYear int
	YearGoal          int

	Stagnant int
	Waiting  int // steps blocked on an external party
}

// Compute builds the summary for a snapshot at the given instant.
func Compute(projects []store.Project, cfg store.Settings, now time.Time) Summary {
	s := Summary{Total: len(projects), YearGoal: cfg.YearGoal}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	nextWeek := today.AddDate(0, 0, 7)

	progressSum := 0
	for _, p := range projects {
		switch p.Status {
		case store.StatusNotStarted:
			s.NotStarted++
		case store.StatusPlanned:
			s.Planned++
		case store.StatusInProgress:
			s.InProgress++
		case store.StatusCompleted:
			s.Completed++
		case store.StatusSuspended:
			s.Suspended++
		}
		progressSum += p.Progresso

		if deadline, ok := store.ParsePrazo(p.Prazo); ok {
			if deadline.Before(today) && p.Status != store.StatusCompleted {
				s.Overdue++
			}
			if !deadline.Before(today) && !deadline.After(nextWeek) {
				s.Upcoming++
			}
		}

		if p.Status == store.StatusCompleted {
			// completedAt wins; updatedAt approximates it for older
			// records; no date at all counts toward the current year.
			when := p.CompletedAt
			if when == nil {
				when = p.UpdatedAt
			}
			if when == nil || when.Year() == now.Year() {
				s.CompletedThisYear++
			}
		}

		for _, step := range p.Steps {
			if step.Status == store.StepWaiting {
				s.Waiting++
			}
		}
	}

	if s.Total > 0 {
		s.AvgProgress = (progressSum + s.Total/2) / s.Total
	}
	s.Stagnant = len(velocity.StagnantProjects(projects, now))
	return s
}
