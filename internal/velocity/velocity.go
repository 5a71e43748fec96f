// Package velocity classifies projects by how long ago they were last
// touched and drives the stagnation KPI and its one-shot alert.
package velocity

import (
	"fmt"
	"strings"
	"time"

	"github.com/rmcastelo/painel/internal/store"
)

// StagnationDays is the threshold beyond which an active project
// counts as stagnant.
const StagnationDays = 14

// Class buckets a project's update velocity.
type Class int

const (
	Good Class = iota // updated within the last week
	Slow              // one to two weeks without updates
	Stagnant          // two weeks or more, or no timestamp at all
)

func (c Class) String() string {
	switch c {
	case Good:
		return "good"
	case Slow:
		return "slow"
	default:
		return "stagnant"
	}
}

// DaysSince returns whole days since the project's last activity
// (updatedAt, falling back to createdAt). ok is false when the project
// carries no timestamp at all.
func DaysSince(p store.Project, now time.Time) (int, bool) {
	last := p.LastActivity()
	if last == nil {
		return 0, false
	}
	return int(now.Sub(*last).Hours() / 24), true
}

// Classify buckets one project. A project without any timestamp is
// treated as the worst case: there is nothing to vouch for it moving.
func Classify(p store.Project, now time.Time) Class {
	days, ok := DaysSince(p, now)
	if !ok {
		return Stagnant
	}
	switch {
	case days < 7:
		return Good
	case days < StagnationDays:
		return Slow
	default:
		return Stagnant
	}
}

// StagnantProjects filters the projects that count toward the
// stagnant KPI: only active work (Em Andamento or Planejado)
// participates; finished, suspended and not-started projects are
// excluded no matter how stale.
func StagnantProjects(projects []store.Project, now time.Time) []store.Project {
	var out []store.Project
	for _, p := range projects {
		if p.Status != store.StatusInProgress && p.Status != store.StatusPlanned {
			continue
		}
		if Classify(p, now) == Stagnant {
			out = append(out, p)
		}
	}
	return out
}

// Alert produces the stagnation warning at most once per session. The
// flag lives in memory only; a new session starts clean.
type Alert struct {
	shown bool
}

// Take returns the warning message the first time it sees a non-zero
// stagnant list; afterwards (or for empty lists) it returns false.
func (a *Alert) Take(stagnant []store.Project) (string, bool) {
	if len(stagnant) == 0 || a.shown {
		return "", false
	}
	a.shown = true

	names := make([]string, 0, 3)
	for _, p := range stagnant {
		if len(names) == 3 {
			break
		}
		names = append(names, p.Nome)
	}
	msg := fmt.Sprintf("%d stagnant project(s): %s", len(stagnant), strings.Join(names, ", "))
	if len(stagnant) > 3 {
		msg += fmt.Sprintf(" and %d more", len(stagnant)-3)
	}
	return msg, true
}
