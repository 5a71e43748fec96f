// Package tasks builds the unified cross-project task view: every
// step of every project flattened into one filterable list, with
// mutations routed back to the owning project's embedded array.
package tasks

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rmcastelo/painel/internal/store"
)

// FilterAll is the wildcard value for both task filters.
const FilterAll = "todos"

// Task is a derived row: a step joined with its owning project's
// context. It is never persisted; only the tasksState overrides are.
type Task struct {
	ID              string
	Texto           string
	Status          string // effective status, including "agendado"
	StepPrazo       string
	StepResponsavel string
	Aguardando      string
	AguardandoDesde string
	ProjectDocID    string
	ProjectID       int
	ProjectName     string
	ProjectPrazo    string
	ProjectStatus   string
	Index           int
	ScheduledDate   string
	ScheduledTime   string
}

// TaskID synthesizes the task identifier for a step position.
func TaskID(docID string, index int) string {
	return fmt.Sprintf("%s_%d", docID, index)
}

// SplitTaskID resolves a synthetic id back into the owning document
// and step index. Document ids are UUIDs and carry no underscores, so
// the last underscore is the separator.
func SplitTaskID(id string) (string, int, error) {
	cut := strings.LastIndex(id, "_")
	if cut <= 0 || cut == len(id)-1 {
		return "", 0, fmt.Errorf("malformed task id %q", id)
	}
	index, err := strconv.Atoi(id[cut+1:])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("malformed task id %q", id)
	}
	return id[:cut], index, nil
}

// Build flattens every project's step list into tasks. The effective
// status is the step's own status when it carries one, otherwise the
// tasksState override, otherwise pending. Rebuilt in full on every
// snapshot; there is no incremental path.
func Build(projects []store.Project, overrides store.TasksState) []Task {
	var out []Task
	for _, p := range projects {
		name := p.Nome
		if name == "" {
			name = fmt.Sprintf("Projeto %d", p.ID)
		}
		for i, step := range p.Steps {
			id := TaskID(p.DocID, i)
			override, hasOverride := overrides[id]

			status := store.StepPending
			if step.HasStatus() {
				status = step.Status
			} else if hasOverride && override.Status != "" {
				status = override.Status
			}

			out = append(out, Task{
				ID:              id,
				Texto:           step.Texto,
				Status:          status,
				StepPrazo:       step.Prazo,
				StepResponsavel: step.Responsavel,
				Aguardando:      step.Aguardando,
				AguardandoDesde: step.AguardandoDesde,
				ProjectDocID:    p.DocID,
				ProjectID:       p.ID,
				ProjectName:     name,
				ProjectPrazo:    p.Prazo,
				ProjectStatus:   p.Status,
				Index:           i,
				ScheduledDate:   override.ScheduledDate,
				ScheduledTime:   override.ScheduledTime,
			})
		}
	}
	return out
}

// Filter keeps tasks matching the project and status filters; the two
// compose with AND semantics and either may be FilterAll (or empty).
func Filter(all []Task, projectDocID, status string) []Task {
	var out []Task
	for _, t := range all {
		if projectDocID != "" && projectDocID != FilterAll && t.ProjectDocID != projectDocID {
			continue
		}
		if status != "" && status != FilterAll && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Group is the per-project slice of a filtered task list.
type Group struct {
	ProjectDocID string
	ProjectID    int
	ProjectName  string
	ProjectPrazo string
	Tasks        []Task
}

func (g Group) Count() int { return len(g.Tasks) }

// GroupByProject splits tasks by owning project, preserving the order
// in which each project is first seen.
func GroupByProject(tasks []Task) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, t := range tasks {
		i, ok := index[t.ProjectDocID]
		if !ok {
			i = len(groups)
			index[t.ProjectDocID] = i
			groups = append(groups, Group{
				ProjectDocID: t.ProjectDocID,
				ProjectID:    t.ProjectID,
				ProjectName:  t.ProjectName,
				ProjectPrazo: t.ProjectPrazo,
			})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	return groups
}

// Stats are the dashboard counters over a (possibly filtered) task
// list. Recomputed from scratch on every build or filter change.
type Stats struct {
	Total      int
	Pending    int
	InProgress int
	Done       int
	Scheduled  int
	Waiting    int
}

func Count(tasks []Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case store.StepPending:
			s.Pending++
		case store.StepInProgress:
			s.InProgress++
		case store.StepDone:
			s.Done++
		case store.StepScheduled:
			s.Scheduled++
		case store.StepWaiting:
			s.Waiting++
		}
	}
	return s
}

// PendingCount backs the badge indicator: tasks across all projects
// whose effective status is pending.
func PendingCount(projects []store.Project, overrides store.TasksState) int {
	count := 0
	for _, t := range Build(projects, overrides) {
		if t.Status == store.StepPending {
			count++
		}
	}
	return count
}

// Aggregator routes task mutations back to the store. All step-level
// edits persist the owning project's whole array; the store offers no
// finer granularity for embedded lists.
type Aggregator struct {
	store *store.Store
}

func New(s *store.Store) *Aggregator {
	return &Aggregator{store: s}
}

func findProject(projects []store.Project, docID string) (*store.Project, error) {
	for i := range projects {
		if projects[i].DocID == docID {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %s not found", docID)
}

// SetStatus updates one step's status and persists the full step
// array. A legacy bare-string step is upgraded to the object form in
// place; the other elements are written back untouched.
func (a *Aggregator) SetStatus(projects []store.Project, taskID, newStatus string, now time.Time) error {
	docID, index, err := SplitTaskID(taskID)
	if err != nil {
		return err
	}
	p, err := findProject(projects, docID)
	if err != nil {
		return err
	}
	if index >= len(p.Steps) {
		return fmt.Errorf("step %d out of range for project %s", index, docID)
	}

	steps := append([]store.Step(nil), p.Steps...)
	steps[index].SetStatus(newStatus, now)
	if err := a.store.SaveSteps(docID, steps); err != nil {
		return err
	}
	p.Steps = steps
	return nil
}

// SetWaiting marks a step as waiting on a named party. The wait-start
// timestamp is preserved when the step was already waiting.
func (a *Aggregator) SetWaiting(projects []store.Project, taskID, waitingOn string, now time.Time) error {
	docID, index, err := SplitTaskID(taskID)
	if err != nil {
		return err
	}
	p, err := findProject(projects, docID)
	if err != nil {
		return err
	}
	if index >= len(p.Steps) {
		return fmt.Errorf("step %d out of range for project %s", index, docID)
	}

	steps := append([]store.Step(nil), p.Steps...)
	steps[index].SetStatus(store.StepWaiting, now)
	steps[index].Aguardando = waitingOn
	if err := a.store.SaveSteps(docID, steps); err != nil {
		return err
	}
	p.Steps = steps
	return nil
}

// Schedule records a scheduled date/time for a task in the legacy
// override document and marks its effective status "agendado". The
// calendar deep-link open that usually follows is the caller's
// fire-and-forget concern, never part of this write.
func (a *Aggregator) Schedule(taskID, date, timeOfDay string) error {
	ts, err := a.store.GetTasksState()
	if err != nil {
		return err
	}
	ts[taskID] = store.TaskOverride{
		Status:        store.StepScheduled,
		ScheduledDate: date,
		ScheduledTime: timeOfDay,
	}
	return a.store.SaveTasksState(ts)
}

// ToggleDone flips a task between done and pending. A step carrying
// its own status is flipped in place and the full array persisted,
// since an override would lose to it on the next build. Only a step
// without its own status goes through the legacy override document,
// where its effective status actually comes from.
func (a *Aggregator) ToggleDone(projects []store.Project, taskID string, now time.Time) (string, error) {
	docID, index, err := SplitTaskID(taskID)
	if err != nil {
		return "", err
	}
	p, err := findProject(projects, docID)
	if err != nil {
		return "", err
	}
	if index >= len(p.Steps) {
		return "", fmt.Errorf("step %d out of range for project %s", index, docID)
	}

	if p.Steps[index].HasStatus() {
		next := store.StepDone
		if p.Steps[index].Status == store.StepDone {
			next = store.StepPending
		}
		steps := append([]store.Step(nil), p.Steps...)
		steps[index].SetStatus(next, now)
		if err := a.store.SaveSteps(docID, steps); err != nil {
			return "", err
		}
		p.Steps = steps
		return next, nil
	}

	ts, err := a.store.GetTasksState()
	if err != nil {
		return "", err
	}
	next := store.StepDone
	if ts[taskID].Status == store.StepDone {
		next = store.StepPending
	}
	ts[taskID] = store.TaskOverride{Status: next}
	if err := a.store.SaveTasksState(ts); err != nil {
		return "", err
	}
	return next, nil
}

// List kinds accepted by DeleteAt and ClearAll.
const (
	KindSteps = "proximos_passos"
	KindMetas = "metas"
)

// DeleteAt removes one element from a project's step or goal list and
// persists the spliced array.
func (a *Aggregator) DeleteAt(projects []store.Project, docID, kind string, index int) error {
	p, err := findProject(projects, docID)
	if err != nil {
		return err
	}
	switch kind {
	case KindSteps:
		if index < 0 || index >= len(p.Steps) {
			return fmt.Errorf("step %d out of range for project %s", index, docID)
		}
		steps := append([]store.Step(nil), p.Steps...)
		steps = append(steps[:index], steps[index+1:]...)
		if err := a.store.SaveSteps(docID, steps); err != nil {
			return err
		}
		p.Steps = steps
	case KindMetas:
		if index < 0 || index >= len(p.Metas) {
			return fmt.Errorf("meta %d out of range for project %s", index, docID)
		}
		metas := append([]string(nil), p.Metas...)
		metas = append(metas[:index], metas[index+1:]...)
		if err := a.store.SaveMetas(docID, metas); err != nil {
			return err
		}
		p.Metas = metas
	default:
		return fmt.Errorf("unknown list kind %q", kind)
	}
	return nil
}

// ClearAll empties a project's step or goal list by persisting an
// empty array.
func (a *Aggregator) ClearAll(projects []store.Project, docID, kind string) error {
	p, err := findProject(projects, docID)
	if err != nil {
		return err
	}
	switch kind {
	case KindSteps:
		if err := a.store.SaveSteps(docID, []store.Step{}); err != nil {
			return err
		}
		p.Steps = nil
	case KindMetas:
		if err := a.store.SaveMetas(docID, []string{}); err != nil {
			return err
		}
		p.Metas = nil
	default:
		return fmt.Errorf("unknown list kind %q", kind)
	}
	return nil
}
