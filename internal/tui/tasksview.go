package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rmcastelo/painel/internal/calendar"
	"github.com/rmcastelo/painel/internal/store"
	"github.com/rmcastelo/painel/internal/tasks"
)

// statusCycle is the order the space key walks through.
var statusCycle = []string{store.StepPending, store.StepInProgress, store.StepDone}

var statusFilters = []string{
	tasks.FilterAll,
	store.StepPending,
	store.StepInProgress,
	store.StepScheduled,
	store.StepWaiting,
	store.StepDone,
}

type tasksModel struct {
	agg    *tasks.Aggregator
	width  int
	height int

	projects []store.Project
	all      []tasks.Task
	filtered []tasks.Task
	cursor   int

	statusFilter  string
	projectFilter string

	formActive bool
	form       *huh.Form
	formType   string // "schedule", "waiting"

	formDate     *string
	formTime     *string
	formCalendar *bool
	formWaiting  *string

	formTaskID  string
	formProject string
	formText    string
}

func newTasksModel(agg *tasks.Aggregator) tasksModel {
	date, timeOfDay, waiting := "", "", ""
	cal := false
	return tasksModel{
		agg:           agg,
		statusFilter:  tasks.FilterAll,
		projectFilter: tasks.FilterAll,
		formDate:      &date,
		formTime:      &timeOfDay,
		formCalendar:  &cal,
		formWaiting:   &waiting,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t *tasksModel) setData(projects []store.Project, all []tasks.Task) {
	t.projects = projects
	t.all = all
	t.applyFilters()
}

func (t *tasksModel) applyFilters() {
	t.filtered = tasks.Filter(t.all, t.projectFilter, t.statusFilter)
	if t.cursor >= len(t.filtered) {
		t.cursor = max(0, len(t.filtered)-1)
	}
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	msg2, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}

	switch {
	case key.Matches(msg2, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg2, keys.Down):
		if t.cursor < len(t.filtered)-1 {
			t.cursor++
		}
	case key.Matches(msg2, keys.Filter):
		t.statusFilter = nextIn(statusFilters, t.statusFilter)
		t.applyFilters()
	case msg2.String() == "p":
		t.projectFilter = t.nextProjectFilter()
		t.applyFilters()
	case key.Matches(msg2, keys.Toggle):
		if task, ok := t.current(); ok {
			return t, t.cycleStatus(task)
		}
	case key.Matches(msg2, keys.Enter):
		if task, ok := t.current(); ok {
			return t, t.toggleDone(task)
		}
	case msg2.String() == "w":
		if task, ok := t.current(); ok {
			return t.showWaitingForm(task)
		}
	case key.Matches(msg2, keys.Schedule):
		if task, ok := t.current(); ok {
			return t.showScheduleForm(task)
		}
	}
	return t, nil
}

func (t tasksModel) current() (tasks.Task, bool) {
	if t.cursor < len(t.filtered) {
		return t.filtered[t.cursor], true
	}
	return tasks.Task{}, false
}

func nextIn(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func (t tasksModel) nextProjectFilter() string {
	ids := []string{tasks.FilterAll}
	for _, p := range t.projects {
		ids = append(ids, p.DocID)
	}
	return nextIn(ids, t.projectFilter)
}

func (t tasksModel) cycleStatus(task tasks.Task) tea.Cmd {
	next := nextIn(statusCycle, task.Status)
	projects := t.projects
	agg := t.agg
	return func() tea.Msg {
		if err := agg.SetStatus(projects, task.ID, next, time.Now().UTC()); err != nil {
			return statusCmdError(fmt.Sprintf("Status error: %v", err))
		}
		return nil
	}
}

func (t tasksModel) toggleDone(task tasks.Task) tea.Cmd {
	agg := t.agg
	projects := t.projects
	id := task.ID
	return func() tea.Msg {
		if _, err := agg.ToggleDone(projects, id, time.Now().UTC()); err != nil {
			return statusCmdError(fmt.Sprintf("Toggle error: %v", err))
		}
		return nil
	}
}

func (t tasksModel) showWaitingForm(task tasks.Task) (tasksModel, tea.Cmd) {
	*t.formWaiting = task.Aguardando
	t.formType = "waiting"
	t.formTaskID = task.ID
	t.formText = task.Texto

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Waiting on").Value(t.formWaiting),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) showScheduleForm(task tasks.Task) (tasksModel, tea.Cmd) {
	*t.formDate = task.ScheduledDate
	if *t.formDate == "" {
		*t.formDate = time.Now().Format("2006-01-02")
	}
	*t.formTime = task.ScheduledTime
	*t.formCalendar = false
	t.formType = "schedule"
	t.formTaskID = task.ID
	t.formProject = task.ProjectName
	t.formText = task.Texto

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(t.formDate).
				Validate(func(s string) error {
					if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewInput().Title("Time (HH:MM, optional)").Value(t.formTime).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					if _, err := time.Parse("15:04", s); err != nil {
						return fmt.Errorf("use HH:MM")
					}
					return nil
				}),
			huh.NewConfirm().Title("Open in Google Calendar?").Value(t.formCalendar),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		switch t.formType {
		case "waiting":
			return t, t.submitWaiting()
		case "schedule":
			return t, t.submitSchedule()
		}
	}

	return t, cmd
}

func (t tasksModel) submitWaiting() tea.Cmd {
	who := strings.TrimSpace(*t.formWaiting)
	projects := t.projects
	agg := t.agg
	id := t.formTaskID
	return func() tea.Msg {
		if err := agg.SetWaiting(projects, id, who, time.Now().UTC()); err != nil {
			return statusCmdError(fmt.Sprintf("Waiting error: %v", err))
		}
		if who == "" {
			return statusCmdText("Waiting cleared")
		}
		return statusCmdText("Waiting on " + who)
	}
}

// submitSchedule persists the override first; the calendar launch is
// fire-and-forget on top of the already-saved schedule.
func (t tasksModel) submitSchedule() tea.Cmd {
	date := strings.TrimSpace(*t.formDate)
	timeOfDay := strings.TrimSpace(*t.formTime)
	openCal := *t.formCalendar
	agg := t.agg
	id := t.formTaskID
	project := t.formProject
	text := t.formText
	return func() tea.Msg {
		if err := agg.Schedule(id, date, timeOfDay); err != nil {
			return statusCmdError(fmt.Sprintf("Schedule error: %v", err))
		}
		if openCal {
			url, err := calendar.EventURL(calendar.TaskEvent(project, text, date, timeOfDay))
			if err != nil {
				return statusCmdError(fmt.Sprintf("Calendar error: %v", err))
			}
			calendar.Open(url)
		}
		return statusCmdText("Scheduled for " + date)
	}
}

func (t tasksModel) view() string {
	if t.formActive && t.form != nil {
		title := titleStyle.Render("Schedule Task")
		if t.formType == "waiting" {
			title = titleStyle.Render("Waiting On")
		}
		sub := mutedStyle.Render(t.formText)
		content := lipgloss.JoinVertical(lipgloss.Left, title, sub, "", t.form.View())
		return panelStyle.Width(t.width - 4).Render(content)
	}

	w := t.width - 4
	stats := tasks.Count(t.all)

	title := titleStyle.Render("Tasks")
	statsLine := mutedStyle.Render(fmt.Sprintf(
		"  %d total · %d pending · %d in progress · %d scheduled · %d waiting · %d done",
		stats.Total, stats.Pending, stats.InProgress, stats.Scheduled, stats.Waiting, stats.Done))

	filterLine := mutedStyle.Render(fmt.Sprintf("  status: %s · project: %s",
		t.statusFilter, t.projectFilterName()))

	var rows []string
	rows = append(rows, title)
	rows = append(rows, statsLine)
	rows = append(rows, filterLine)
	rows = append(rows, "")

	if len(t.filtered) == 0 {
		rows = append(rows, mutedStyle.Render("  No tasks match the current filter."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	groups := tasks.GroupByProject(t.filtered)
	flat := 0
	for _, g := range groups {
		rows = append(rows, highlightStyle.Render(fmt.Sprintf("  %s (%d)", g.ProjectName, g.Count())))
		for _, task := range g.Tasks {
			cursor := "    "
			style := normalItemStyle
			if flat == t.cursor {
				cursor = "  > "
				style = selectedItemStyle
			}
			flat++

			icon := stepStatusIcon(task.Status)
			var extras []string
			if task.ScheduledDate != "" {
				extras = append(extras, "agendado "+task.ScheduledDate)
			}
			if task.Aguardando != "" {
				since := ""
				if task.AguardandoDesde != "" {
					since = " desde " + task.AguardandoDesde
				}
				extras = append(extras, "aguardando "+task.Aguardando+since)
			}
			if task.StepPrazo != "" {
				extras = append(extras, "prazo "+task.StepPrazo)
			}
			suffix := ""
			if len(extras) > 0 {
				suffix = mutedStyle.Render(" [" + strings.Join(extras, " · ") + "]")
			}

			rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, icon, truncate(task.Texto, w-24)))+suffix)
		}
		rows = append(rows, "")
	}

	rows = append(rows, mutedStyle.Render("  space: cycle status  enter: toggle done  s: schedule  w: waiting  f/p: filters"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t tasksModel) projectFilterName() string {
	if t.projectFilter == tasks.FilterAll {
		return tasks.FilterAll
	}
	for _, p := range t.projects {
		if p.DocID == t.projectFilter {
			return p.Nome
		}
	}
	return t.projectFilter
}
