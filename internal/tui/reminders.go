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
)

var recurrences = []string{
	store.RecurrenceNone,
	store.RecurrenceDaily,
	store.RecurrenceWeekly,
	store.RecurrenceBiweekly,
	store.RecurrenceMonthly,
}

type remindersModel struct {
	store  *store.Store
	width  int
	height int

	reminders []store.Reminder
	projects  []store.Project
	cursor    int

	formActive bool
	form       *huh.Form

	formTitle       *string
	formDescription *string
	formProjectID   *string
	formDate        *string
	formTime        *string
	formRecurrence  *string
	formEndDate     *string
	formNotify      *bool
	formCalendar    *bool
}

func newRemindersModel(s *store.Store) remindersModel {
	title, desc, projectID := "", "", ""
	date, timeOfDay, recurrence, endDate := "", "", store.RecurrenceNone, ""
	notify, cal := true, false
	return remindersModel{
		store:           s,
		formTitle:       &title,
		formDescription: &desc,
		formProjectID:   &projectID,
		formDate:        &date,
		formTime:        &timeOfDay,
		formRecurrence:  &recurrence,
		formEndDate:     &endDate,
		formNotify:      &notify,
		formCalendar:    &cal,
	}
}

func (r *remindersModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r *remindersModel) setReminders(reminders []store.Reminder) {
	r.reminders = reminders
	if r.cursor >= len(r.reminders) {
		r.cursor = max(0, len(r.reminders)-1)
	}
}

func (r *remindersModel) setProjects(projects []store.Project) {
	r.projects = projects
}

func (r remindersModel) update(msg tea.Msg) (remindersModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	msg2, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}

	switch {
	case key.Matches(msg2, keys.Up):
		if r.cursor > 0 {
			r.cursor--
		}
	case key.Matches(msg2, keys.Down):
		if r.cursor < len(r.reminders)-1 {
			r.cursor++
		}
	case key.Matches(msg2, keys.New):
		return r.showForm()
	case key.Matches(msg2, keys.Delete):
		if ordered := r.ordered(); r.cursor < len(ordered) {
			return r, r.deleteReminder(ordered[r.cursor].DocID)
		}
	case key.Matches(msg2, keys.Enter), key.Matches(msg2, keys.Toggle):
		if ordered := r.ordered(); r.cursor < len(ordered) {
			rem := ordered[r.cursor]
			return r, r.setCompleted(rem.DocID, !rem.Completed)
		}
	}
	return r, nil
}

// ordered returns reminders in display order: dated sections first,
// completed ones at the bottom.
func (r remindersModel) ordered() []store.Reminder {
	out := make([]store.Reminder, 0, len(r.reminders))
	for _, rem := range r.reminders {
		if !rem.Completed {
			out = append(out, rem)
		}
	}
	for _, rem := range r.reminders {
		if rem.Completed {
			out = append(out, rem)
		}
	}
	return out
}

func (r remindersModel) deleteReminder(docID string) tea.Cmd {
	s := r.store
	return func() tea.Msg {
		if err := s.DeleteReminder(docID); err != nil {
			return statusCmdError(fmt.Sprintf("Delete error: %v", err))
		}
		return statusCmdText("Reminder deleted")
	}
}

func (r remindersModel) setCompleted(docID string, completed bool) tea.Cmd {
	s := r.store
	return func() tea.Msg {
		if err := s.SetReminderCompleted(docID, completed); err != nil {
			return statusCmdError(fmt.Sprintf("Update error: %v", err))
		}
		return nil
	}
}

func (r remindersModel) showForm() (remindersModel, tea.Cmd) {
	*r.formTitle = ""
	*r.formDescription = ""
	*r.formProjectID = ""
	*r.formDate = time.Now().Format("2006-01-02")
	*r.formTime = ""
	*r.formRecurrence = store.RecurrenceNone
	*r.formEndDate = ""
	*r.formNotify = true
	*r.formCalendar = false

	projectOptions := []huh.Option[string]{huh.NewOption("(none)", "")}
	for _, p := range r.projects {
		projectOptions = append(projectOptions, huh.NewOption(p.Nome, p.DocID))
	}
	recurrenceOptions := make([]huh.Option[string], len(recurrences))
	for i, rec := range recurrences {
		recurrenceOptions[i] = huh.NewOption(rec, rec)
	}

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(r.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().Title("Description").Value(r.formDescription),
			huh.NewSelect[string]().Title("Project").Options(projectOptions...).Value(r.formProjectID),
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(r.formDate).
				Validate(func(s string) error {
					if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewInput().Title("Time (HH:MM, optional)").Value(r.formTime),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Recurrence").Options(recurrenceOptions...).Value(r.formRecurrence),
			huh.NewInput().Title("Repeat until (YYYY-MM-DD, for recurring)").Value(r.formEndDate),
			huh.NewConfirm().Title("Notify?").Value(r.formNotify),
			huh.NewConfirm().Title("Open in Google Calendar?").Value(r.formCalendar),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r remindersModel) updateForm(msg tea.Msg) (remindersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		return r, r.submit()
	}

	return r, cmd
}

func (r remindersModel) submit() tea.Cmd {
	rem := store.Reminder{
		Title:         strings.TrimSpace(*r.formTitle),
		Description:   strings.TrimSpace(*r.formDescription),
		ProjectID:     *r.formProjectID,
		Date:          strings.TrimSpace(*r.formDate),
		Time:          strings.TrimSpace(*r.formTime),
		Recurrence:    *r.formRecurrence,
		EndDate:       strings.TrimSpace(*r.formEndDate),
		Notify:        *r.formNotify,
		AddToCalendar: *r.formCalendar,
	}
	for _, p := range r.projects {
		if p.DocID == rem.ProjectID {
			rem.ProjectName = p.Nome
			break
		}
	}

	s := r.store
	return func() tea.Msg {
		count, err := s.CreateReminder(&rem)
		if err != nil {
			return statusCmdError(fmt.Sprintf("Reminder error: %v", err))
		}
		if rem.AddToCalendar {
			url, err := calendar.EventURL(calendar.Event{
				Title:       rem.Title,
				Date:        rem.Date,
				Time:        rem.Time,
				Description: rem.Description,
			})
			if err == nil {
				calendar.Open(url)
			}
		}
		if count > 0 {
			return statusCmdText(fmt.Sprintf("Reminder created with %d repeat(s)", count))
		}
		return statusCmdText("Reminder created")
	}
}

func (r remindersModel) view() string {
	if r.formActive && r.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("New Reminder"), "", r.form.View())
		return panelStyle.Width(r.width - 4).Render(content)
	}

	w := r.width - 4
	title := titleStyle.Render("Reminders")

	if len(r.reminders) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No reminders. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	today := time.Now().Format("2006-01-02")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	lastSection := ""
	for i, rem := range r.ordered() {
		section := sectionFor(rem, today)
		if section != lastSection {
			if lastSection != "" {
				rows = append(rows, "")
			}
			rows = append(rows, sectionStyle(section).Render("  "+section))
			lastSection = section
		}

		cursor := "    "
		style := normalItemStyle
		if i == r.cursor {
			cursor = "  > "
			style = selectedItemStyle
		}

		check := "☐"
		if rem.Completed {
			check = "☑"
		}

		var extras []string
		if rem.Time != "" {
			extras = append(extras, rem.Time)
		}
		if rem.ProjectName != "" {
			extras = append(extras, rem.ProjectName)
		}
		if rem.Recurrence != store.RecurrenceNone && rem.ParentID == "" {
			extras = append(extras, rem.Recurrence)
		}
		suffix := ""
		if len(extras) > 0 {
			suffix = mutedStyle.Render(" [" + strings.Join(extras, " · ") + "]")
		}

		line := fmt.Sprintf("%s%s %s  %s", cursor, check, rem.Date, truncate(rem.Title, w-28))
		rows = append(rows, style.Render(line)+suffix)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  d: delete  enter: toggle done"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func sectionFor(rem store.Reminder, today string) string {
	switch {
	case rem.Completed:
		return "Completed"
	case rem.Date < today:
		return "Overdue"
	case rem.Date == today:
		return "Today"
	default:
		return "Upcoming"
	}
}

func sectionStyle(section string) lipgloss.Style {
	switch section {
	case "Overdue":
		return errorStyle
	case "Today":
		return warningStyle
	case "Completed":
		return mutedStyle
	default:
		return highlightStyle
	}
}
