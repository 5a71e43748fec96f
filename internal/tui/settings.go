package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rmcastelo/painel/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings store.Settings

	formActive bool
	form       *huh.Form

	formYearGoal *string
	formOverdue  *bool
	formDay      *bool
	formOne      *bool
	formThree    *bool
	formSeven    *bool
}

func newSettingsModel(s *store.Store) settingsModel {
	yearGoal := "5"
	overdue, day, one, three, seven := true, true, true, true, true
	return settingsModel{
		store:        s,
		settings:     store.DefaultSettings(),
		formYearGoal: &yearGoal,
		formOverdue:  &overdue,
		formDay:      &day,
		formOne:      &one,
		formThree:    &three,
		formSeven:    &seven,
	}
}

func (m *settingsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *settingsModel) setSettings(cfg store.Settings) {
	m.settings = cfg
}

func (m settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
			return m.showForm()
		}
	}
	return m, nil
}

func (m settingsModel) showForm() (settingsModel, tea.Cmd) {
	*m.formYearGoal = strconv.Itoa(m.settings.YearGoal)
	*m.formOverdue = m.settings.Notifications.Overdue
	*m.formDay = m.settings.Notifications.DeadlineDay
	*m.formOne = m.settings.Notifications.Deadline1
	*m.formThree = m.settings.Notifications.Deadline3
	*m.formSeven = m.settings.Notifications.Deadline7

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Projects to complete this year").Value(m.formYearGoal).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 {
						return fmt.Errorf("enter a positive number")
					}
					return nil
				}),
			huh.NewConfirm().Title("Notify when overdue").Value(m.formOverdue),
			huh.NewConfirm().Title("Notify on deadline day").Value(m.formDay),
			huh.NewConfirm().Title("Notify 1 day before").Value(m.formOne),
			huh.NewConfirm().Title("Notify 3 days before").Value(m.formThree),
			huh.NewConfirm().Title("Notify 7 days before").Value(m.formSeven),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		goal, _ := strconv.Atoi(strings.TrimSpace(*m.formYearGoal))
		cfg := store.Settings{
			YearGoal: goal,
			Notifications: store.NotificationSettings{
				Overdue:     *m.formOverdue,
				DeadlineDay: *m.formDay,
				Deadline1:   *m.formOne,
				Deadline3:   *m.formThree,
				Deadline7:   *m.formSeven,
			},
		}
		m.settings = cfg
		s := m.store
		return m, tea.Batch(
			func() tea.Msg {
				if err := s.SaveSettings(cfg); err != nil {
					return statusCmdError(fmt.Sprintf("Settings error: %v", err))
				}
				return statusCmdText("Settings saved")
			},
			func() tea.Msg { return settingsLoadedMsg{settings: cfg} },
		)
	}

	return m, cmd
}

func (m settingsModel) view() string {
	if m.formActive && m.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Settings"), "", m.form.View())
		return panelStyle.Width(m.width - 4).Render(content)
	}

	w := m.width - 4

	onOff := func(b bool) string {
		if b {
			return successStyle.Render("on")
		}
		return mutedStyle.Render("off")
	}

	n := m.settings.Notifications
	var rows []string
	rows = append(rows, titleStyle.Render("Settings"))
	rows = append(rows, "")
	rows = append(rows, fmt.Sprintf("  %-32s %d", "Projects to complete this year", m.settings.YearGoal))
	rows = append(rows, "")
	rows = append(rows, titleStyle.Render("  Deadline notifications"))
	rows = append(rows, fmt.Sprintf("    %-30s %s", "Overdue", onOff(n.Overdue)))
	rows = append(rows, fmt.Sprintf("    %-30s %s", "On deadline day", onOff(n.DeadlineDay)))
	rows = append(rows, fmt.Sprintf("    %-30s %s", "1 day before", onOff(n.Deadline1)))
	rows = append(rows, fmt.Sprintf("    %-30s %s", "3 days before", onOff(n.Deadline3)))
	rows = append(rows, fmt.Sprintf("    %-30s %s", "7 days before", onOff(n.Deadline7)))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  e: edit"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
