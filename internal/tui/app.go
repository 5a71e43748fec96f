package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rmcastelo/painel/internal/export"
	"github.com/rmcastelo/painel/internal/kpi"
	"github.com/rmcastelo/painel/internal/notify"
	"github.com/rmcastelo/painel/internal/reconcile"
	"github.com/rmcastelo/painel/internal/store"
	"github.com/rmcastelo/painel/internal/tasks"
	"github.com/rmcastelo/painel/internal/velocity"
)

// App is the root Bubble Tea model. It owns the store subscriptions
// and pushes each snapshot down into the views, so every view renders
// from the same data the moment anything changes.
type App struct {
	store *store.Store
	rec   *reconcile.Reconciler
	agg   *tasks.Aggregator
	flags *notify.Flags
	alert *velocity.Alert

	subProjects  *store.Subscription
	subReminders *store.Subscription
	subState     *store.Subscription

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	projects  []store.Project
	reminders []store.Reminder
	taskState store.TasksState
	settings  store.Settings
	taskList  []tasks.Task

	dashboard dashboardModel
	projList  projectsModel
	taskView  tasksModel
	remView   remindersModel
	settView  settingsModel

	help          help.Model
	status        string
	statusIsError bool
	statusIsWarn  bool
}

func NewApp(s *store.Store) App {
	h := help.New()
	h.ShowAll = false

	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	flags, err := notify.Load(filepath.Join(dir, "painel"))
	if err != nil {
		flags, _ = notify.Load(os.TempDir())
	}

	agg := tasks.New(s)
	return App{
		store:        s,
		rec:          reconcile.New(s),
		agg:          agg,
		flags:        flags,
		alert:        &velocity.Alert{},
		subProjects:  s.Watch(store.CollectionProjects),
		subReminders: s.Watch(store.CollectionReminders),
		subState:     s.Watch(store.CollectionTasksState),
		activeView:   viewDashboard,
		settings:     store.DefaultSettings(),
		taskState:    store.TasksState{},
		dashboard:    newDashboardModel(),
		projList:     newProjectsModel(s),
		taskView:     newTasksModel(agg),
		remView:      newRemindersModel(s),
		settView:     newSettingsModel(s),
		help:         h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.waitProjects(),
		a.waitReminders(),
		a.waitTasksState(),
		a.loadSettings(),
		tickCmd(),
	)
}

// tickCmd drives the periodic notification sweep; the flag file makes
// repeat sweeps idempotent within a day.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitProjects blocks on the projects subscription and runs the id
// reconciler over each snapshot before it reaches the UI.
func (a App) waitProjects() tea.Cmd {
	return func() tea.Msg {
		docs, ok := <-a.subProjects.Snapshots()
		if !ok {
			return nil
		}
		projects := store.DecodeProjects(docs)
		projects, repaired, err := a.rec.Run(projects)
		if err != nil {
			// Run already logged and patched in memory; show what we have.
			return projectsSnapshotMsg{projects: projects, repairFailed: true}
		}
		return projectsSnapshotMsg{projects: projects, repaired: repaired}
	}
}

func (a App) waitReminders() tea.Cmd {
	return func() tea.Msg {
		docs, ok := <-a.subReminders.Snapshots()
		if !ok {
			return nil
		}
		return remindersSnapshotMsg{reminders: store.DecodeReminders(docs)}
	}
}

func (a App) waitTasksState() tea.Cmd {
	return func() tea.Msg {
		docs, ok := <-a.subState.Snapshots()
		if !ok {
			return nil
		}
		return tasksStateSnapshotMsg{state: store.DecodeTasksState(docs)}
	}
}

func (a App) loadSettings() tea.Cmd {
	return func() tea.Msg {
		cfg, err := a.store.GetSettings()
		if err != nil {
			return statusCmdError(fmt.Sprintf("Settings error: %v", err))
		}
		return settingsLoadedMsg{settings: cfg}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.projList.setSize(a.width, contentHeight)
		a.taskView.setSize(a.width, contentHeight)
		a.remView.setSize(a.width, contentHeight)
		a.settView.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// Forms capture everything, including the tab keys.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewProjects
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReminders
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, nil
		}

	case projectsSnapshotMsg:
		a.projects = msg.projects
		a.rebuildDerived()
		var cmds []tea.Cmd
		cmds = append(cmds, a.waitProjects())
		if text, ok := a.alert.Take(velocity.StagnantProjects(a.projects, time.Now())); ok {
			a.status = text
			a.statusIsError = false
			a.statusIsWarn = true
		}
		// A failed repair outranks the stagnation warning.
		if msg.repairFailed {
			a.status = "Id repair failed; will retry on next change"
			a.statusIsError = true
			a.statusIsWarn = false
		} else if msg.repaired > 0 {
			cmds = append(cmds, func() tea.Msg {
				return statusCmdText(fmt.Sprintf("Repaired %d project id(s)", msg.repaired))
			})
		}
		cmds = append(cmds, a.noticeSweep())
		return a, tea.Batch(cmds...)

	case remindersSnapshotMsg:
		a.reminders = msg.reminders
		a.remView.setReminders(msg.reminders)
		return a, tea.Batch(a.waitReminders(), a.noticeSweep())

	case tasksStateSnapshotMsg:
		a.taskState = msg.state
		a.rebuildDerived()
		return a, a.waitTasksState()

	case settingsLoadedMsg:
		a.settings = msg.settings
		a.settView.setSettings(msg.settings)
		a.rebuildDerived()
		return a, nil

	case tickMsg:
		return a, tea.Batch(tickCmd(), a.noticeSweep())

	case statusMsg:
		a.status = msg.text
		a.statusIsError = msg.isError
		a.statusIsWarn = false
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusIsError = false
		a.statusIsWarn = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// rebuildDerived refreshes everything computed from the current
// snapshots: the task list, the dashboard counters, and each view's
// working copy of the data.
func (a *App) rebuildDerived() {
	now := time.Now()
	a.taskList = tasks.Build(a.projects, a.taskState)

	a.projList.setProjects(a.projects)
	a.taskView.setData(a.projects, a.taskList)
	a.dashboard.setData(a.projects, kpi.Compute(a.projects, a.settings, now), now)
	a.remView.setProjects(a.projects)
}

// noticeSweep evaluates deadline and reminder notices against the
// persisted flags; the first unseen notice becomes the status line.
func (a App) noticeSweep() tea.Cmd {
	projects := a.projects
	reminders := a.reminders
	cfg := a.settings
	flags := a.flags
	return func() tea.Msg {
		now := time.Now()
		notices := notify.DeadlineNotices(projects, cfg, flags, now)
		notices = append(notices, notify.ReminderNotices(reminders, flags, now)...)
		if len(notices) == 0 {
			return nil
		}
		texts := make([]string, len(notices))
		for i, n := range notices {
			texts[i] = n.Text
		}
		return statusCmdText(strings.Join(texts, " · "))
	}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewProjects:
		a.projList, cmd = a.projList.update(msg)
	case viewTasks:
		a.taskView, cmd = a.taskView.update(msg)
	case viewReminders:
		a.remView, cmd = a.remView.update(msg)
	case viewSettings:
		a.settView, cmd = a.settView.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewProjects:
		return a.projList.formActive
	case viewTasks:
		return a.taskView.formActive
	case viewReminders:
		return a.remView.formActive
	case viewSettings:
		return a.settView.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewProjects:
		content = a.projList.view()
	case viewTasks:
		content = a.taskView.view()
	case viewReminders:
		content = a.remView.view()
	case viewSettings:
		content = a.settView.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	pending := tasks.PendingCount(a.projects, a.taskState)

	var tabs []string
	for i, name := range viewNames {
		label := name
		if viewState(i) == viewTasks && pending > 0 {
			label = fmt.Sprintf("%s (%d)", name, pending)
		}
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("painel")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		switch {
		case a.statusIsError:
			status = errorStyle.Render(" " + a.status)
		case a.statusIsWarn:
			status = warningStyle.Render(" " + a.status)
		default:
			status = mutedStyle.Render(" " + a.status)
		}
	}

	left := footerStyle.Render(helpView)

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, status)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	projects := a.projects
	taskList := a.taskList
	return func() tea.Msg {
		fields := export.DefaultFields()
		groups := tasks.GroupByProject(taskList)

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("painel-export-%s.csv", dateStr))
			if err := export.ToCSV(projects, fields, groups, path); err != nil {
				return statusCmdError(fmt.Sprintf("CSV error: %v", err))
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("painel-export-%s.json", dateStr))
			if err := export.ToJSON(projects, fields, groups, path); err != nil {
				return statusCmdError(fmt.Sprintf("JSON error: %v", err))
			}
		}

		return exportDoneMsg{path: path}
	}
}
