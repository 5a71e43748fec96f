package tui

import (
	"time"

	"github.com/rmcastelo/painel/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewProjects
	viewTasks
	viewReminders
	viewSettings
)

var viewNames = []string{"Dashboard", "Projects", "Tasks", "Reminders", "Settings"}

// --- Messages ---

// projectsSnapshotMsg carries a full projects snapshot, already run
// through the id reconciler. repairFailed means the repair batch did
// not land; the ids in the snapshot are patched in memory only.
type projectsSnapshotMsg struct {
	projects     []store.Project
	repaired     int
	repairFailed bool
}

type remindersSnapshotMsg struct {
	reminders []store.Reminder
}

type tasksStateSnapshotMsg struct {
	state store.TasksState
}

type settingsLoadedMsg struct {
	settings store.Settings
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

type tickMsg time.Time

// --- Helpers ---

func statusCmdText(text string) statusMsg  { return statusMsg{text: text} }
func statusCmdError(text string) statusMsg { return statusMsg{text: text, isError: true} }

// shortPrazo renders a project deadline for table cells.
func shortPrazo(prazo string) string {
	if prazo == "" {
		return "-"
	}
	return prazo
}

// stepStatusIcon maps a task's effective status to its marker.
func stepStatusIcon(status string) string {
	switch status {
	case store.StepInProgress:
		return "◐"
	case store.StepDone:
		return "✓"
	case store.StepScheduled:
		return "◷"
	case store.StepWaiting:
		return "⏸"
	default:
		return "·"
	}
}

// projectStatuses lists the selectable project states in form order.
var projectStatuses = []string{
	store.StatusNotStarted,
	store.StatusPlanned,
	store.StatusInProgress,
	store.StatusCompleted,
	store.StatusSuspended,
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
