package notify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rmcastelo/painel/internal/store"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newFlags(t *testing.T) *Flags {
	t.Helper()
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func project(docID, nome, prazo string) store.Project {
	return store.Project{DocID: docID, Nome: nome, Status: store.StatusInProgress, Prazo: prazo}
}

// ============================================================
// Flags persistence
// ============================================================

func TestLoadMissingFile(t *testing.T) {
	f, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if f == nil {
		t.Fatal("expected empty flags")
	}
}

func TestFlagsPersistAcrossLoads(t *testing.T) {
	dir := t.TempDir()
	f, _ := Load(dir)

	projects := []store.Project{project("a", "Hoje", "28/08/2026")}
	if got := DeadlineNotices(projects, store.DefaultSettings(), f, now); len(got) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(got))
	}

	// A fresh load sees the persisted flag and stays quiet.
	f2, _ := Load(dir)
	if got := DeadlineNotices(projects, store.DefaultSettings(), f2, now); len(got) != 0 {
		t.Fatalf("expected no repeat notice, got %d", len(got))
	}
}

func TestLoadCorruptFileStartsOver(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "notified.json"), []byte("not json"), 0o644)

	f, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	projects := []store.Project{project("a", "Hoje", "28/08/2026")}
	if got := DeadlineNotices(projects, store.DefaultSettings(), f, now); len(got) != 1 {
		t.Fatal("corrupt flags should reset, not fail")
	}
}

// ============================================================
// Deadline notices
// ============================================================

func TestDeadlineNoticesDistances(t *testing.T) {
	projects := []store.Project{
		project("overdue", "Atrasado", "25/08/2026"),
		project("today", "Hoje", "28/08/2026"),
		project("one", "Amanhã", "29/08/2026"),
		project("three", "Em três", "31/08/2026"),
		project("seven", "Em sete", "04/09/2026"),
		project("five", "Em cinco", "02/09/2026"), // not a notify distance
	}
	got := DeadlineNotices(projects, store.DefaultSettings(), newFlags(t), now)
	if len(got) != 5 {
		t.Fatalf("expected 5 notices, got %d", len(got))
	}
	if !strings.Contains(got[0].Text, "3 day(s) overdue") {
		t.Fatalf("unexpected overdue text: %q", got[0].Text)
	}
	if !strings.Contains(got[1].Text, "due today") {
		t.Fatalf("unexpected today text: %q", got[1].Text)
	}
}

func TestDeadlineNoticesOncePerDay(t *testing.T) {
	f := newFlags(t)
	projects := []store.Project{project("a", "Hoje", "28/08/2026")}

	if got := DeadlineNotices(projects, store.DefaultSettings(), f, now); len(got) != 1 {
		t.Fatal("first sweep should notify")
	}
	if got := DeadlineNotices(projects, store.DefaultSettings(), f, now); len(got) != 0 {
		t.Fatal("same-day repeat should be silent")
	}

	// The next day notifies again.
	tomorrow := now.AddDate(0, 0, 1)
	if got := DeadlineNotices(projects, store.DefaultSettings(), f, tomorrow); len(got) != 1 {
		t.Fatal("next day should notify again")
	}
}

func TestDeadlineNoticesHonorToggles(t *testing.T) {
	cfg := store.DefaultSettings()
	cfg.Notifications.DeadlineDay = false

	projects := []store.Project{project("a", "Hoje", "28/08/2026")}
	if got := DeadlineNotices(projects, cfg, newFlags(t), now); len(got) != 0 {
		t.Fatal("disabled toggle should silence the notice")
	}
}

func TestDeadlineNoticesSkipCompletedAndUnparseable(t *testing.T) {
	done := project("a", "Feito", "28/08/2026")
	done.Status = store.StatusCompleted
	projects := []store.Project{
		done,
		project("b", "Sem prazo", ""),
		project("c", "Texto livre", "no fim do mês"),
	}
	if got := DeadlineNotices(projects, store.DefaultSettings(), newFlags(t), now); len(got) != 0 {
		t.Fatalf("expected no notices, got %d", len(got))
	}
}

// ============================================================
// Reminder notices
// ============================================================

func TestReminderNoticesDueToday(t *testing.T) {
	reminders := []store.Reminder{
		{DocID: "r1", Title: "Ligar", Date: "2026-08-28", Time: "15:00", Notify: true},
		{DocID: "r2", Title: "Ontem", Date: "2026-08-27", Notify: true},
		{DocID: "r3", Title: "Amanhã", Date: "2026-08-29", Notify: true},
		{DocID: "r4", Title: "Feito", Date: "2026-08-28", Notify: true, Completed: true},
		{DocID: "r5", Title: "Silencioso", Date: "2026-08-28", Notify: false},
	}
	got := ReminderNotices(reminders, newFlags(t), now)
	if len(got) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(got))
	}
	if got[0].Text != "Ligar at 15:00" {
		t.Fatalf("unexpected text: %q", got[0].Text)
	}
}

func TestReminderNoticesOncePerDay(t *testing.T) {
	f := newFlags(t)
	reminders := []store.Reminder{
		{DocID: "r1", Title: "Ligar", Date: "2026-08-28", Notify: true},
	}
	if got := ReminderNotices(reminders, f, now); len(got) != 1 {
		t.Fatal("first sweep should notify")
	}
	if got := ReminderNotices(reminders, f, now); len(got) != 0 {
		t.Fatal("repeat should be silent")
	}
}
