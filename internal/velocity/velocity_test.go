package velocity

import (
	"strings"
	"testing"
	"time"

	"github.com/rmcastelo/painel/internal/store"
)

var now = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func projectUpdatedDaysAgo(days int, status string) store.Project {
	when := now.AddDate(0, 0, -days)
	return store.Project{Nome: "P", Status: status, UpdatedAt: &when}
}

// ============================================================
// Classify
// ============================================================

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want Class
	}{
		{0, Good},
		{6, Good},
		{7, Slow},
		{13, Slow},
		{14, Stagnant},
		{90, Stagnant},
	}
	for _, c := range cases {
		p := projectUpdatedDaysAgo(c.days, store.StatusInProgress)
		if got := Classify(p, now); got != c.want {
			t.Errorf("%d days: expected %s, got %s", c.days, c.want, got)
		}
	}
}

func TestClassifyNoTimestamp(t *testing.T) {
	p := store.Project{Nome: "Sem data", Status: store.StatusInProgress}
	if Classify(p, now) != Stagnant {
		t.Fatal("a project with no timestamp is stagnant")
	}
}

func TestClassifyFallsBackToCreatedAt(t *testing.T) {
	created := now.AddDate(0, 0, -2)
	p := store.Project{Nome: "Novo", CreatedAt: &created}
	if Classify(p, now) != Good {
		t.Fatal("createdAt should vouch for a fresh project")
	}
}

func TestDaysSince(t *testing.T) {
	p := projectUpdatedDaysAgo(10, store.StatusInProgress)
	days, ok := DaysSince(p, now)
	if !ok || days != 10 {
		t.Fatalf("expected 10 days, got %d (%v)", days, ok)
	}

	if _, ok := DaysSince(store.Project{}, now); ok {
		t.Fatal("no timestamp means no day count")
	}
}

// ============================================================
// StagnantProjects
// ============================================================

func TestStagnantProjectsFiltersByStatus(t *testing.T) {
	projects := []store.Project{
		projectUpdatedDaysAgo(30, store.StatusInProgress),
		projectUpdatedDaysAgo(30, store.StatusPlanned),
		projectUpdatedDaysAgo(30, store.StatusCompleted),
		projectUpdatedDaysAgo(30, store.StatusSuspended),
		projectUpdatedDaysAgo(30, store.StatusNotStarted),
		projectUpdatedDaysAgo(2, store.StatusInProgress),
	}
	got := StagnantProjects(projects, now)
	if len(got) != 2 {
		t.Fatalf("only stale active work counts, expected 2, got %d", len(got))
	}
}

// ============================================================
// Alert
// ============================================================

func TestAlertFiresOnce(t *testing.T) {
	var a Alert
	stagnant := []store.Project{
		{Nome: "Um", Status: store.StatusInProgress},
		{Nome: "Dois", Status: store.StatusInProgress},
	}

	msg, ok := a.Take(stagnant)
	if !ok {
		t.Fatal("first take should fire")
	}
	if !strings.Contains(msg, "2 stagnant project(s)") || !strings.Contains(msg, "Um") {
		t.Fatalf("unexpected message: %q", msg)
	}

	if _, ok := a.Take(stagnant); ok {
		t.Fatal("second take must not fire")
	}
}

func TestAlertEmptyListNeverFires(t *testing.T) {
	var a Alert
	if _, ok := a.Take(nil); ok {
		t.Fatal("empty list should not fire")
	}
	// An empty take must not burn the one shot.
	if _, ok := a.Take([]store.Project{{Nome: "Um"}}); !ok {
		t.Fatal("alert should still be armed after empty takes")
	}
}

func TestAlertTruncatesNames(t *testing.T) {
	var a Alert
	stagnant := []store.Project{
		{Nome: "A"}, {Nome: "B"}, {Nome: "C"}, {Nome: "D"}, {Nome: "E"},
	}
	msg, _ := a.Take(stagnant)
	if !strings.Contains(msg, "and 2 more") {
		t.Fatalf("expected truncation note, got %q", msg)
	}
	if strings.Contains(msg, "D") {
		t.Fatalf("only the first three names should appear, got %q", msg)
	}
}
