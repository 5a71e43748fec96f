package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rmcastelo/painel/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func putRawProject(t *testing.T, s *store.Store, docID, raw string) {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad raw json: %v", err)
	}
	if err := s.Put(store.CollectionProjects, docID, v); err != nil {
		t.Fatalf("put project: %v", err)
	}
}

func listProjects(t *testing.T, s *store.Store) []store.Project {
	t.Helper()
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	return projects
}

// ============================================================
// Task ids
// ============================================================

func TestTaskIDRoundTrip(t *testing.T) {
	id := TaskID("doc-uuid", 3)
	docID, index, err := SplitTaskID(id)
	if err != nil {
		t.Fatal(err)
	}
	if docID != "doc-uuid" || index != 3 {
		t.Fatalf("round trip lost data: %s, %d", docID, index)
	}
}

func TestSplitTaskIDMalformed(t *testing.T) {
	for _, bad := range []string{"", "noseparator", "_5", "doc_", "doc_x", "doc_-1"} {
		if _, _, err := SplitTaskID(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

// ============================================================
// Build
// ============================================================

func TestBuildFlattensAllProjects(t *testing.T) {
	projects := []store.Project{
		{DocID: "a", ID: 1, Nome: "Alpha", Steps: []store.Step{{Texto: "a1"}, {Texto: "a2"}}},
		{DocID: "b", ID: 2, Nome: "Beta", Steps: []store.Step{{Texto: "b1"}}},
		{DocID: "c", ID: 3, Nome: "Sem passos"},
	}
	tasks := Build(projects, store.TasksState{})
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "a_0" || tasks[2].ID != "b_0" {
		t.Fatalf("unexpected ids: %s, %s", tasks[0].ID, tasks[2].ID)
	}
	if tasks[2].ProjectName != "Beta" || tasks[2].ProjectID != 2 {
		t.Fatalf("project context missing: %+v", tasks[2])
	}
}

func TestBuildEffectiveStatusPrecedence(t *testing.T) {
	projects := []store.Project{{
		DocID: "a", ID: 1, Nome: "Alpha",
		Steps: []store.Step{
			{Texto: "own", Status: store.StepInProgress}, // own status wins
			store.LegacyStep("legacy with override"),     // falls back to override
			{Texto: "naked"},                             // no status anywhere
		},
	}}
	overrides := store.TasksState{
		"a_0": {Status: store.StepDone}, // must lose to own status
		"a_1": {Status: store.StepDone},
	}

	tasks := Build(projects, overrides)
	if tasks[0].Status != store.StepInProgress {
		t.Fatalf("own status should win, got %q", tasks[0].Status)
	}
	if tasks[1].Status != store.StepDone {
		t.Fatalf("override should apply to legacy step, got %q", tasks[1].Status)
	}
	if tasks[2].Status != store.StepPending {
		t.Fatalf("default is pending, got %q", tasks[2].Status)
	}
}

func TestBuildScheduledOverride(t *testing.T) {
	projects := []store.Project{{
		DocID: "a", ID: 1, Nome: "Alpha",
		Steps: []store.Step{{Texto: "agendável"}},
	}}
	overrides := store.TasksState{
		"a_0": {Status: store.StepScheduled, ScheduledDate: "2026-09-01", ScheduledTime: "14:00"},
	}

	tasks := Build(projects, overrides)
	if tasks[0].Status != store.StepScheduled {
		t.Fatalf("expected agendado, got %q", tasks[0].Status)
	}
	if tasks[0].ScheduledDate != "2026-09-01" || tasks[0].ScheduledTime != "14:00" {
		t.Fatalf("schedule fields missing: %+v", tasks[0])
	}
}

func TestBuildProjectNameFallback(t *testing.T) {
	projects := []store.Project{{
		DocID: "a", ID: 7, Steps: []store.Step{{Texto: "x"}},
	}}
	tasks := Build(projects, store.TasksState{})
	if tasks[0].ProjectName != "Projeto 7" {
		t.Fatalf("expected fallback name, got %q", tasks[0].ProjectName)
	}
}

// ============================================================
// Filter, group, count
// ============================================================

func buildFixture() []Task {
	projects := []store.Project{
		{DocID: "a", ID: 1, Nome: "Alpha", Steps: []store.Step{
			{Texto: "a1", Status: store.StepPending},
			{Texto: "a2", Status: store.StepDone},
		}},
		{DocID: "b", ID: 2, Nome: "Beta", Steps: []store.Step{
			{Texto: "b1", Status: store.StepPending},
			{Texto: "b2", Status: store.StepWaiting, Aguardando: "Jurídico"},
		}},
	}
	return Build(projects, store.TasksState{})
}

func TestFilterByProject(t *testing.T) {
	got := Filter(buildFixture(), "b", FilterAll)
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks for project b, got %d", len(got))
	}
}

func TestFilterByStatus(t *testing.T) {
	got := Filter(buildFixture(), FilterAll, store.StepPending)
	if len(got) != 2 {
		t.Fatalf("expected 2 pending tasks, got %d", len(got))
	}
}

func TestFilterComposesWithAnd(t *testing.T) {
	got := Filter(buildFixture(), "a", store.StepPending)
	if len(got) != 1 || got[0].ID != "a_0" {
		t.Fatalf("expected only a_0, got %+v", got)
	}
}

func TestFilterAllIsWildcard(t *testing.T) {
	all := buildFixture()
	if len(Filter(all, FilterAll, FilterAll)) != len(all) {
		t.Fatal("todos/todos should keep everything")
	}
	if len(Filter(all, "", "")) != len(all) {
		t.Fatal("empty filters should keep everything")
	}
}

func TestGroupByProjectPreservesOrder(t *testing.T) {
	groups := GroupByProject(buildFixture())
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].ProjectName != "Alpha" || groups[1].ProjectName != "Beta" {
		t.Fatalf("first-seen order lost: %s, %s", groups[0].ProjectName, groups[1].ProjectName)
	}
	if groups[0].Count() != 2 {
		t.Fatalf("expected 2 tasks in Alpha, got %d", groups[0].Count())
	}
}

func TestCount(t *testing.T) {
	stats := Count(buildFixture())
	if stats.Total != 4 || stats.Pending != 2 || stats.Done != 1 || stats.Waiting != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPendingCount(t *testing.T) {
	projects := []store.Project{
		{DocID: "a", ID: 1, Nome: "Alpha", Steps: []store.Step{
			{Texto: "a1"}, // pending by default
			{Texto: "a2", Status: store.StepDone},
		}},
	}
	if got := PendingCount(projects, store.TasksState{}); got != 1 {
		t.Fatalf("expected 1 pending, got %d", got)
	}

	// An override can clear the pending badge without touching the step.
	overrides := store.TasksState{"a_0": {Status: store.StepDone}}
	if got := PendingCount(projects, overrides); got != 0 {
		t.Fatalf("expected 0 pending, got %d", got)
	}
}

// ============================================================
// Aggregator mutations
// ============================================================

func TestSetStatusPersistsWholeArray(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","proximos_passos":[{"texto":"um"},{"texto":"dois"}]}`)
	projects := listProjects(t, s)

	if err := agg.SetStatus(projects, "a_1", store.StepInProgress, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetProject("a")
	if got.Steps[1].Status != store.StepInProgress {
		t.Fatalf("status not persisted: %+v", got.Steps[1])
	}
	if got.Steps[0].Status != "" {
		t.Fatalf("sibling step must stay untouched: %+v", got.Steps[0])
	}
	// The in-memory project is patched too.
	if projects[0].Steps[1].Status != store.StepInProgress {
		t.Fatal("in-memory copy should reflect the write")
	}
}

func TestSetStatusUpgradesLegacySiblingStaysString(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","proximos_passos":["antigo um","antigo dois"]}`)
	projects := listProjects(t, s)

	if err := agg.SetStatus(projects, "a_0", store.StepDone, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	d, _ := s.Get(store.CollectionProjects, "a")
	var raw struct {
		Steps []json.RawMessage `json:"proximos_passos"`
	}
	json.Unmarshal(d.Data, &raw)
	if raw.Steps[0][0] != '{' {
		t.Fatalf("edited step should become an object, got %s", raw.Steps[0])
	}
	if string(raw.Steps[1]) != `"antigo dois"` {
		t.Fatalf("sibling must keep the bare-string form, got %s", raw.Steps[1])
	}
}

func TestSetStatusUnknownProject(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	err := agg.SetStatus(nil, "ghost_0", store.StepDone, time.Now())
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestSetStatusIndexOutOfRange(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","proximos_passos":[{"texto":"um"}]}`)
	projects := listProjects(t, s)

	if err := agg.SetStatus(projects, "a_5", store.StepDone, time.Now()); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestSetWaitingStampsAndPreserves(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","proximos_passos":[{"texto":"esperar"}]}`)
	projects := listProjects(t, s)

	first := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	if err := agg.SetWaiting(projects, "a_0", "Financeiro", first); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetProject("a")
	if got.Steps[0].Aguardando != "Financeiro" {
		t.Fatalf("waiting party not persisted: %+v", got.Steps[0])
	}
	stamp := got.Steps[0].AguardandoDesde
	if stamp == "" {
		t.Fatal("waiting-since should be stamped")
	}

	// Changing the party while still waiting keeps the stamp.
	later := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	projects = listProjects(t, s)
	if err := agg.SetWaiting(projects, "a_0", "Jurídico", later); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetProject("a")
	if got.Steps[0].AguardandoDesde != stamp {
		t.Fatalf("stamp should be preserved across waiting edits, got %q", got.Steps[0].AguardandoDesde)
	}
	if got.Steps[0].Aguardando != "Jurídico" {
		t.Fatalf("party should update, got %q", got.Steps[0].Aguardando)
	}
}

func TestScheduleWritesOverride(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)

	if err := agg.Schedule("a_0", "2026-09-01", "14:00"); err != nil {
		t.Fatal(err)
	}

	ts, _ := s.GetTasksState()
	o := ts["a_0"]
	if o.Status != store.StepScheduled || o.ScheduledDate != "2026-09-01" || o.ScheduledTime != "14:00" {
		t.Fatalf("unexpected override: %+v", o)
	}
}

func TestToggleDoneStepWithOwnStatus(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","proximos_passos":[{"texto":"um","status":"pendente"},{"texto":"dois","status":"pendente"}]}`)
	projects := listProjects(t, s)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	next, err := agg.ToggleDone(projects, "a_0", now)
	if err != nil {
		t.Fatal(err)
	}
	if next != store.StepDone {
		t.Fatalf("first toggle should mark done, got %q", next)
	}

	// The step itself is flipped; a reloaded build must see it done,
	// and the sibling stays untouched.
	reloaded := listProjects(t, s)
	ts, _ := s.GetTasksState()
	tasks := Build(reloaded, ts)
	if tasks[0].Status != store.StepDone {
		t.Fatalf("effective status should be done after toggle, got %q", tasks[0].Status)
	}
	if tasks[1].Status != store.StepPending {
		t.Fatalf("sibling should stay pending, got %q", tasks[1].Status)
	}

	next, err = agg.ToggleDone(reloaded, "a_0", now)
	if err != nil {
		t.Fatal(err)
	}
	if next != store.StepPending {
		t.Fatalf("second toggle should mark pending, got %q", next)
	}
	got, _ := s.GetProject("a")
	if got.Steps[0].Status != store.StepPending {
		t.Fatalf("step should be pending again, got %q", got.Steps[0].Status)
	}
}

func TestToggleDoneStatuslessStepUsesOverride(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","proximos_passos":["ligar fornecedor"]}`)
	projects := listProjects(t, s)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	next, err := agg.ToggleDone(projects, "a_0", now)
	if err != nil {
		t.Fatal(err)
	}
	if next != store.StepDone {
		t.Fatalf("first toggle should mark done, got %q", next)
	}

	// The legacy step stays bare; the override carries the status and
	// wins the effective-status fallback.
	got, _ := s.GetProject("a")
	if !got.Steps[0].IsLegacy() {
		t.Fatal("statusless step should not be rewritten by the toggle")
	}
	ts, _ := s.GetTasksState()
	if ts["a_0"].Status != store.StepDone {
		t.Fatalf("override should carry done, got %q", ts["a_0"].Status)
	}
	tasks := Build(listProjects(t, s), ts)
	if tasks[0].Status != store.StepDone {
		t.Fatalf("effective status should be done, got %q", tasks[0].Status)
	}

	next, _ = agg.ToggleDone(projects, "a_0", now)
	if next != store.StepPending {
		t.Fatalf("second toggle should mark pending, got %q", next)
	}
}

func TestToggleDoneUnknownProject(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)

	if _, err := agg.ToggleDone(nil, "ghost_0", time.Now()); err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestDeleteAtStep(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","proximos_passos":[{"texto":"um"},{"texto":"dois"},{"texto":"três"}]}`)
	projects := listProjects(t, s)

	if err := agg.DeleteAt(projects, "a", KindSteps, 1); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetProject("a")
	if len(got.Steps) != 2 || got.Steps[0].Texto != "um" || got.Steps[1].Texto != "três" {
		t.Fatalf("unexpected steps after splice: %+v", got.Steps)
	}
}

func TestDeleteAtMeta(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","metas":["m1","m2"]}`)
	projects := listProjects(t, s)

	if err := agg.DeleteAt(projects, "a", KindMetas, 0); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetProject("a")
	if len(got.Metas) != 1 || got.Metas[0] != "m2" {
		t.Fatalf("unexpected metas: %+v", got.Metas)
	}
}

func TestDeleteAtOutOfRange(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","metas":["m1"]}`)
	projects := listProjects(t, s)

	if err := agg.DeleteAt(projects, "a", KindMetas, 5); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if err := agg.DeleteAt(projects, "a", "outra", 0); err == nil {
		t.Fatal("expected unknown-kind error")
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	agg := New(s)
	putRawProject(t, s, "a", `{"id":1,"nome":"Alpha","proximos_passos":[{"texto":"um"}],"metas":["m1"]}`)
	projects := listProjects(t, s)

	if err := agg.ClearAll(projects, "a", KindSteps); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetProject("a")
	if len(got.Steps) != 0 {
		t.Fatalf("steps should be empty, got %+v", got.Steps)
	}
	if len(got.Metas) != 1 {
		t.Fatal("metas must survive a steps clear")
	}

	if err := agg.ClearAll(projects, "a", KindMetas); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetProject("a")
	if len(got.Metas) != 0 {
		t.Fatalf("metas should be empty, got %+v", got.Metas)
	}
}
