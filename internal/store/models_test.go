package store

import (
	"encoding/json"
	"testing"
	"time"
)

// ============================================================
// Step wire format
// ============================================================

func TestStepUnmarshalBareString(t *testing.T) {
	var s Step
	if err := json.Unmarshal([]byte(`"fazer algo"`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Texto != "fazer algo" {
		t.Fatalf("expected texto, got %q", s.Texto)
	}
	if !s.IsLegacy() {
		t.Fatal("bare string should decode as legacy")
	}
	if s.HasStatus() {
		t.Fatal("legacy step has no status of its own")
	}
}

func TestStepUnmarshalObject(t *testing.T) {
	var s Step
	raw := `{"texto":"ligar","status":"em_andamento","prazo":"2026-09-01","responsavel":"Ana"}`
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatal(err)
	}
	if s.IsLegacy() {
		t.Fatal("object step is not legacy")
	}
	if !s.HasStatus() || s.Status != StepInProgress {
		t.Fatalf("unexpected status: %q", s.Status)
	}
	if s.Prazo != "2026-09-01" || s.Responsavel != "Ana" {
		t.Fatalf("unexpected fields: %+v", s)
	}
}

func TestStepObjectWithoutStatusDefersToOverride(t *testing.T) {
	var s Step
	if err := json.Unmarshal([]byte(`{"texto":"velho objeto"}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.IsLegacy() {
		t.Fatal("object form is not legacy")
	}
	if s.HasStatus() {
		t.Fatal("object without status field must defer to the override")
	}
}

func TestStepMarshalPreservesLegacyForm(t *testing.T) {
	s := LegacyStep("antigo")
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"antigo"` {
		t.Fatalf("legacy step should marshal as bare string, got %s", b)
	}
}

func TestStepMarshalObjectAfterMutation(t *testing.T) {
	s := LegacyStep("antigo")
	s.SetStatus(StepDone, time.Now())
	b, _ := json.Marshal(s)
	if b[0] != '{' {
		t.Fatalf("mutated step should marshal as object, got %s", b)
	}
	var back Step
	json.Unmarshal(b, &back)
	if back.Texto != "antigo" || back.Status != StepDone {
		t.Fatalf("round-trip lost data: %+v", back)
	}
}

// ============================================================
// Waiting-since semantics
// ============================================================

func TestSetStatusStampsWaitingSince(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	s := Step{Texto: "esperar"}
	s.SetStatus(StepWaiting, now)
	if s.AguardandoDesde != "2026-08-28T10:00:00Z" {
		t.Fatalf("expected stamp, got %q", s.AguardandoDesde)
	}
}

func TestSetStatusPreservesWaitingSince(t *testing.T) {
	first := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	later := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	s := Step{Texto: "esperar"}
	s.SetStatus(StepWaiting, first)
	stamp := s.AguardandoDesde

	// Re-marking an already-waiting step keeps the original stamp.
	s.SetStatus(StepWaiting, later)
	if s.AguardandoDesde != stamp {
		t.Fatalf("stamp should be preserved, got %q", s.AguardandoDesde)
	}
}

func TestSetStatusClearsWaitingOnLeave(t *testing.T) {
	now := time.Now()
	s := Step{Texto: "esperar"}
	s.SetStatus(StepWaiting, now)
	s.Aguardando = "Financeiro"

	s.SetStatus(StepInProgress, now)
	if s.Aguardando != "" || s.AguardandoDesde != "" {
		t.Fatalf("leaving waiting should clear both fields: %+v", s)
	}
}

func TestSetStatusUpgradesLegacy(t *testing.T) {
	s := LegacyStep("antigo")
	s.SetStatus(StepPending, time.Now())
	if s.IsLegacy() {
		t.Fatal("mutation should clear the legacy form")
	}
}

// ============================================================
// Project helpers
// ============================================================

func TestLastActivity(t *testing.T) {
	created := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	p := Project{CreatedAt: &created, UpdatedAt: &updated}
	if got := p.LastActivity(); !got.Equal(updated) {
		t.Fatalf("expected updatedAt, got %v", got)
	}

	p = Project{CreatedAt: &created}
	if got := p.LastActivity(); !got.Equal(created) {
		t.Fatalf("expected createdAt fallback, got %v", got)
	}

	p = Project{}
	if p.LastActivity() != nil {
		t.Fatal("no timestamps means nil")
	}
}

func TestParsePrazo(t *testing.T) {
	if _, ok := ParsePrazo("31/12/2026"); !ok {
		t.Fatal("DD/MM/YYYY should parse")
	}
	if _, ok := ParsePrazo("2026-12-31"); !ok {
		t.Fatal("YYYY-MM-DD should parse")
	}
	if _, ok := ParsePrazo(""); ok {
		t.Fatal("empty prazo is not a date")
	}
	if _, ok := ParsePrazo("amanhã"); ok {
		t.Fatal("free text is not a date")
	}

	d, _ := ParsePrazo("01/02/2026")
	if d.Day() != 1 || d.Month() != time.February {
		t.Fatalf("day/month order wrong: %v", d)
	}
}
