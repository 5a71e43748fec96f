package store

import (
	"encoding/json"
	"time"
)

// Project status values as persisted (display strings).
const (
	StatusNotStarted = "Não Iniciado"
	StatusPlanned    = "Planejado"
	StatusInProgress = "Em Andamento"
	StatusCompleted  = "Concluído"
	StatusSuspended  = "Suspenso"
)

// Step status values.
const (
	StepPending    = "pendente"
	StepInProgress = "em_andamento"
	StepWaiting    = "aguardando"
	StepDone       = "concluido"
)

// StepScheduled is only ever an effective task status coming from the
// tasksState override document, never a step's own status.
const StepScheduled = "agendado"

// Reminder recurrence rules.
const (
	RecurrenceNone     = "none"
	RecurrenceDaily    = "daily"
	RecurrenceWeekly   = "weekly"
	RecurrenceBiweekly = "biweekly"
	RecurrenceMonthly  = "monthly"
)

// Step is one entry of a project's proximos_passos list. Legacy data
// stores a step as a bare string; UnmarshalJSON accepts both forms and
// MarshalJSON writes the bare string back untouched until the step is
// first mutated, so rewriting the whole array only changes the
// elements that were actually edited.
type Step struct {
	Texto           string `json:"texto"`
	Status          string `json:"status,omitempty"`
	Prazo           string `json:"prazo"`
	Responsavel     string `json:"responsavel"`
	Aguardando      string `json:"aguardando,omitempty"`
	AguardandoDesde string `json:"aguardandoDesde,omitempty"`

	legacy bool
}

// LegacyStep builds a step in the bare-string wire form, as old data
// would deliver it.
func LegacyStep(text string) Step {
	return Step{Texto: text, legacy: true}
}

func (s *Step) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		*s = Step{Texto: text, legacy: true}
		return nil
	}
	type plain Step
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = Step(v)
	return nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	if s.legacy {
		return json.Marshal(s.Texto)
	}
	type plain Step
	return json.Marshal(plain(s))
}

// IsLegacy reports whether the step still carries the bare-string wire
// form.
func (s Step) IsLegacy() bool { return s.legacy }

// HasStatus reports whether the step carries its own status. Steps
// without one (legacy strings, or objects written before the status
// field existed) defer to the tasksState override.
func (s Step) HasStatus() bool { return !s.legacy && s.Status != "" }

// SetStatus moves the step to a new status, upgrading a legacy
// bare-string step to the object form. The waiting-since timestamp is
// stamped only on the transition into "aguardando" and preserved while
// the step stays there.
func (s *Step) SetStatus(status string, now time.Time) {
	if status == StepWaiting {
		if !(s.Status == StepWaiting && s.AguardandoDesde != "") {
			s.AguardandoDesde = now.UTC().Format(time.RFC3339)
		}
	} else {
		s.Aguardando = ""
		s.AguardandoDesde = ""
	}
	s.Status = status
	s.legacy = false
}

// SWOT holds the four free-text analysis fields.
type SWOT struct {
	Forcas        string `json:"forcas,omitempty"`
	Fraquezas     string `json:"fraquezas,omitempty"`
	Oportunidades string `json:"oportunidades,omitempty"`
	Ameacas       string `json:"ameacas,omitempty"`
}

// Attachment describes an uploaded file linked to a project. The bytes
// themselves live outside the document store; Caminho follows the
// projects/{docID}/{timestamp}_{filename} layout.
type Attachment struct {
	Nome    string `json:"nome"`
	Tipo    string `json:"tipo,omitempty"`
	Tamanho int64  `json:"tamanho,omitempty"`
	Caminho string `json:"caminho,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Project is a document in the projects collection. DocID is the
// opaque storage key; ID is the user-facing sequential number kept
// dense and unique by the reconciler.
type Project struct {
	DocID        string       `json:"-"`
	ID           int          `json:"id"`
	Nome         string       `json:"nome"`
	Status       string       `json:"status"`
	Progresso    int          `json:"progresso"`
	Prazo        string       `json:"prazo,omitempty"`
	Descricao    string       `json:"descricao,omitempty"`
	Objetivo     string       `json:"objetivo,omitempty"`
	Responsavel  string       `json:"responsavel,omitempty"`
	PassoCritico string       `json:"passoCritico,omitempty"`
	Steps        []Step       `json:"proximos_passos,omitempty"`
	Metas        []string     `json:"metas,omitempty"`
	SWOT         SWOT         `json:"swot,omitempty"`
	Arquivos     []Attachment `json:"arquivos,omitempty"`
	CreatedAt    *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time   `json:"updatedAt,omitempty"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
}

// LastActivity returns the most relevant activity timestamp: updatedAt
// when present, otherwise createdAt, otherwise nil.
func (p *Project) LastActivity() *time.Time {
	if p.UpdatedAt != nil {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// TaskOverride is a tasksState entry keyed by the synthetic task id.
// It predates the per-step status field and is read as a fallback
// only; the schedule path is the one place that still writes it.
type TaskOverride struct {
	Status        string `json:"status"`
	ScheduledDate string `json:"scheduledDate,omitempty"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
}

// TasksState is the singleton override document, a flat map from
// synthetic task id to override.
type TasksState map[string]TaskOverride

// Reminder is a document in the reminders collection. Recurring
// reminders expand eagerly into dated child occurrences that point
// back to the parent via ParentID.
type Reminder struct {
	DocID         string     `json:"-"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	ProjectID     string     `json:"projectId,omitempty"`
	ProjectName   string     `json:"projectName,omitempty"`
	Date          string     `json:"date"`
	Time          string     `json:"time,omitempty"`
	Recurrence    string     `json:"recurrence"`
	EndDate       string     `json:"endDate,omitempty"`
	Notify        bool       `json:"notify"`
	AddToCalendar bool       `json:"addToCalendar"`
	Completed     bool       `json:"completed"`
	ParentID      string     `json:"parentId,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// NotificationSettings selects which deadline distances produce a
// notification.
type NotificationSettings struct {
	Overdue     bool `json:"overdue"`
	DeadlineDay bool `json:"deadlineDay"`
	Deadline1   bool `json:"deadline1"`
	Deadline3   bool `json:"deadline3"`
	Deadline7   bool `json:"deadline7"`
}

// Settings is the singleton settings/config document.
type Settings struct {
	YearGoal      int                  `json:"yearGoal"`
	Notifications NotificationSettings `json:"notifications"`
}

func DefaultSettings() Settings {
	return Settings{
		YearGoal: 5,
		Notifications: NotificationSettings{
			Overdue:     true,
			DeadlineDay: true,
			Deadline1:   true,
			Deadline3:   true,
			Deadline7:   true,
		},
	}
}

// ParsePrazo parses the localized deadline strings found in project
// documents: DD/MM/YYYY, with YYYY-MM-DD accepted for newer records.
func ParsePrazo(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
