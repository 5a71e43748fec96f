package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// CollectionReminders is the reminders collection name.
const CollectionReminders = "reminders"

// maxOccurrences bounds eager recurrence expansion to one year of
// weekly reminders.
const maxOccurrences = 52

func decodeReminder(d Document) (Reminder, error) {
	var r Reminder
	if err := json.Unmarshal(d.Data, &r); err != nil {
		return Reminder{}, fmt.Errorf("decode reminder %s: %w", d.ID, err)
	}
	r.DocID = d.ID
	return r, nil
}

// CreateReminder persists the reminder and, for recurring ones with an
// end date, eagerly expands it into dated child occurrences written in
// one atomic batch. Returns how many occurrences were created.
func (s *Store) CreateReminder(r *Reminder) (int, error) {
	r.DocID = uuid.NewString()
	now := time.Now().UTC()
	r.CreatedAt = &now
	r.UpdatedAt = &now
	if r.Recurrence == "" {
		r.Recurrence = RecurrenceNone
	}
	if err := s.Put(CollectionReminders, r.DocID, r); err != nil {
		return 0, err
	}
	if r.Recurrence == RecurrenceNone || r.EndDate == "" {
		return 0, nil
	}

	dates := expandOccurrences(r.Date, r.EndDate, r.Recurrence, maxOccurrences)
	if len(dates) == 0 {
		return 0, nil
	}
	batch := s.NewBatch()
	for _, date := range dates {
		child := *r
		child.DocID = uuid.NewString()
		child.Date = date
		child.ParentID = r.DocID
		batch.Set(CollectionReminders, child.DocID, &child)
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("expand recurring reminder: %w", err)
	}
	return len(dates), nil
}

// expandOccurrences walks from the start date by the recurrence step
// and returns every date at or before end, capped at max. The start
// date itself belongs to the parent reminder and is not repeated.
func expandOccurrences(start, end, rule string, max int) []string {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil
	}
	until, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil
	}

	var dates []string
	current := from
	for len(dates) < max {
		switch rule {
		case RecurrenceDaily:
			current = current.AddDate(0, 0, 1)
		case RecurrenceWeekly:
			current = current.AddDate(0, 0, 7)
		case RecurrenceBiweekly:
			current = current.AddDate(0, 0, 14)
		case RecurrenceMonthly:
			current = current.AddDate(0, 1, 0)
		default:
			return dates
		}
		if current.After(until) {
			break
		}
		dates = append(dates, current.Format("2006-01-02"))
	}
	return dates
}

// ListReminders returns every reminder ordered by date then time.
func (s *Store) ListReminders() ([]Reminder, error) {
	docs, err := s.List(CollectionReminders)
	if err != nil {
		return nil, err
	}
	var reminders []Reminder
	for _, d := range docs {
		r, err := decodeReminder(d)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	sortReminders(reminders)
	return reminders, nil
}

func sortReminders(reminders []Reminder) {
	sort.SliceStable(reminders, func(i, j int) bool {
		if reminders[i].Date != reminders[j].Date {
			return reminders[i].Date < reminders[j].Date
		}
		return reminders[i].Time < reminders[j].Time
	})
}

// UpdateReminder replaces the reminder document, refreshing updatedAt.
func (s *Store) UpdateReminder(r *Reminder) error {
	now := time.Now().UTC()
	r.UpdatedAt = &now
	return s.Put(CollectionReminders, r.DocID, r)
}

func (s *Store) DeleteReminder(docID string) error {
	return s.Delete(CollectionReminders, docID)
}

// SetReminderCompleted flips the completed flag on a single reminder.
func (s *Store) SetReminderCompleted(docID string, completed bool) error {
	now := time.Now().UTC()
	return s.Update(CollectionReminders, docID, map[string]any{
		"completed": completed,
		"updatedAt": now,
	})
}

// DecodeReminders converts a raw subscription snapshot into reminders
// ordered by date then time.
func DecodeReminders(docs []Document) []Reminder {
	var reminders []Reminder
	for _, d := range docs {
		r, err := decodeReminder(d)
		if err != nil {
			continue
		}
		reminders = append(reminders, r)
	}
	sortReminders(reminders)
	return reminders
}
