// Package notify tracks which deadline and reminder notices have
// already fired today, so nothing nags twice in the same day. The
// flags are local-only state, persisted as a small JSON file next to
// the database and cleared by nothing but deletion.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rmcastelo/painel/internal/store"
)

// Flags is the persisted set of already-notified keys, scoped by
// entity id and calendar day.
type Flags struct {
	path string
	seen map[string]bool
}

// Load reads the flag file from dir (missing file = empty set).
func Load(dir string) (*Flags, error) {
	f := &Flags{
		path: filepath.Join(dir, "notified.json"),
		seen: make(map[string]bool),
	}
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notification flags: %w", err)
	}
	if err := json.Unmarshal(data, &f.seen); err != nil {
		// A corrupt flag file only risks a duplicate notice; start over.
		f.seen = make(map[string]bool)
	}
	return f, nil
}

func (f *Flags) save() error {
	data, err := json.Marshal(f.seen)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o644)
}

func dayKey(prefix, id string, day time.Time) string {
	return fmt.Sprintf("%s_%s_%s", prefix, id, day.Format("2006-01-02"))
}

// Seen reports whether the key already fired; Mark records it.
func (f *Flags) seenAndMark(key string) bool {
	if f.seen[key] {
		return true
	}
	f.seen[key] = true
	if err := f.save(); err != nil {
		// Best effort; a lost flag means at worst one repeat notice.
		return false
	}
	return false
}

// Notice is a user-facing notification produced by the due checks.
type Notice struct {
	Text string
}

// DeadlineNotices walks the projects and emits at most one notice per
// project per day, honoring the settings toggles. Completed projects
// and projects without a parseable deadline never notify.
func DeadlineNotices(projects []store.Project, cfg store.Settings, f *Flags, now time.Time) []Notice {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var out []Notice

	for _, p := range projects {
		if p.Prazo == "" || p.Status == store.StatusCompleted {
			continue
		}
		deadline, ok := store.ParsePrazo(p.Prazo)
		if !ok {
			continue
		}
		diffDays := int(deadline.Sub(today).Hours() / 24)

		notif := cfg.Notifications
		var text string
		switch {
		case diffDays < 0 && notif.Overdue:
			text = fmt.Sprintf("%s is %d day(s) overdue", p.Nome, -diffDays)
		case diffDays == 0 && notif.DeadlineDay:
			text = fmt.Sprintf("%s is due today", p.Nome)
		case diffDays == 1 && notif.Deadline1:
			text = fmt.Sprintf("%s is due tomorrow", p.Nome)
		case diffDays == 3 && notif.Deadline3:
			text = fmt.Sprintf("%s is due in 3 days", p.Nome)
		case diffDays == 7 && notif.Deadline7:
			text = fmt.Sprintf("%s is due in 7 days", p.Nome)
		default:
			continue
		}

		if f.seenAndMark(dayKey("notified", p.DocID, today)) {
			continue
		}
		out = append(out, Notice{Text: text})
	}
	return out
}

// ReminderNotices emits one notice per uncompleted reminder due today,
// at most once per day each.
func ReminderNotices(reminders []store.Reminder, f *Flags, now time.Time) []Notice {
	today := now.Format("2006-01-02")
	var out []Notice

	for _, r := range reminders {
		if r.Completed || !r.Notify || r.Date != today {
			continue
		}
		if f.seenAndMark(dayKey("reminder_notified", r.DocID, now)) {
			continue
		}
		text := r.Title
		if r.Time != "" {
			text = fmt.Sprintf("%s at %s", r.Title, r.Time)
		}
		out = append(out, Notice{Text: text})
	}
	return out
}
