// Package calendar builds Google Calendar deep-links. The link is
// opened in the user's browser as a fire-and-forget side effect; no
// response ever comes back.
package calendar

import (
	"fmt"
	"log"
	"net/url"
	"os/exec"
	"runtime"
	"time"
)

// Event describes a calendar entry to deep-link into.
type Event struct {
	Title           string
	Date            string // YYYY-MM-DD
	Time            string // HH:MM, defaults to 09:00
	DurationMinutes int    // defaults to 60
	Description     string
	Location        string
	ReminderMinutes int // 0 = no reminder parameter
}

// EventURL renders the calendar template URL. Dates go out in the
// local wall-clock format (no zone suffix) so the calendar places the
// event at the time the user typed.
func EventURL(e Event) (string, error) {
	timeOfDay := e.Time
	if timeOfDay == "" {
		timeOfDay = "09:00"
	}
	start, err := time.Parse("2006-01-02 15:04", e.Date+" "+timeOfDay)
	if err != nil {
		return "", fmt.Errorf("parse event start: %w", err)
	}
	duration := e.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	const local = "20060102T150405"
	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", e.Title)
	params.Set("dates", start.Format(local)+"/"+end.Format(local))
	params.Set("details", e.Description)
	params.Set("location", e.Location)
	params.Set("trp", "false")
	params.Set("sprop", "website:painel-executivo")
	if e.ReminderMinutes > 0 {
		params.Set("reminder", fmt.Sprintf("%d", e.ReminderMinutes))
	}

	return "https://calendar.google.com/calendar/render?" + params.Encode(), nil
}

// TaskEvent prefills an event for a task the way the schedule dialog
// does: titled with the project, described with the step text.
func TaskEvent(projectName, text, date, timeOfDay string) Event {
	return Event{
		Title:           fmt.Sprintf("[%s] %s", projectName, text),
		Date:            date,
		Time:            timeOfDay,
		DurationMinutes: 60,
		Description:     fmt.Sprintf("Próximo passo do projeto %q:\n\n%s", projectName, text),
		ReminderMinutes: 30,
	}
}

// Open launches the URL in the user's browser without waiting for it.
// Failures are logged and never propagate; the write that preceded the
// open has already happened.
func Open(rawURL string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("open calendar link: %v", err)
	}
}
