package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/campustrade/backend/internal/model"
)

const icsTimeLayout = "20060102T150405Z"

// BuildICS renders a single-event iCalendar invite for an appointment.
func BuildICS(appt *model.Appointment, item *model.Item) string {
	location := appt.Location
	if location == "" {
		location = "Location TBD"
	}
	notes := appt.Notes
	if notes == "" {
		notes = "None"
	}
	description := fmt.Sprintf("Appointment to view/purchase %q. Price: %d. Notes: %s",
		item.Title, item.Price, notes)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//campustrade//appointments//EN",
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:" + appt.ID + "@campustrade",
		"DTSTAMP:" + time.Now().UTC().Format(icsTimeLayout),
		"DTSTART:" + appt.StartTime.UTC().Format(icsTimeLayout),
		"DTEND:" + appt.EndTime.UTC().Format(icsTimeLayout),
		"SUMMARY:" + escapeICS("Second-Hand Item Appointment: "+item.Title),
		"DESCRIPTION:" + escapeICS(description),
		"LOCATION:" + escapeICS(location),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

// escapeICS escapes the characters RFC 5545 treats specially in text values.
func escapeICS(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}
