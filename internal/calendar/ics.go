// Package calendar renders scraped event records as iCalendar documents.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/danisans16/scripts-fomo/internal/event"
)

// DefaultDuration is the length of an event whose listing gives no end time.
const DefaultDuration = 4 * time.Hour

var clockPattern = regexp.MustCompile(`(\d{1,2})[:.h](\d{2})`)

// GenerateICS generates an iCalendar (.ics) document for one record.
// Returns "" if the record date cannot be parsed.
func GenerateICS(rec *event.Record, now time.Time) string {
	return GenerateBulkICS([]*event.Record{rec}, "", now)
}

// GenerateBulkICS generates a calendar with one VEVENT per dated record.
// Records without a parseable date are left out; if none remain the result
// is "". name, when set, becomes the calendar display name.
func GenerateBulkICS(records []*event.Record, name string, now time.Time) string {
	var body strings.Builder
	for _, rec := range records {
		writeEvent(&body, rec, now)
	}
	if body.Len() == 0 {
		return ""
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//fomo//fourvenues releases//ES\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if name != "" {
		ics.WriteString(fmt.Sprintf("X-WR-CALNAME:%s\r\n", escapeICS(name)))
	}
	ics.WriteString(body.String())
	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, rec *event.Record, now time.Time) {
	date := rec.StartDate(now)
	if date.IsZero() {
		return
	}

	ics.WriteString("BEGIN:VEVENT\r\n")
	ics.WriteString(fmt.Sprintf("UID:%s@fourvenues.com\r\n", rec.ID()))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", now.UTC().Format("20060102T150405Z")))

	// Listing times are venue-local, so they are written as floating times.
	if start, end, ok := eventTimes(date, rec.Time); ok {
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatLocal(start)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatLocal(end)))
	} else {
		ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", date.Format("20060102")))
		ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", date.AddDate(0, 0, 1).Format("20060102")))
	}

	summary := rec.EventName
	if rec.Venue != "" {
		summary = fmt.Sprintf("%s @ %s", rec.EventName, rec.Venue)
	}
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(summary)))
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description(rec))))
	if rec.Venue != "" {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(rec.Venue)))
	}
	if rec.URL != "" {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", rec.URL))
	}
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// eventTimes reads "23:30" or "23:30 - 06:00" into start and end on date.
// An end at or before the start falls on the next day.
func eventTimes(date time.Time, text string) (time.Time, time.Time, bool) {
	clocks := clockPattern.FindAllStringSubmatch(text, 2)
	if len(clocks) == 0 {
		return time.Time{}, time.Time{}, false
	}

	start, ok := at(date, clocks[0])
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end := start.Add(DefaultDuration)
	if len(clocks) > 1 {
		if e, ok := at(date, clocks[1]); ok {
			if !e.After(start) {
				e = e.AddDate(0, 0, 1)
			}
			end = e
		}
	}
	return start, end, true
}

func at(date time.Time, clock []string) (time.Time, bool) {
	h, _ := strconv.Atoi(clock[1])
	m, _ := strconv.Atoi(clock[2])
	if h > 23 || m > 59 {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, time.UTC), true
}

func description(rec *event.Record) string {
	var lines []string
	if rec.CurrentRelease != "" {
		lines = append(lines, "On sale: "+rec.CurrentRelease)
	}
	for _, r := range rec.Releases {
		line := r.Name
		if r.Price != "" {
			line += " - " + r.Price
		}
		lines = append(lines, line)
	}
	if rec.URL != "" {
		lines = append(lines, "", "Tickets: "+rec.URL)
	}
	return strings.Join(lines, "\n")
}

func formatLocal(t time.Time) string {
	return t.Format("20060102T150405")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
