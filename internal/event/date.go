package event

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthsES = map[string]time.Month{
	"ene": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August,
	"sep": time.September,
	"set": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December,
}

var (
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})(?:[/.-](\d{2,4}))?\b`)
	textDatePattern    = regexp.MustCompile(`\b(\d{1,2})\s*(?:de\s+)?([a-z]{3,})\.?(?:\s*(?:de\s+)?(\d{4}))?`)
	accentReplacer     = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n")
)

// ParseDate interprets the date text of a venue listing.
// Returns time.Time{} (zero value) if parsing fails.
// Supports "VIE. 24 OCT.", "sábado 3 de enero de 2026", "24/10", "24/10/26".
// Text without a year is placed in now's year, or the next one when that
// would put it more than six months in the past.
func ParseDate(dateText string, now time.Time) time.Time {
	text := accentReplacer.Replace(strings.ToLower(strings.TrimSpace(dateText)))
	if text == "" {
		return time.Time{}
	}

	if m := textDatePattern.FindStringSubmatch(text); m != nil {
		if month, ok := monthsES[m[2][:3]]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			return build(year, month, day, now)
		}
	}

	if m := numericDatePattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year > 0 && year < 100 {
			year += 2000
		}
		if month >= 1 && month <= 12 {
			return build(year, time.Month(month), day, now)
		}
	}

	return time.Time{}
}

func build(year int, month time.Month, day int, now time.Time) time.Time {
	if day < 1 || day > 31 {
		return time.Time{}
	}
	if year > 0 {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
	t := time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if t.Before(now.AddDate(0, -6, 0)) {
		t = t.AddDate(1, 0, 0)
	}
	return t
}

// StartDate parses the record's date text. See ParseDate.
func (r *Record) StartDate(now time.Time) time.Time {
	return ParseDate(r.Date, now)
}

// IsUpcoming checks if an event is today or later.
// Returns true if the date cannot be parsed (safer default).
func (r *Record) IsUpcoming(now time.Time) bool {
	parsed := r.StartDate(now)
	if parsed.IsZero() {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !parsed.Before(today)
}
