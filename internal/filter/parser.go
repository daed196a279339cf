package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthToken = `([a-záéíóúñ]+)\.?`

var (
	sameMonthPattern    = regexp.MustCompile(`^` + monthToken + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	sameMonthDayFirst   = regexp.MustCompile(`^(\d{1,2})\s*-\s*(\d{1,2})\s+(?:de\s+)?` + monthToken + `$`)
	crossMonthPattern   = regexp.MustCompile(`^` + monthToken + `\s+(\d{1,2})\s*-\s*` + monthToken + `\s+(\d{1,2})$`)
	crossMonthDayFirst  = regexp.MustCompile(`^(\d{1,2})\s+(?:de\s+)?` + monthToken + `\s*-\s*(\d{1,2})\s+(?:de\s+)?` + monthToken + `$`)
	singleMonthPattern  = regexp.MustCompile(`^` + monthToken + `$`)
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January, "ene": time.January, "enero": time.January,
	"feb": time.February, "february": time.February, "febrero": time.February,
	"mar": time.March, "march": time.March, "marzo": time.March,
	"apr": time.April, "april": time.April, "abr": time.April, "abril": time.April,
	"may": time.May, "mayo": time.May,
	"jun": time.June, "june": time.June, "junio": time.June,
	"jul": time.July, "july": time.July, "julio": time.July,
	"aug": time.August, "august": time.August, "ago": time.August, "agosto": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"set": time.September, "septiembre": time.September, "setiembre": time.September,
	"oct": time.October, "october": time.October, "octubre": time.October,
	"nov": time.November, "november": time.November, "noviembre": time.November,
	"dec": time.December, "december": time.December, "dic": time.December, "diciembre": time.December,
}

// ParseDateRange parses a date range string into start and end times.
//
// Supported formats, with English or Spanish month names:
//   - "Oct 24-31" or "24-31 oct" - Same month, different days
//   - "Oct 24 - Nov 2" or "24 oct - 2 nov" - Different months
//   - "noviembre" - Entire month
//
// A month earlier than now's month is placed in the next year. For
// cross-month ranges, if the end month precedes the start month the end is
// in the year after the start.
//
// Times are in UTC. Start time is at 00:00:00, end time is at 23:59:59.
func ParseDateRange(input string, now time.Time) (*time.Time, *time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if m := sameMonthPattern.FindStringSubmatch(input); m != nil {
		return sameMonth(m[1], m[2], m[3], now)
	}
	if m := sameMonthDayFirst.FindStringSubmatch(input); m != nil {
		return sameMonth(m[3], m[1], m[2], now)
	}
	if m := crossMonthPattern.FindStringSubmatch(input); m != nil {
		return crossMonth(m[1], m[2], m[3], m[4], now)
	}
	if m := crossMonthDayFirst.FindStringSubmatch(input); m != nil {
		return crossMonth(m[2], m[1], m[4], m[3], now)
	}
	if m := singleMonthPattern.FindStringSubmatch(input); m != nil {
		month, err := parseMonth(m[1])
		if err != nil {
			return nil, nil, err
		}
		year := yearForMonth(month, now)
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// Last day of month
		to := time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
		return &from, &to, nil
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use 'Oct 24-31', '24 oct - 2 nov', or 'noviembre'")
}

func sameMonth(monthName, fromDay, toDay string, now time.Time) (*time.Time, *time.Time, error) {
	month, err := parseMonth(monthName)
	if err != nil {
		return nil, nil, err
	}
	day1, err := parseDay(fromDay)
	if err != nil {
		return nil, nil, err
	}
	day2, err := parseDay(toDay)
	if err != nil {
		return nil, nil, err
	}

	year := yearForMonth(month, now)
	from := time.Date(year, month, day1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, month, day2, 23, 59, 59, 0, time.UTC)
	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

func crossMonth(fromMonth, fromDay, toMonth, toDay string, now time.Time) (*time.Time, *time.Time, error) {
	month1, err := parseMonth(fromMonth)
	if err != nil {
		return nil, nil, err
	}
	day1, err := parseDay(fromDay)
	if err != nil {
		return nil, nil, err
	}
	month2, err := parseMonth(toMonth)
	if err != nil {
		return nil, nil, err
	}
	day2, err := parseDay(toDay)
	if err != nil {
		return nil, nil, err
	}

	year1 := yearForMonth(month1, now)
	year2 := year1
	if month2 < month1 {
		year2++
	}

	from := time.Date(year1, month1, day1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year2, month2, day2, 23, 59, 59, 0, time.UTC)
	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

// parseMonth converts an English or Spanish month name to time.Month
func parseMonth(name string) (time.Month, error) {
	key := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u").Replace(name)
	if m, ok := months[key]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("invalid month: %s", name)
}

func parseDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid day: %s", s)
	}
	return day, nil
}

// yearForMonth returns now's year, or the next one if the month has
// already passed.
func yearForMonth(month time.Month, now time.Time) int {
	year := now.Year()
	if month < now.Month() {
		year++
	}
	return year
}
