package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danisans16/scripts-fomo/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortNone    SortOrder = ""
	SortByDate  SortOrder = "date"
	SortByVenue SortOrder = "venue"
	SortByName  SortOrder = "name"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortNone, SortByDate, SortByVenue, SortByName:
		return o, nil
	default:
		return SortNone, fmt.Errorf("invalid sort: %s (must be 'date', 'venue' or 'name')", s)
	}
}

// sortRecords sorts records in place. Dates are resolved relative to now.
// SortNone keeps scrape order.
func sortRecords(records []*event.Record, order SortOrder, now time.Time) {
	switch order {
	case SortByDate:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByDate(records[i], records[j], now)
		})
	case SortByVenue:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Venue != records[j].Venue {
				return strings.ToLower(records[i].Venue) < strings.ToLower(records[j].Venue)
			}
			// If venues are equal, sort by date
			return compareByDate(records[i], records[j], now)
		})
	case SortByName:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].EventName != records[j].EventName {
				return strings.ToLower(records[i].EventName) < strings.ToLower(records[j].EventName)
			}
			return compareByDate(records[i], records[j], now)
		})
	}
}

// compareByDate compares two events by their date
// Returns true if event i should come before event j
func compareByDate(i, j *event.Record, now time.Time) bool {
	dateI := i.StartDate(now)
	dateJ := j.StartDate(now)

	// If both dates are valid, compare them
	if !dateI.IsZero() && !dateJ.IsZero() {
		if !dateI.Equal(dateJ) {
			return dateI.Before(dateJ)
		}
		return strings.ToLower(i.Venue) < strings.ToLower(j.Venue)
	}

	// If only one date is valid, put the valid one first
	if !dateI.IsZero() {
		return true
	}
	if !dateJ.IsZero() {
		return false
	}

	// If neither has a valid date, sort by venue then name
	if i.Venue != j.Venue {
		return strings.ToLower(i.Venue) < strings.ToLower(j.Venue)
	}
	return strings.ToLower(i.EventName) < strings.ToLower(j.EventName)
}
