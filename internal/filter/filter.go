// Package filter narrows scraped event records for reporting.
//
// Criteria combine with AND; within Names any substring may match:
//   - Date range (from/to dates, inclusive)
//   - Event names (substring matching, case-insensitive)
//   - Weekend nights only (Friday/Saturday)
//   - Maximum price of the release on sale
//
// Example usage:
//
//	// Friday and Saturday events under 15€ in the last week of October
//	f := filter.NewFilter()
//	f.WeekendsOnly = true
//	f.MaxPrice = 15
//	f.DateFrom, f.DateTo, _ = filter.ParseDateRange("Oct 24-31", time.Now())
//
//	filtered := f.Apply(records, time.Now())
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/tier"
)

// Filter represents record filtering criteria
type Filter struct {
	// Date range filtering
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Event name filtering (case-insensitive substring match)
	Names []string `json:"names,omitempty"`

	// Friday/Saturday nights only
	WeekendsOnly bool `json:"weekends_only,omitempty"`

	// Maximum price in euros of the release on sale
	MaxPrice float64 `json:"max_price,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
func NewFilter() *Filter {
	return &Filter{Names: []string{}}
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all records.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Names) == 0 &&
		!f.WeekendsOnly &&
		f.MaxPrice == 0
}

// Matches checks if a record matches all active filter criteria. Dates are
// resolved relative to now.
//
// Matching logic:
//   - Date range: the record date must be within DateFrom and DateTo
//   - Names: the event name must contain at least one name
//   - WeekendsOnly: the record must be dated on a Friday or Saturday
//   - MaxPrice: the release price (see Price) must not exceed MaxPrice
//
// A record whose date or price is unknown passes the criteria needing it.
func (f *Filter) Matches(rec *event.Record, now time.Time) bool {
	if f.IsEmpty() {
		return true
	}

	date := rec.StartDate(now)
	if !date.IsZero() {
		if f.DateFrom != nil && date.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && date.After(*f.DateTo) {
			return false
		}
		if f.WeekendsOnly {
			if wd := date.Weekday(); wd != time.Friday && wd != time.Saturday {
				return false
			}
		}
	}

	if len(f.Names) > 0 {
		matched := false
		nameLower := strings.ToLower(rec.EventName)
		for _, name := range f.Names {
			if strings.Contains(nameLower, strings.ToLower(name)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.MaxPrice > 0 {
		if price, ok := Price(rec); ok && price > f.MaxPrice {
			return false
		}
	}

	return true
}

// Apply returns the records matching the filter. If the filter is empty the
// original slice is returned unchanged.
func (f *Filter) Apply(records []*event.Record, now time.Time) []*event.Record {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]*event.Record, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec, now) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// Price returns the price of the release on sale, or of the cheapest
// priced release when the current one has no price.
func Price(rec *event.Record) (float64, bool) {
	if rel, ok := rec.FindRelease(rec.CurrentRelease); ok && rec.CurrentRelease != "" {
		if v, ok := releasePrice(rel); ok {
			return v, true
		}
	}

	var (
		lowest float64
		found  bool
	)
	for _, rel := range rec.Releases {
		if v, ok := releasePrice(rel); ok && (!found || v < lowest) {
			lowest, found = v, true
		}
	}
	return lowest, found
}

func releasePrice(rel tier.Record) (float64, bool) {
	if v, ok := rel.Amount(); ok {
		return v, true
	}
	return tier.ParsePrice(rel.Price)
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Oct 24, 2025 | To: Oct 31, 2025 | Names: techno | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}

	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}

	if len(f.Names) > 0 {
		parts = append(parts, fmt.Sprintf("Names: %s", strings.Join(f.Names, ", ")))
	}

	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	if f.MaxPrice > 0 {
		parts = append(parts, fmt.Sprintf("Max price: %s", tier.FormatPrice(f.MaxPrice)))
	}

	return strings.Join(parts, " | ")
}
