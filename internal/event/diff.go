package event

import (
	"sort"
	"time"
)

// ChangeType classifies a difference between two runs.
type ChangeType string

const (
	ChangeNew     ChangeType = "new"
	ChangeCurrent ChangeType = "current_release"
	ChangePrice   ChangeType = "price"
	ChangeRelease ChangeType = "release_added"
)

// Change represents a change detected in an event between two runs
type Change struct {
	URL        string     `json:"url"`
	EventName  string     `json:"event_name"`
	Venue      string     `json:"venue"`
	Type       ChangeType `json:"change_type"`
	Release    string     `json:"release,omitempty"`
	OldValue   string     `json:"old_value"`
	NewValue   string     `json:"new_value"`
	DetectedAt time.Time  `json:"detected_at"`
}

// DiffResult contains the results of comparing two result sets
type DiffResult struct {
	NewEvents []*Record
	Changes   []*Change
	ByVenue   map[string][]*Record // new events grouped by venue
}

// Diff compares the records of the current run against the previous one.
// Events are matched by URL.
func Diff(previous, current []*Record) *DiffResult {
	result := &DiffResult{
		NewEvents: make([]*Record, 0),
		Changes:   make([]*Change, 0),
		ByVenue:   make(map[string][]*Record),
	}

	byURL := make(map[string]*Record, len(previous))
	for _, rec := range previous {
		byURL[rec.URL] = rec
	}

	now := time.Now().UTC()
	for _, rec := range current {
		prev, exists := byURL[rec.URL]
		if !exists {
			result.NewEvents = append(result.NewEvents, rec)
			result.ByVenue[rec.Venue] = append(result.ByVenue[rec.Venue], rec)
		}
		result.Changes = append(result.Changes, DetectChanges(prev, rec, now)...)
	}

	sort.SliceStable(result.NewEvents, func(i, j int) bool {
		if result.NewEvents[i].Venue != result.NewEvents[j].Venue {
			return result.NewEvents[i].Venue < result.NewEvents[j].Venue
		}
		return result.NewEvents[i].EventName < result.NewEvents[j].EventName
	})

	return result
}

// DetectChanges compares two versions of the same event. A nil previous
// means the event is new.
func DetectChanges(previous, current *Record, at time.Time) []*Change {
	change := func(t ChangeType, release, oldValue, newValue string) *Change {
		return &Change{
			URL:        current.URL,
			EventName:  current.EventName,
			Venue:      current.Venue,
			Type:       t,
			Release:    release,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: at,
		}
	}

	if previous == nil {
		return []*Change{change(ChangeNew, "", "", current.EventName)}
	}

	var changes []*Change
	if previous.CurrentRelease != current.CurrentRelease {
		changes = append(changes, change(ChangeCurrent, "", previous.CurrentRelease, current.CurrentRelease))
	}

	for _, rel := range current.Releases {
		old, ok := previous.FindRelease(rel.Name)
		switch {
		case !ok:
			changes = append(changes, change(ChangeRelease, rel.Name, "", rel.Price))
		case old.Price != rel.Price:
			changes = append(changes, change(ChangePrice, rel.Name, old.Price, rel.Price))
		}
	}

	return changes
}
