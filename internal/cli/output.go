package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/tier"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// maxColumnWidth caps text table columns; longer values are truncated.
const maxColumnWidth = 36

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt     time.Time       `json:"checked_at"`
	RunID         string          `json:"run_id,omitempty"`
	Venues        []string        `json:"venues"`
	Events        []*event.Record `json:"events"`
	EventCount    int             `json:"event_count"`
	NewEventCount int             `json:"new_event_count"`
	Changes       []*event.Change `json:"changes,omitempty"`
	EmptyVenues   []string        `json:"empty_venues,omitempty"`
	Failed        int             `json:"failed"`
	Blocked       int             `json:"blocked"`
	OutputPath    string          `json:"output_path,omitempty"`
	Filter        string          `json:"filter,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as an aligned table followed by changes and
// the venues that listed no events.
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
	} else {
		rows := [][]string{{"VENUE", "DATE", "EVENT", "CURRENT", "RELEASES"}}
		for _, rec := range result.Events {
			rows = append(rows, []string{
				rec.Venue,
				rec.Date,
				rec.EventName,
				orDash(rec.CurrentRelease),
				releaseSummary(rec.Releases),
			})
		}
		widths := columnWidths(rows)

		for i, row := range rows {
			fmt.Fprintln(w, formatRow(row, widths))
			if verbose && i > 0 {
				writeReleases(w, result.Events[i-1].Releases, "    ")
			}
		}
	}

	if len(result.Changes) > 0 {
		fmt.Fprintf(w, "\nChanges since last run (%d):\n", len(result.Changes))
		for _, c := range result.Changes {
			fmt.Fprintf(w, "  %s\n", describeChange(c))
		}
	}

	if len(result.EmptyVenues) > 0 {
		fmt.Fprintln(w, "\nVenues without events:")
		for _, v := range result.EmptyVenues {
			fmt.Fprintf(w, "  - %s\n", v)
		}
	}

	if result.Filter != "" {
		fmt.Fprintf(w, "\nFilter: %s", result.Filter)
	}
	fmt.Fprintf(w, "\nTotal: %d events (%d new) across %d venues", result.EventCount, result.NewEventCount, len(result.Venues))
	if result.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", result.Failed)
		if result.Blocked > 0 {
			fmt.Fprintf(w, " (%d blocked)", result.Blocked)
		}
	}
	fmt.Fprintln(w)
	if result.OutputPath != "" {
		fmt.Fprintf(w, "Saved to %s\n", result.OutputPath)
	}
	return nil
}

func writeReleases(w io.Writer, releases []tier.Record, indent string) {
	rows := make([][]string, 0, len(releases))
	for _, r := range releases {
		rows = append(rows, []string{r.Name, orDash(r.Price), orDash(r.URL)})
	}
	widths := columnWidths(rows)
	for _, row := range rows {
		fmt.Fprintln(w, indent+formatRow(row, widths))
	}
}

func releaseSummary(releases []tier.Record) string {
	linked := 0
	for _, r := range releases {
		if r.URL != "" {
			linked++
		}
	}
	return fmt.Sprintf("%d (%d linked)", len(releases), linked)
}

func describeChange(c *event.Change) string {
	subject := fmt.Sprintf("%s (%s)", c.EventName, c.Venue)
	switch c.Type {
	case event.ChangeCurrent:
		return fmt.Sprintf("CURRENT %s: %s -> %s", subject, orDash(c.OldValue), orDash(c.NewValue))
	case event.ChangePrice:
		return fmt.Sprintf("PRICE   %s / %s: %s -> %s", subject, c.Release, orDash(c.OldValue), orDash(c.NewValue))
	case event.ChangeRelease:
		return fmt.Sprintf("ADDED   %s / %s: %s", subject, c.Release, orDash(c.NewValue))
	default:
		return fmt.Sprintf("NEW     %s", subject)
	}
}

// columnWidths measures display width, so accented and wide characters
// line up.
func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = min(n, maxColumnWidth)
			}
		}
	}
	return widths
}

func formatRow(row []string, widths []int) string {
	cells := make([]string, len(row))
	for i, cell := range row {
		if i == len(row)-1 {
			cells[i] = cell
			continue
		}
		cells[i] = runewidth.FillRight(runewidth.Truncate(cell, widths[i], "…"), widths[i])
	}
	return strings.Join(cells, "  ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
