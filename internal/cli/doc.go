// Package cli implements the fomo command-line interface.
//
// The cli package provides the Cobra-based commands: scrape runs one pass
// over the configured venues and clubs and writes the results, schedule
// repeats that pass on a cron schedule, extract runs the tier extraction
// engine on a saved event page, runs lists stored runs and show prints one
// saved event. Output is a text table or JSON, sortable by date, venue
// or event name, and reports what changed since the previous run.
package cli
