// Package storage persists scrape runs.
//
// A run's event records can be written to a JSON file (the array format
// downstream spreadsheets import), to a sqlite database that keeps every run
// for later comparison, or to both through MultiSink. The JSON file doubles
// as the previous-run baseline for change detection.
package storage
