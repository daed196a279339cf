package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLite(t *testing.T) *SQLiteSink {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "fomo.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteSink_SaveAndLatest(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	latest, err := s.Latest(ctx)
	if err != nil || latest != nil {
		t.Fatalf("Latest() on empty db = %v, %v; want nil, nil", latest, err)
	}

	start := time.Date(2025, 10, 10, 20, 0, 0, 0, time.UTC)
	older := &Run{StartedAt: start, FinishedAt: start.Add(time.Minute), Records: sampleRecords()[:1]}
	newer := &Run{
		StartedAt:   start.Add(time.Hour),
		FinishedAt:  start.Add(time.Hour + time.Minute),
		Records:     sampleRecords(),
		EmptyVenues: []string{"colors"},
		Failed:      1,
	}

	for _, run := range []*Run{older, newer} {
		if err := s.Save(ctx, run); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if run.ID == "" {
			t.Error("Save() should assign a run ID")
		}
	}

	runs, err := s.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != newer.ID {
		t.Errorf("Runs()[0] = %s, want newest run %s", runs[0].ID, newer.ID)
	}
	if runs[0].Events != 2 || runs[0].Failed != 1 {
		t.Errorf("run summary = %+v", runs[0])
	}
	if len(runs[0].EmptyVenues) != 1 || runs[0].EmptyVenues[0] != "colors" {
		t.Errorf("EmptyVenues = %v", runs[0].EmptyVenues)
	}
	if !runs[0].StartedAt.Equal(newer.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", runs[0].StartedAt, newer.StartedAt)
	}

	latest, err = s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("Latest() returned %d records, want 2", len(latest))
	}
	if latest[0].EventName != "Friday Session" || latest[1].EventName != "Techno Night" {
		t.Errorf("Latest() order = %q, %q", latest[0].EventName, latest[1].EventName)
	}
	if latest[0].Flat[0].ReleaseURL == "" {
		t.Error("flattened projection not restored from stored JSON")
	}
}

func TestSQLiteSink_KeepsGivenRunID(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	run := &Run{ID: "fixed-id", StartedAt: time.Now(), FinishedAt: time.Now()}
	if err := s.Save(ctx, run); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if run.ID != "fixed-id" {
		t.Errorf("run ID = %q, want fixed-id", run.ID)
	}

	records, err := s.Records(ctx, "fixed-id")
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Records() = %d, want 0", len(records))
	}

	if err := s.Save(ctx, run); err == nil {
		t.Error("saving the same run ID twice should fail")
	}
}
