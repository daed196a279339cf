package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danisans16/scripts-fomo/internal/event"
)

// ErrNotFound is returned when a lookup matches no stored event.
var ErrNotFound = errors.New("event not found")

// Run is one completed scrape: the records it produced and its bookkeeping.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Records     []*event.Record
	EmptyVenues []string
	Failed      int
}

// Sink accepts the records of a finished run.
type Sink interface {
	Save(ctx context.Context, run *Run) error
}

// Storage writes run records to a single JSON file.
type Storage struct {
	path string
}

// New creates a JSON file sink at path, creating its directory if needed.
func New(path string) (*Storage, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	return &Storage{path: path}, nil
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Path returns the file the sink writes to.
func (s *Storage) Path() string {
	return s.path
}

// Save overwrites the file with the run's records.
func (s *Storage) Save(_ context.Context, run *Run) error {
	return s.Write(run.Records)
}

// Write overwrites the file with records as an indented JSON array.
func (s *Storage) Write(records []*event.Record) error {
	if records == nil {
		records = []*event.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}

	return nil
}

// Load reads the records of the last saved run. A missing file yields no
// records and no error.
func (s *Storage) Load() ([]*event.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading records: %w", err)
	}

	var records []*event.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}

	return records, nil
}

// GetEvent finds a stored record by event URL or by its ID.
func (s *Storage) GetEvent(key string) (*event.Record, error) {
	records, err := s.Load()
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}

	for _, r := range records {
		if r.URL == key || r.ID() == key {
			return r, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}
