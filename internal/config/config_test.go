package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FOMO_ORIGIN", "FOMO_OUTPUT", "FOMO_DB", "FOMO_ICS", "FOMO_BROWSER", "FOMO_HEADLESS",
		"FOMO_CHROME_BIN", "FOMO_PRICE_TOLERANCE", "FOMO_LOG_LEVEL",
		"FOMO_SCHEDULE", "FOMO_MAX_EVENTS", "FOMO_VENUES",
		"FOMO_SOURCES", "FOMO_RA_ORIGIN", "FOMO_RA_CLUBS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if len(cfg.Venues) != 25 {
		t.Errorf("default venues = %d, want 25", len(cfg.Venues))
	}
	if cfg.Matching.PriceTolerance != 0.5 {
		t.Errorf("PriceTolerance = %v, want 0.5", cfg.Matching.PriceTolerance)
	}
	if got := cfg.Directory().DisplayName("sala-b1"); got != "Sala B" {
		t.Errorf("DisplayName(sala-b1) = %q, want Sala B", got)
	}

	if len(cfg.RA.Clubs) != 9 || cfg.RA.Origin != "https://es.ra.co" {
		t.Errorf("RA = %+v, want the nine default clubs on es.ra.co", cfg.RA)
	}
	if !cfg.HasSource(SourceFourvenues) || !cfg.HasSource(SourceRA) {
		t.Errorf("Sources = %v, want both enabled", cfg.Sources)
	}
	if got := cfg.Directory().DisplayName("911"); got != "Razzmatazz" {
		t.Errorf("DisplayName(911) = %q, want Razzmatazz", got)
	}

	// Default must hand out an independent venue slice.
	cfg.Venues[0].Name = "changed"
	if Default().Venues[0].Name != "Twenties" {
		t.Error("Default() shares venue storage between calls")
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "fomo.yaml", `
origin: https://example.test/
venues:
  - id: duvet
    name: Duvet
  - id: sala-b1
output:
  path: out/events.json
  db_path: out/events.db
  ics_path: out/events.ics
browser:
  enabled: false
  timeout: 45s
matching:
  price_tolerance: 0.25
max_events_per_venue: 5
schedule: "0 */30 * * * *"
logging:
  level: debug
`)

	cfg, err := LoadWithEnvFile(path, "")
	if err != nil {
		t.Fatalf("LoadWithEnvFile() error = %v", err)
	}

	if cfg.Origin != "https://example.test/" {
		t.Errorf("Origin = %q", cfg.Origin)
	}
	if len(cfg.Venues) != 2 || cfg.Venues[1].ID != "sala-b1" {
		t.Errorf("Venues = %+v, want the two configured venues", cfg.Venues)
	}
	if got := cfg.Directory().DisplayName("sala-b1"); got != "sala-b1" {
		t.Errorf("unnamed venue DisplayName = %q, want the id", got)
	}
	if cfg.Output.DBPath != "out/events.db" {
		t.Errorf("DBPath = %q", cfg.Output.DBPath)
	}
	if cfg.Output.ICSPath != "out/events.ics" {
		t.Errorf("ICSPath = %q", cfg.Output.ICSPath)
	}
	if cfg.Browser.Enabled {
		t.Error("Browser.Enabled = true, want false")
	}
	if cfg.Browser.Timeout != 45*time.Second {
		t.Errorf("Browser.Timeout = %v, want 45s", cfg.Browser.Timeout)
	}
	if !cfg.Browser.Headless {
		t.Error("Browser.Headless default lost when not set in YAML")
	}
	if cfg.Matching.PriceTolerance != 0.25 {
		t.Errorf("PriceTolerance = %v", cfg.Matching.PriceTolerance)
	}
	if cfg.MaxEventsPerVenue != 5 {
		t.Errorf("MaxEventsPerVenue = %d", cfg.MaxEventsPerVenue)
	}
	if cfg.LogLevel() != "DEBUG" {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOMO_OUTPUT", "env.json")
	t.Setenv("FOMO_BROWSER", "false")
	t.Setenv("FOMO_PRICE_TOLERANCE", "1.5")
	t.Setenv("FOMO_MAX_EVENTS", "3")
	t.Setenv("FOMO_VENUES", "duvet, unknown-club")
	t.Setenv("FOMO_LOG_LEVEL", "warn")

	cfg, err := LoadWithEnvFile("", "")
	if err != nil {
		t.Fatalf("LoadWithEnvFile() error = %v", err)
	}

	if cfg.Output.Path != "env.json" {
		t.Errorf("Output.Path = %q", cfg.Output.Path)
	}
	if cfg.Browser.Enabled {
		t.Error("Browser.Enabled = true, want false")
	}
	if cfg.Matching.PriceTolerance != 1.5 {
		t.Errorf("PriceTolerance = %v", cfg.Matching.PriceTolerance)
	}
	if cfg.MaxEventsPerVenue != 3 {
		t.Errorf("MaxEventsPerVenue = %d", cfg.MaxEventsPerVenue)
	}
	ids := cfg.VenueIDs()
	if len(ids) != 2 || ids[0] != "duvet" || ids[1] != "unknown-club" {
		t.Errorf("VenueIDs() = %v", ids)
	}
	if got := cfg.Directory().DisplayName("duvet"); got != "Duvet" {
		t.Errorf("DisplayName(duvet) = %q, want configured name kept", got)
	}
}

func TestLoad_EmptyVenueListEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOMO_VENUES", "  ")
	t.Setenv("FOMO_RA_CLUBS", "")
	t.Setenv("FOMO_SOURCES", "")

	cfg, err := LoadWithEnvFile("", "")
	if err != nil {
		t.Fatalf("LoadWithEnvFile() error = %v, want blank lists treated as unset", err)
	}
	if len(cfg.Venues) != 25 || len(cfg.RA.Clubs) != 9 || len(cfg.Sources) != 2 {
		t.Errorf("venues = %d, clubs = %d, sources = %v; want defaults", len(cfg.Venues), len(cfg.RA.Clubs), cfg.Sources)
	}
}

func TestLoad_ResidentAdvisor(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "fomo.yaml", `
sources: [ra]
venues: []
ra:
  clubs:
    - id: "911"
      name: Razzmatazz
    - id: "60710"
`)
	t.Setenv("FOMO_RA_ORIGIN", "http://ra.test")

	cfg, err := LoadWithEnvFile(path, "")
	if err != nil {
		t.Fatalf("LoadWithEnvFile() error = %v, want ra-only config without venues to be valid", err)
	}
	if cfg.HasSource(SourceFourvenues) {
		t.Error("fourvenues source enabled, want ra only")
	}
	if cfg.RA.Origin != "http://ra.test" {
		t.Errorf("RA.Origin = %q", cfg.RA.Origin)
	}
	if ids := cfg.ClubIDs(); len(ids) != 2 || ids[1] != "60710" {
		t.Errorf("ClubIDs() = %v", ids)
	}

	t.Setenv("FOMO_RA_CLUBS", "60710, 999")
	t.Setenv("FOMO_SOURCES", "RA, fourvenues")
	t.Setenv("FOMO_VENUES", "duvet")
	cfg, err = LoadWithEnvFile(path, "")
	if err != nil {
		t.Fatalf("LoadWithEnvFile() error = %v", err)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0] != SourceRA {
		t.Errorf("Sources = %v, want [ra fourvenues]", cfg.Sources)
	}
	if ids := cfg.ClubIDs(); len(ids) != 2 || ids[0] != "60710" || ids[1] != "999" {
		t.Errorf("ClubIDs() = %v", ids)
	}
	if got := cfg.Directory().DisplayName("999"); got != "999" {
		t.Errorf("DisplayName(999) = %q, want the id", got)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "FOMO_DB=from-dotenv.db\nFOMO_OUTPUT=from-dotenv.json\n")
	t.Setenv("FOMO_OUTPUT", "from-process.json")

	cfg, err := LoadWithEnvFile("", envFile)
	if err != nil {
		t.Fatalf("LoadWithEnvFile() error = %v", err)
	}

	if cfg.Output.DBPath != "from-dotenv.db" {
		t.Errorf("DBPath = %q, want value from .env", cfg.Output.DBPath)
	}
	if cfg.Output.Path != "from-process.json" {
		t.Errorf("Output.Path = %q, process env must win over .env", cfg.Output.Path)
	}
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)

	if _, err := LoadWithEnvFile("", filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadWithEnvFile() error = %v, want nil for missing .env", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "empty venue list",
			yaml:    "venues: []\n",
			wantErr: ErrNoVenues,
		},
		{
			name:    "zero tolerance",
			env:     map[string]string{"FOMO_PRICE_TOLERANCE": "0"},
			wantErr: ErrInvalidTolerance,
		},
		{
			name:    "bad origin",
			env:     map[string]string{"FOMO_ORIGIN": "fourvenues.com"},
			wantErr: ErrInvalidOrigin,
		},
		{
			name:    "duplicate venues",
			yaml:    "venues: [{id: duvet}, {id: duvet}]\n",
			wantErr: ErrDuplicateVenue,
		},
		{
			name:    "bad log level",
			env:     map[string]string{"FOMO_LOG_LEVEL": "loud"},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "unknown source",
			env:     map[string]string{"FOMO_SOURCES": "fourvenues,eventbrite"},
			wantErr: ErrUnknownSource,
		},
		{
			name:    "no sources",
			yaml:    "sources: []\n",
			wantErr: ErrNoSources,
		},
		{
			name:    "ra without clubs",
			yaml:    "ra: {clubs: []}\n",
			wantErr: ErrNoClubs,
		},
		{
			name:    "duplicate clubs",
			yaml:    "ra: {clubs: [{id: \"911\"}, {id: \"911\"}]}\n",
			wantErr: ErrDuplicateVenue,
		},
		{
			name:    "bad ra origin",
			env:     map[string]string{"FOMO_RA_ORIGIN": "es.ra.co"},
			wantErr: ErrInvalidOrigin,
		},
		{
			name:    "zero max events",
			yaml:    "max_events_per_venue: 0\n",
			wantErr: ErrInvalidMaxEvents,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.yaml != "" {
				path = writeFile(t, "fomo.yaml", tt.yaml)
			}

			_, err := LoadWithEnvFile(path, "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadWithEnvFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MalformedInput(t *testing.T) {
	clearEnv(t)

	if _, err := LoadWithEnvFile(writeFile(t, "bad.yaml", "venues: [\n"), ""); err == nil {
		t.Error("expected YAML parse error")
	}
	if _, err := LoadWithEnvFile(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("expected error for missing config file")
	}

	t.Setenv("FOMO_MAX_EVENTS", "many")
	if _, err := LoadWithEnvFile("", ""); err == nil {
		t.Error("expected error for non-numeric FOMO_MAX_EVENTS")
	}
}
