// Package config loads fomo settings from an optional YAML file, a .env file
// and FOMO_* environment variables, in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/logger"
	"github.com/danisans16/scripts-fomo/internal/scraper"
	"github.com/danisans16/scripts-fomo/internal/tier"
)

// Configuration validation errors.
var (
	ErrNoVenues          = errors.New("at least one venue is required")
	ErrNoClubs           = errors.New("at least one club is required when the ra source is enabled")
	ErrUnknownSource     = errors.New("sources must be fourvenues or ra")
	ErrNoSources         = errors.New("at least one source is required")
	ErrVenueMissingID    = errors.New("venue id is required")
	ErrDuplicateVenue    = errors.New("venue ids must be unique")
	ErrInvalidOrigin     = errors.New("origin must be an http(s) URL")
	ErrInvalidTolerance  = errors.New("matching.price_tolerance must be positive")
	ErrMissingOutputPath = errors.New("output.path is required")
	ErrInvalidMaxEvents  = errors.New("max_events_per_venue must be at least 1")
	ErrInvalidTimeout    = errors.New("browser.timeout must be positive")
	ErrInvalidLogLevel   = errors.New("logging.level must be one of: debug, info, warn, error")
)

const (
	DefaultOutputPath = "discosdata.json"
	DefaultMaxEvents  = 50
	DefaultTimeout    = 30 * time.Second
	DefaultSettle     = 1500 * time.Millisecond
	DefaultMaxScrolls = 40
	DefaultEnvFile    = ".env"
)

// Event sources.
const (
	SourceFourvenues = "fourvenues"
	SourceRA         = "ra"
)

// Config represents the complete fomo configuration.
type Config struct {
	Origin            string         `yaml:"origin"`
	Venues            []Venue        `yaml:"venues"`
	Sources           []string       `yaml:"sources"`
	RA                RAConfig       `yaml:"ra"`
	Output            OutputConfig   `yaml:"output"`
	Browser           BrowserConfig  `yaml:"browser"`
	Matching          MatchingConfig `yaml:"matching"`
	MaxEventsPerVenue int            `yaml:"max_events_per_venue"`
	Schedule          string         `yaml:"schedule"`
	Logging           LoggingConfig  `yaml:"logging"`
}

// Venue is a fourvenues venue slug and the name shown in results.
type Venue struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RAConfig selects the Resident Advisor clubs to scrape. Club ids are the
// numbers in ra.co/clubs/{id} URLs.
type RAConfig struct {
	Origin string  `yaml:"origin"`
	Clubs  []Venue `yaml:"clubs"`
}

// OutputConfig defines where results are written. An empty DBPath disables
// the sqlite sink, an empty ICSPath the calendar export.
type OutputConfig struct {
	Path    string `yaml:"path"`
	DBPath  string `yaml:"db_path"`
	ICSPath string `yaml:"ics_path"`
}

// BrowserConfig controls the headless browser document provider.
type BrowserConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Headless   bool          `yaml:"headless"`
	Bin        string        `yaml:"bin"`
	Settle     time.Duration `yaml:"settle"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxScrolls int           `yaml:"max_scrolls"`
}

// MatchingConfig tunes the candidate matcher.
type MatchingConfig struct {
	PriceTolerance float64 `yaml:"price_tolerance"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	venues := make([]Venue, len(defaultVenues))
	copy(venues, defaultVenues)
	clubs := make([]Venue, len(defaultClubs))
	copy(clubs, defaultClubs)

	return &Config{
		Origin:  tier.DefaultOrigin,
		Venues:  venues,
		Sources: []string{SourceFourvenues, SourceRA},
		RA:      RAConfig{Origin: scraper.DefaultRAOrigin, Clubs: clubs},
		Output:  OutputConfig{Path: DefaultOutputPath},
		Browser: BrowserConfig{
			Enabled:    true,
			Headless:   true,
			Settle:     DefaultSettle,
			Timeout:    DefaultTimeout,
			MaxScrolls: DefaultMaxScrolls,
		},
		Matching:          MatchingConfig{PriceTolerance: tier.DefaultTolerance},
		MaxEventsPerVenue: DefaultMaxEvents,
		Logging:           LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty), the .env file in the working directory and the
// environment. The result is validated.
func Load(path string) (*Config, error) {
	return LoadWithEnvFile(path, DefaultEnvFile)
}

// LoadWithEnvFile is Load with an explicit .env location. A missing env
// file is not an error.
func LoadWithEnvFile(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup("FOMO_ORIGIN"); ok {
		c.Origin = v
	}
	if v, ok := lookup("FOMO_OUTPUT"); ok {
		c.Output.Path = v
	}
	if v, ok := lookup("FOMO_DB"); ok {
		c.Output.DBPath = v
	}
	if v, ok := lookup("FOMO_ICS"); ok {
		c.Output.ICSPath = v
	}
	if v, ok := lookup("FOMO_CHROME_BIN"); ok {
		c.Browser.Bin = v
	}
	if v, ok := lookup("FOMO_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup("FOMO_SCHEDULE"); ok {
		c.Schedule = v
	}
	if v, ok := lookup("FOMO_VENUES"); ok && v != "" {
		c.Venues = c.SelectVenues(strings.Split(v, ","))
	}
	if v, ok := lookup("FOMO_SOURCES"); ok && v != "" {
		c.Sources = splitList(v)
	}
	if v, ok := lookup("FOMO_RA_ORIGIN"); ok && v != "" {
		c.RA.Origin = v
	}
	if v, ok := lookup("FOMO_RA_CLUBS"); ok && v != "" {
		c.RA.Clubs = c.SelectClubs(strings.Split(v, ","))
	}

	var err error
	if c.Browser.Enabled, err = envBool("FOMO_BROWSER", c.Browser.Enabled); err != nil {
		return err
	}
	if c.Browser.Headless, err = envBool("FOMO_HEADLESS", c.Browser.Headless); err != nil {
		return err
	}
	if v, ok := lookup("FOMO_PRICE_TOLERANCE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid FOMO_PRICE_TOLERANCE %q: %w", v, err)
		}
		c.Matching.PriceTolerance = f
	}
	if v, ok := lookup("FOMO_MAX_EVENTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FOMO_MAX_EVENTS %q: %w", v, err)
		}
		c.MaxEventsPerVenue = n
	}
	return nil
}

// SelectVenues returns the venues with the given ids, in that order,
// keeping configured names. Unknown ids are kept with the id as name.
func (c *Config) SelectVenues(ids []string) []Venue {
	return selectFrom(c.Venues, ids)
}

// SelectClubs is SelectVenues for the Resident Advisor clubs.
func (c *Config) SelectClubs(ids []string) []Venue {
	return selectFrom(c.RA.Clubs, ids)
}

func selectFrom(list []Venue, ids []string) []Venue {
	known := make(map[string]Venue, len(list))
	for _, v := range list {
		known[v.ID] = v
	}

	var out []Venue
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if v, ok := known[id]; ok {
			out = append(out, v)
		} else {
			out = append(out, Venue{ID: id, Name: id})
		}
	}
	return out
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	for _, s := range c.Sources {
		if s != SourceFourvenues && s != SourceRA {
			return fmt.Errorf("source %q: %w", s, ErrUnknownSource)
		}
	}

	if c.HasSource(SourceFourvenues) {
		if len(c.Venues) == 0 {
			return ErrNoVenues
		}
		if err := checkIDs("venue", c.Venues); err != nil {
			return err
		}
		if !isHTTP(c.Origin) {
			return ErrInvalidOrigin
		}
	}
	if c.HasSource(SourceRA) {
		if len(c.RA.Clubs) == 0 {
			return ErrNoClubs
		}
		if err := checkIDs("club", c.RA.Clubs); err != nil {
			return err
		}
		if !isHTTP(c.RA.Origin) {
			return fmt.Errorf("ra.origin: %w", ErrInvalidOrigin)
		}
	}

	if c.Matching.PriceTolerance <= 0 {
		return ErrInvalidTolerance
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return ErrMissingOutputPath
	}
	if c.MaxEventsPerVenue < 1 {
		return ErrInvalidMaxEvents
	}
	if c.Browser.Enabled && c.Browser.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return ErrInvalidLogLevel
	}
	return nil
}

func checkIDs(kind string, list []Venue) error {
	seen := make(map[string]bool, len(list))
	for i, v := range list {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("%s %d: %w", kind, i, ErrVenueMissingID)
		}
		if seen[v.ID] {
			return fmt.Errorf("%s %q: %w", kind, v.ID, ErrDuplicateVenue)
		}
		seen[v.ID] = true
	}
	return nil
}

func isHTTP(origin string) bool {
	return strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")
}

// HasSource reports whether the named source is enabled.
func (c *Config) HasSource(name string) bool {
	for _, s := range c.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// Directory returns the id to display name mapping of venues and clubs.
// Venue slugs and numeric club ids never collide.
func (c *Config) Directory() event.Directory {
	names := make(map[string]string, len(c.Venues)+len(c.RA.Clubs))
	for _, v := range append(append([]Venue(nil), c.Venues...), c.RA.Clubs...) {
		if v.Name != "" {
			names[v.ID] = v.Name
		}
	}
	return event.NewDirectory(names)
}

// VenueIDs returns the venue slugs in configured order.
func (c *Config) VenueIDs() []string {
	ids := make([]string, len(c.Venues))
	for i, v := range c.Venues {
		ids[i] = v.ID
	}
	return ids
}

// ClubIDs returns the Resident Advisor club ids in configured order.
func (c *Config) ClubIDs() []string {
	ids := make([]string, len(c.RA.Clubs))
	for i, v := range c.RA.Clubs {
		ids[i] = v.ID
	}
	return ids
}

// LogLevel returns the parsed logging level, defaulting to info.
func (c *Config) LogLevel() logger.Level {
	level, _ := logger.ParseLevel(c.Logging.Level)
	return level
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// splitList reads a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
