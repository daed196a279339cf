package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danisans16/scripts-fomo/internal/calendar"
	"github.com/danisans16/scripts-fomo/internal/config"
	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/filter"
	"github.com/danisans16/scripts-fomo/internal/logger"
	"github.com/danisans16/scripts-fomo/internal/scheduler"
	"github.com/danisans16/scripts-fomo/internal/scraper"
	"github.com/danisans16/scripts-fomo/internal/storage"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// errNewEvents makes Execute exit with ExitNewEvents.
var errNewEvents = errors.New("new events found")

type globalFlags struct {
	configPath string
	logLevel   string
	format     string
	sortBy     string
	verbose    bool
	upcoming   bool

	dates    string
	names    []string
	weekends bool
	maxPrice float64
	filter   *filter.Filter
}

type scrapeFlags struct {
	venues    []string
	clubs     []string
	sources   []string
	output    string
	db        string
	ics       string
	noBrowser bool
	maxEvents int
	tolerance float64
	exitCode  bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "fomo",
		Short: "Collect ticket releases from fourvenues and Resident Advisor event pages",
		Long: `fomo walks fourvenues venue listings and Resident Advisor club listings,
visits every event page and extracts its ticket releases (name, price and
purchase link), writing one record per event.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	cmd.PersistentFlags().StringVar(&g.format, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().StringVar(&g.sortBy, "sort", "", "Sort output by: date, venue or name (default: scrape order)")
	cmd.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Show releases of every event in text output")
	cmd.PersistentFlags().BoolVar(&g.upcoming, "upcoming", false, "Only show events dated today or later")
	cmd.PersistentFlags().StringVar(&g.dates, "dates", "", "Only show events in a date range, e.g. \"Oct 24-31\" or \"noviembre\"")
	cmd.PersistentFlags().StringSliceVar(&g.names, "match", nil, "Only show events whose name contains this text (repeatable)")
	cmd.PersistentFlags().BoolVar(&g.weekends, "weekends", false, "Only show Friday and Saturday events")
	cmd.PersistentFlags().Float64Var(&g.maxPrice, "max-price", 0, "Only show events whose release on sale costs at most this many euros")

	cmd.AddCommand(newScrapeCmd(g), newScheduleCmd(g), newExtractCmd(g), newRunsCmd(g), newShowCmd(g))
	return cmd
}

func newScrapeCmd(g *globalFlags) *cobra.Command {
	f := &scrapeFlags{}
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape all configured venues and clubs once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, f)
			if err != nil {
				return err
			}
			result, err := scrape(cmd.Context(), cfg, g)
			if err != nil {
				return err
			}
			if err := WriteOutput(cmd.OutOrStdout(), result, OutputFormat(g.format), g.verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if f.exitCode && result.NewEventCount > 0 {
				return errNewEvents
			}
			return nil
		},
	}
	addScrapeFlags(cmd, f)
	cmd.Flags().BoolVar(&f.exitCode, "exit-code", false, fmt.Sprintf("Exit with status %d when new events are found", ExitNewEvents))
	return cmd
}

func newScheduleCmd(g *globalFlags) *cobra.Command {
	f := &scrapeFlags{}
	var spec string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Scrape repeatedly on a cron schedule",
		Long: `Runs a scrape immediately and then on every tick of the cron schedule
until interrupted. A tick is skipped while the previous scrape is running.
Schedules take five fields, six with leading seconds, or descriptors such
as "@every 30m".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g, f)
			if err != nil {
				return err
			}
			if spec != "" {
				cfg.Schedule = spec
			}
			if cfg.Schedule == "" {
				return fmt.Errorf("no schedule: pass --cron or set schedule in the config")
			}

			out := cmd.OutOrStdout()
			s, err := scheduler.New(cfg.Schedule, func(ctx context.Context) error {
				result, err := scrape(ctx, cfg, g)
				if err != nil {
					return err
				}
				return WriteOutput(out, result, OutputFormat(g.format), g.verbose)
			}, logger.Default())
			if err != nil {
				return err
			}
			return s.Run(cmd.Context(), true)
		},
	}
	addScrapeFlags(cmd, f)
	cmd.Flags().StringVar(&spec, "cron", "", "Cron schedule (overrides config)")
	return cmd
}

func addScrapeFlags(cmd *cobra.Command, f *scrapeFlags) {
	cmd.Flags().StringSliceVar(&f.venues, "venue", nil, "Venue slug to scrape (repeatable; default: all configured)")
	cmd.Flags().StringSliceVar(&f.clubs, "club", nil, "Resident Advisor club id to scrape (repeatable; default: all configured)")
	cmd.Flags().StringSliceVar(&f.sources, "source", nil, "Source to scrape: fourvenues or ra (repeatable; default: from config)")
	cmd.Flags().StringVar(&f.output, "output", "", "JSON output file (overrides config)")
	cmd.Flags().StringVar(&f.db, "db", "", "sqlite database to append runs to (overrides config)")
	cmd.Flags().StringVar(&f.ics, "ics", "", "iCalendar file to export the reported events to (overrides config)")
	cmd.Flags().BoolVar(&f.noBrowser, "no-browser", false, "Fetch pages over plain HTTP instead of a headless browser")
	cmd.Flags().IntVar(&f.maxEvents, "max-events", 0, "Maximum events per venue (overrides config)")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Price matching tolerance in euros (overrides config)")
}

// loadConfig loads the configuration, applies command-line overrides and
// installs the default logger.
func loadConfig(g *globalFlags, f *scrapeFlags) (*config.Config, error) {
	format := OutputFormat(strings.ToLower(g.format))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", g.format)
	}
	g.format = string(format)
	if _, err := parseSortOrder(g.sortBy); err != nil {
		return nil, err
	}
	flt, err := buildFilter(g, time.Now())
	if err != nil {
		return nil, err
	}
	g.filter = flt

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	if f != nil {
		if len(f.venues) > 0 {
			cfg.Venues = cfg.SelectVenues(f.venues)
		}
		if len(f.clubs) > 0 {
			cfg.RA.Clubs = cfg.SelectClubs(f.clubs)
		}
		if len(f.sources) > 0 {
			cfg.Sources = nil
			for _, src := range f.sources {
				cfg.Sources = append(cfg.Sources, strings.ToLower(strings.TrimSpace(src)))
			}
		}
		if f.output != "" {
			cfg.Output.Path = f.output
		}
		if f.db != "" {
			cfg.Output.DBPath = f.db
		}
		if f.ics != "" {
			cfg.Output.ICSPath = f.ics
		}
		if f.noBrowser {
			cfg.Browser.Enabled = false
		}
		if f.maxEvents > 0 {
			cfg.MaxEventsPerVenue = f.maxEvents
		}
		if f.tolerance > 0 {
			cfg.Matching.PriceTolerance = f.tolerance
		}
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.SetDefault(logger.New(cfg.LogLevel(), os.Stderr))
	return cfg, nil
}

func buildFilter(g *globalFlags, now time.Time) (*filter.Filter, error) {
	f := filter.NewFilter()
	if g.dates != "" {
		from, to, err := filter.ParseDateRange(g.dates, now)
		if err != nil {
			return nil, fmt.Errorf("invalid --dates: %w", err)
		}
		f.DateFrom, f.DateTo = from, to
	}
	if len(g.names) > 0 {
		f.Names = g.names
	}
	if g.maxPrice < 0 {
		return nil, fmt.Errorf("invalid --max-price: %v", g.maxPrice)
	}
	f.WeekendsOnly = g.weekends
	f.MaxPrice = g.maxPrice
	return f, nil
}

// newProvider picks the document provider for cfg. The returned function
// releases it.
func newProvider(cfg *config.Config) (scraper.DocumentProvider, func(), error) {
	if !cfg.Browser.Enabled {
		return scraper.NewHTTPProvider(scraper.HTTPOptions{
			Timeout:    cfg.Browser.Timeout,
			MaxRetries: 2,
		}), func() {}, nil
	}

	p, err := scraper.NewRodProvider(scraper.RodConfig{
		Headless:   cfg.Browser.Headless,
		Bin:        cfg.Browser.Bin,
		Settle:     cfg.Browser.Settle,
		Timeout:    cfg.Browser.Timeout,
		MaxScrolls: cfg.Browser.MaxScrolls,
	})
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("Closing browser failed", logger.Fields{"error": err.Error()})
		}
	}, nil
}

// scrape runs one pass over the configured sources, persists the records
// and compares them with the previous results.
func scrape(ctx context.Context, cfg *config.Config, g *globalFlags) (*OutputResult, error) {
	store, err := storage.New(cfg.Output.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	sinks := storage.MultiSink{store}
	var db *storage.SQLiteSink
	if cfg.Output.DBPath != "" {
		db, err = storage.NewSQLite(cfg.Output.DBPath)
		if err != nil {
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, db)
	}

	previous := loadPrevious(ctx, store, db)

	provider, release, err := newProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("starting document provider: %w", err)
	}
	defer release()

	s := scraper.New(provider, scraper.Options{
		Origin:            cfg.Origin,
		RAOrigin:          cfg.RA.Origin,
		Tolerance:         cfg.Matching.PriceTolerance,
		Directory:         cfg.Directory(),
		MaxEventsPerVenue: cfg.MaxEventsPerVenue,
	})

	logger.Info("Run starting", logger.Fields{
		"sources": strings.Join(cfg.Sources, ","),
		"venues":  len(cfg.Venues),
		"clubs":   len(cfg.RA.Clubs),
		"output":  store.Path(),
	})
	res := &scraper.RunResult{}
	if cfg.HasSource(config.SourceFourvenues) {
		res.Merge(s.Run(ctx, cfg.VenueIDs()))
	}
	if cfg.HasSource(config.SourceRA) && ctx.Err() == nil {
		res.Merge(s.RunClubs(ctx, cfg.ClubIDs()))
	}

	run := &storage.Run{
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
		Records:     res.Records,
		EmptyVenues: res.EmptyVenues,
		Failed:      len(res.Failures),
	}
	// Persist even if ctx was cancelled mid-run so partial work survives.
	if err := sinks.Save(context.WithoutCancel(ctx), run); err != nil {
		return nil, fmt.Errorf("saving results: %w", err)
	}

	diff := event.Diff(previous, res.Records)

	now := time.Now()
	records := make([]*event.Record, 0, len(res.Records))
	for _, rec := range res.Records {
		if !g.upcoming || rec.IsUpcoming(now) {
			records = append(records, rec)
		}
	}
	if g.filter != nil {
		records = g.filter.Apply(records, now)
	}
	order, _ := parseSortOrder(g.sortBy)
	sortRecords(records, order, now)

	if cfg.Output.ICSPath != "" {
		if err := writeCalendar(cfg.Output.ICSPath, records, now); err != nil {
			return nil, err
		}
	}

	return &OutputResult{
		CheckedAt:     res.FinishedAt.UTC(),
		RunID:         run.ID,
		Venues:        scrapedUnits(cfg),
		Events:        records,
		EventCount:    len(records),
		NewEventCount: len(diff.NewEvents),
		Changes:       changesOnly(diff.Changes),
		EmptyVenues:   res.EmptyVenues,
		Failed:        len(res.Failures),
		Blocked:       res.Blocked(),
		OutputPath:    store.Path(),
		Filter:        filterDescription(g.filter),
	}, nil
}

// loadPrevious returns the records of the last run for change detection.
// The JSON output is preferred; when it is missing or unreadable the latest
// run in the database stands in.
func loadPrevious(ctx context.Context, store *storage.Storage, db *storage.SQLiteSink) []*event.Record {
	previous, err := store.Load()
	if err != nil {
		logger.Warn("Previous results unreadable", logger.Fields{"path": store.Path(), "error": err.Error()})
		previous = nil
	}
	if previous != nil || db == nil {
		return previous
	}

	previous, err = db.Latest(ctx)
	if err != nil {
		// Without a baseline every event is reported as new.
		logger.Warn("Previous run unreadable", logger.Fields{"error": err.Error()})
		return nil
	}
	if previous != nil {
		logger.Info("Comparing against latest stored run", logger.Fields{"events": len(previous)})
	}
	return previous
}

// scrapedUnits lists the venue slugs and club ids of the enabled sources.
func scrapedUnits(cfg *config.Config) []string {
	var units []string
	if cfg.HasSource(config.SourceFourvenues) {
		units = append(units, cfg.VenueIDs()...)
	}
	if cfg.HasSource(config.SourceRA) {
		units = append(units, cfg.ClubIDs()...)
	}
	return units
}

func filterDescription(f *filter.Filter) string {
	if f == nil || f.IsEmpty() {
		return ""
	}
	return f.String()
}

// writeCalendar exports the dated records. A run without dated records
// leaves any previous file in place.
func writeCalendar(path string, records []*event.Record, now time.Time) error {
	ics := calendar.GenerateBulkICS(records, "fomo", now)
	if ics == "" {
		logger.Info("No dated events to export", logger.Fields{"path": path})
		return nil
	}
	path, err := storage.ExpandHome(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating calendar directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(ics), 0644); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// changesOnly drops the "new event" entries, which the result reports as a
// count.
func changesOnly(all []*event.Change) []*event.Change {
	out := make([]*event.Change, 0, len(all))
	for _, c := range all {
		if c.Type != event.ChangeNew {
			out = append(out, c)
		}
	}
	return out
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errNewEvents):
		return ExitNewEvents
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
}
