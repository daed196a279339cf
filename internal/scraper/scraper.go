package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/logger"
	"github.com/danisans16/scripts-fomo/internal/tier"
)

const DefaultMaxEventsPerVenue = 50

// Options configures a Scraper. Zero values fall back to defaults.
type Options struct {
	Origin            string
	RAOrigin          string
	Tolerance         float64
	Directory         event.Directory
	MaxEventsPerVenue int
	Logger            *logger.Logger
	Metrics           *logger.Metrics
}

// Scraper walks venues and their events with a DocumentProvider.
type Scraper struct {
	provider DocumentProvider
	matcher  tier.Matcher
	raOrigin string
	dir      event.Directory
	maxEvts  int
	log      *logger.Logger
	metrics  *logger.Metrics
	now      func() time.Time
}

// New creates a Scraper that loads pages through provider.
func New(provider DocumentProvider, opts Options) *Scraper {
	if opts.MaxEventsPerVenue <= 0 {
		opts.MaxEventsPerVenue = DefaultMaxEventsPerVenue
	}
	if opts.RAOrigin == "" {
		opts.RAOrigin = DefaultRAOrigin
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = logger.DefaultMetrics()
	}
	return &Scraper{
		provider: provider,
		matcher:  tier.NewMatcher(opts.Origin, opts.Tolerance),
		raOrigin: opts.RAOrigin,
		dir:      opts.Directory,
		maxEvts:  opts.MaxEventsPerVenue,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		now:      time.Now,
	}
}

// Failure is a unit (venue listing or event page) that produced nothing.
type Failure struct {
	Venue string
	URL   string
	Err   error
}

// RunResult is the outcome of scraping a list of venues.
type RunResult struct {
	Records []*event.Record
	// EmptyVenues lists venues where no event card was found, including
	// venues whose listing failed to load.
	EmptyVenues []string
	Failures    []Failure
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Merge appends the records, empty venues and failures of other, widening
// the time span to cover both runs.
func (r *RunResult) Merge(other *RunResult) {
	if other == nil {
		return
	}
	r.Records = append(r.Records, other.Records...)
	r.EmptyVenues = append(r.EmptyVenues, other.EmptyVenues...)
	r.Failures = append(r.Failures, other.Failures...)
	if r.StartedAt.IsZero() || (!other.StartedAt.IsZero() && other.StartedAt.Before(r.StartedAt)) {
		r.StartedAt = other.StartedAt
	}
	if other.FinishedAt.After(r.FinishedAt) {
		r.FinishedAt = other.FinishedAt
	}
}

// Blocked counts failures caused by verification pages.
func (r *RunResult) Blocked() int {
	n := 0
	for _, f := range r.Failures {
		if errors.Is(f.Err, ErrVerification) {
			n++
		}
	}
	return n
}

// VenueResult is the outcome of one venue.
type VenueResult struct {
	Venue    string
	Events   []EventRef
	Records  []*event.Record
	Failures []Failure
}

// Run scrapes every venue in order. Failures are isolated per venue and
// per event; a cancelled ctx stops the run after the current unit and the
// partial result is returned.
func (s *Scraper) Run(ctx context.Context, venues []string) *RunResult {
	res := &RunResult{StartedAt: s.now()}
	s.metrics.SetGauge("run.venues", float64(len(venues)))

	for _, venue := range venues {
		if ctx.Err() != nil {
			s.log.Warn("Run cancelled", logger.Fields{"remaining_from": venue})
			break
		}

		vr, err := s.ScrapeVenue(ctx, venue)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Venue: venue, URL: s.listingURL(venue), Err: err})
		}
		res.Records = append(res.Records, vr.Records...)
		res.Failures = append(res.Failures, vr.Failures...)
		if len(vr.Events) == 0 {
			res.EmptyVenues = append(res.EmptyVenues, venue)
		}
	}

	res.FinishedAt = s.now()
	s.log.Info("Run finished", logger.Fields{
		"venues":       len(venues),
		"events":       len(res.Records),
		"failed":       len(res.Failures),
		"empty_venues": len(res.EmptyVenues),
		"duration":     res.FinishedAt.Sub(res.StartedAt).String(),
	})
	return res
}

func (s *Scraper) listingURL(venue string) string {
	return ListingURL(s.matcher.Origin, venue)
}

// ScrapeVenue lists a venue's events and scrapes each of them. The returned
// VenueResult is never nil; a non-nil error means the listing itself could
// not be read.
func (s *Scraper) ScrapeVenue(ctx context.Context, venue string) (*VenueResult, error) {
	vr := &VenueResult{Venue: venue}
	log := s.log.With(logger.Fields{"venue": venue})

	refs, err := s.ListEvents(ctx, venue)
	if err != nil {
		s.countFailure(err)
		log.Error("Listing failed", logger.Fields{"url": s.listingURL(venue)}, err)
		return vr, err
	}
	vr.Events = refs
	log.Info("Listing loaded", logger.Fields{"events": len(refs)})

	for i, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		log.Debug("Visiting event", logger.Fields{"url": ref.URL, "index": i + 1, "total": len(refs)})

		rec, err := s.ScrapeEvent(ctx, ref)
		if err != nil {
			log.Error("Event failed", logger.Fields{"url": ref.URL}, err)
			vr.Failures = append(vr.Failures, Failure{Venue: venue, URL: ref.URL, Err: err})
			continue
		}
		vr.Records = append(vr.Records, rec)
	}

	return vr, nil
}

// ListEvents loads a venue listing and returns its event cards, capped at
// the configured maximum. Frames mentioning the venue are searched before
// the main document.
func (s *Scraper) ListEvents(ctx context.Context, venue string) ([]EventRef, error) {
	u := s.listingURL(venue)

	var (
		page *Page
		err  error
	)
	start := time.Now()
	if ll, ok := s.provider.(ListingLoader); ok {
		page, err = ll.LoadListing(ctx, u)
	} else {
		page, err = s.provider.Load(ctx, u)
	}
	s.metrics.RecordTiming("venue.load", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("loading listing: %w", err)
	}
	if err := checkVerification(page); err != nil {
		return nil, err
	}

	for _, f := range ListingFrames(page, venue) {
		doc, err := f.Document()
		if err != nil {
			continue
		}
		if refs := ParseListing(doc, venue, s.matcher.Origin); len(refs) > 0 {
			if len(refs) > s.maxEvts {
				refs = refs[:s.maxEvts]
			}
			return refs, nil
		}
	}
	return nil, nil
}

// ScrapeEvent loads one event page and assembles its record. A page with
// no recognizable ticket data still yields a record, with no releases.
func (s *Scraper) ScrapeEvent(ctx context.Context, ref EventRef) (*event.Record, error) {
	start := time.Now()
	page, err := s.provider.Load(ctx, ref.URL)
	s.metrics.RecordTiming("event.load", time.Since(start))
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	if err := checkVerification(page); err != nil {
		s.countFailure(err)
		return nil, err
	}

	frame := ResolveEventFrame(page, ref.Venue, ref.EventID)
	doc, err := frame.Document()
	if err != nil {
		s.countFailure(err)
		return nil, err
	}

	start = time.Now()
	ext := tier.Extract(doc, frame.Global(tier.PricingVar), s.matcher)
	s.metrics.RecordTiming("event.extract", time.Since(start))

	matched := ext.Matched()
	s.metrics.AddCounter("tiers.matched", int64(matched))
	s.metrics.AddCounter("tiers.unmatched", int64(len(ext.Releases)-matched))

	fields := logger.Fields{
		"url":      ref.URL,
		"frame":    frame.URL,
		"source":   string(ext.Source),
		"releases": len(ext.Releases),
		"matched":  matched,
	}
	if ext.Source == tier.SourceNone {
		s.metrics.IncrCounter("units.empty")
		s.log.Warn("No ticket data found", fields)
	} else {
		s.metrics.IncrCounter("units.ok")
		s.log.Debug("Releases extracted", fields)
	}

	return event.Assemble(ref.Meta(), ext, s.dir), nil
}

func (s *Scraper) countFailure(err error) {
	if errors.Is(err, ErrVerification) {
		s.metrics.IncrCounter("units.blocked")
		return
	}
	s.metrics.IncrCounter("units.failed")
}
