package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/logger"
)

// ErrNoEventData is returned for an event page without name or dates.
var ErrNoEventData = errors.New("no event metadata on page")

// RunClubs scrapes Resident Advisor clubs in order. An event listed by more
// than one club is scraped once, under the first club that lists it.
// Failures are isolated per club and per event as in Run.
func (s *Scraper) RunClubs(ctx context.Context, clubs []string) *RunResult {
	res := &RunResult{StartedAt: s.now()}
	s.metrics.SetGauge("run.clubs", float64(len(clubs)))
	seen := make(map[string]bool)

	for _, club := range clubs {
		if ctx.Err() != nil {
			s.log.Warn("Run cancelled", logger.Fields{"remaining_from": club})
			break
		}

		vr, err := s.ScrapeClub(ctx, club, seen)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Venue: club, URL: s.clubURL(club), Err: err})
		}
		res.Records = append(res.Records, vr.Records...)
		res.Failures = append(res.Failures, vr.Failures...)
		if len(vr.Events) == 0 {
			res.EmptyVenues = append(res.EmptyVenues, club)
		}
	}

	res.FinishedAt = s.now()
	s.log.Info("Club run finished", logger.Fields{
		"clubs":       len(clubs),
		"events":      len(res.Records),
		"failed":      len(res.Failures),
		"empty_clubs": len(res.EmptyVenues),
		"duration":    res.FinishedAt.Sub(res.StartedAt).String(),
	})
	return res
}

func (s *Scraper) clubURL(club string) string {
	return ClubURL(s.raOrigin, club)
}

// ScrapeClub lists a club's events and scrapes those not already in seen,
// adding them to it. A nil seen disables the check.
func (s *Scraper) ScrapeClub(ctx context.Context, club string, seen map[string]bool) (*VenueResult, error) {
	vr := &VenueResult{Venue: club}
	log := s.log.With(logger.Fields{"club": club})

	refs, err := s.ListClubEvents(ctx, club)
	if err != nil {
		s.countFailure(err)
		log.Error("Club listing failed", logger.Fields{"url": s.clubURL(club)}, err)
		return vr, err
	}
	vr.Events = refs
	log.Info("Club listing loaded", logger.Fields{"events": len(refs)})

	for i, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		if seen != nil {
			if seen[ref.URL] {
				log.Debug("Event already scraped for another club", logger.Fields{"url": ref.URL})
				continue
			}
			seen[ref.URL] = true
		}
		log.Debug("Visiting event", logger.Fields{"url": ref.URL, "index": i + 1, "total": len(refs)})

		rec, err := s.ScrapeClubEvent(ctx, ref)
		if err != nil {
			log.Error("Event failed", logger.Fields{"url": ref.URL}, err)
			vr.Failures = append(vr.Failures, Failure{Venue: club, URL: ref.URL, Err: err})
			continue
		}
		vr.Records = append(vr.Records, rec)
	}

	return vr, nil
}

// ListClubEvents loads a club listing and returns references to the events
// it links, capped at the configured maximum.
func (s *Scraper) ListClubEvents(ctx context.Context, club string) ([]EventRef, error) {
	u := s.clubURL(club)

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
	s.metrics.RecordTiming("club.load", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("loading club listing: %w", err)
	}
	if err := checkVerification(page); err != nil {
		return nil, err
	}

	var refs []EventRef
	for _, id := range ClubEventIDs(page.Main.HTML) {
		refs = append(refs, EventRef{Venue: club, EventID: id, URL: RAEventURL(s.raOrigin, id)})
		if len(refs) == s.maxEvts {
			break
		}
	}
	return refs, nil
}

// ScrapeClubEvent loads one Resident Advisor event page and assembles its
// record from the JSON-LD block, the genre links and the embedded ticket
// objects. A page with neither name nor dates fails with ErrNoEventData.
func (s *Scraper) ScrapeClubEvent(ctx context.Context, ref EventRef) (*event.Record, error) {
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

	doc, err := page.Main.Document()
	if err != nil {
		s.countFailure(err)
		return nil, err
	}

	ld := ParseEventLD(doc)
	if !ld.Found() {
		s.metrics.IncrCounter("units.empty")
		return nil, fmt.Errorf("%w: %s", ErrNoEventData, ref.URL)
	}

	start = time.Now()
	ext := TicketReleases(Tickets(doc), ref.URL)
	s.metrics.RecordTiming("event.extract", time.Since(start))
	s.metrics.AddCounter("tickets.found", int64(ext.Candidates))

	fields := logger.Fields{
		"url":      ref.URL,
		"releases": len(ext.Releases),
		"current":  ext.Current,
	}
	if len(ext.Releases) == 0 {
		s.metrics.IncrCounter("units.empty")
		s.log.Warn("No tickets found", fields)
	} else {
		s.metrics.IncrCounter("units.ok")
		s.log.Debug("Tickets extracted", fields)
	}

	return event.Assemble(RAMeta(ref.Venue, ref.URL, ld, Genres(doc)), ext, s.dir), nil
}
