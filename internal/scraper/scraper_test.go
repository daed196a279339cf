package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/logger"
	"github.com/danisans16/scripts-fomo/internal/tier"
)

const origin = "https://www.fourvenues.com"

// fakeProvider serves canned pages by URL.
type fakeProvider struct {
	pages  map[string]*Page
	errs   map[string]error
	loaded []string
}

func (f *fakeProvider) Load(_ context.Context, url string) (*Page, error) {
	f.loaded = append(f.loaded, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s: status 404", ErrNavigation, url)
}

// scrollingProvider also implements ListingLoader.
type scrollingProvider struct {
	fakeProvider
	listings int
}

func (s *scrollingProvider) LoadListing(ctx context.Context, url string) (*Page, error) {
	s.listings++
	return s.Load(ctx, url)
}

func newTestScraper(p DocumentProvider, maxEvents int) (*Scraper, *logger.Metrics) {
	metrics := logger.NewMetrics()
	s := New(p, Options{
		Origin:            origin,
		Directory:         event.NewDirectory(map[string]string{"sala-b1": "Sala B"}),
		MaxEventsPerVenue: maxEvents,
		Logger:            logger.New(logger.LevelDebug, io.Discard),
		Metrics:           metrics,
	})
	return s, metrics
}

func fixtureProvider(t *testing.T) *fakeProvider {
	t.Helper()
	listing := loadFixture(t, "listing.html")
	eventHTML := loadFixture(t, "event.html")

	e1 := EventURL(origin, "sala-b1", "e1", "AB12")
	e2 := EventURL(origin, "sala-b1", "e2", "CD34")

	return &fakeProvider{
		pages: map[string]*Page{
			// Cards live in the venue iframe; the host page has none.
			ListingURL(origin, "sala-b1"): {
				Main:   Frame{URL: "https://host.test/", HTML: "<html><body></body></html>"},
				Frames: []Frame{{URL: origin + "/es/iframe/sala-b1?theme=dark", HTML: listing}},
			},
			ListingURL(origin, "colors"): {
				Main: Frame{URL: ListingURL(origin, "colors"), HTML: "<p>No hay eventos</p>"},
			},
			ListingURL(origin, "blocked-club"): {
				Main: Frame{URL: ListingURL(origin, "blocked-club"), HTML: "<title>Just a moment...</title>"},
			},
			e1: {
				Main:   Frame{URL: e1, HTML: "<html><body><p>wrapper</p></body></html>"},
				Frames: []Frame{{URL: origin + "/es/iframe/sala-b1/events/e1-AB12", HTML: eventHTML}},
			},
		},
		errs: map[string]error{
			e2: fmt.Errorf("%w: %s", ErrLoadTimeout, e2),
		},
	}
}

func TestScraper_Run(t *testing.T) {
	p := fixtureProvider(t)
	s, metrics := newTestScraper(p, 10)

	res := s.Run(context.Background(), []string{"sala-b1", "colors", "blocked-club"})

	if len(res.Records) != 1 {
		t.Fatalf("Run() produced %d records, want 1", len(res.Records))
	}

	rec := res.Records[0]
	if rec.Venue != "Sala B" {
		t.Errorf("Venue = %q, want display name", rec.Venue)
	}
	if rec.EventName != "Techno Night" || rec.Date != "VIE. 24 OCT." {
		t.Errorf("listing metadata not carried: %+v", rec)
	}
	if rec.CurrentRelease != "Acceso General" {
		t.Errorf("CurrentRelease = %q, want Acceso General", rec.CurrentRelease)
	}

	wantReleases := []struct{ name, price, url string }{
		{"Acceso General", "15€", origin + "/es/sala-b1/events/e1-AB12/T-GEN"},
		{"Early", "20€", origin + "/es/sala-b1/events/e1-AB12/T-EARLY"},
		{"Late", "30€", ""},
	}
	if len(rec.Releases) != len(wantReleases) {
		t.Fatalf("got %d releases, want %d: %+v", len(rec.Releases), len(wantReleases), rec.Releases)
	}
	for i, want := range wantReleases {
		got := rec.Releases[i]
		if got.Name != want.name || got.Price != want.price || got.URL != want.url {
			t.Errorf("release %d = %+v, want %+v", i, got, want)
		}
	}
	if rec.Flat[3] != (event.Slot{}) {
		t.Errorf("slot 4 = %+v, want empty", rec.Flat[3])
	}

	if len(res.EmptyVenues) != 2 || res.EmptyVenues[0] != "colors" || res.EmptyVenues[1] != "blocked-club" {
		t.Errorf("EmptyVenues = %v, want [colors blocked-club]", res.EmptyVenues)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("Failures = %+v, want the timed-out event and the blocked venue", res.Failures)
	}
	if !errors.Is(res.Failures[0].Err, ErrLoadTimeout) {
		t.Errorf("first failure = %v, want ErrLoadTimeout", res.Failures[0].Err)
	}
	if res.Blocked() != 1 {
		t.Errorf("Blocked() = %d, want 1", res.Blocked())
	}
	if res.FinishedAt.Before(res.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}

	counters := map[string]int64{
		"units.ok":        1,
		"units.failed":    1,
		"units.blocked":   1,
		"units.empty":     0,
		"tiers.matched":   2,
		"tiers.unmatched": 1,
	}
	for name, want := range counters {
		if got := metrics.Counter(name); got != want {
			t.Errorf("counter %s = %d, want %d", name, got, want)
		}
	}
}

func TestScraper_MaxEventsPerVenue(t *testing.T) {
	p := fixtureProvider(t)
	s, _ := newTestScraper(p, 1)

	refs, err := s.ListEvents(context.Background(), "sala-b1")
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(refs) != 1 || refs[0].EventID != "e1" {
		t.Errorf("ListEvents() = %+v, want only the first card", refs)
	}
}

func TestScraper_PrefersListingLoader(t *testing.T) {
	p := &scrollingProvider{fakeProvider: *fixtureProvider(t)}
	s, _ := newTestScraper(p, 10)

	if _, err := s.ListEvents(context.Background(), "colors"); err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if p.listings != 1 {
		t.Errorf("LoadListing called %d times, want 1", p.listings)
	}
}

func TestScraper_ScrapeEvent_NoData(t *testing.T) {
	ref := EventRef{Venue: "duvet", EventID: "x", Code: "y", Name: "Empty", URL: EventURL(origin, "duvet", "x", "y")}
	p := &fakeProvider{pages: map[string]*Page{
		ref.URL: {Main: Frame{URL: ref.URL, HTML: "<html><body><p>Evento agotado</p></body></html>"}},
	}}
	s, metrics := newTestScraper(p, 10)

	rec, err := s.ScrapeEvent(context.Background(), ref)
	if err != nil {
		t.Fatalf("ScrapeEvent() error = %v", err)
	}
	if len(rec.Releases) != 0 || rec.CurrentRelease != "" {
		t.Errorf("record = %+v, want no releases", rec)
	}
	if rec.Venue != "duvet" {
		t.Errorf("Venue = %q, want id when not in directory", rec.Venue)
	}
	for i, slot := range rec.Flat {
		if slot != (event.Slot{}) {
			t.Errorf("slot %d = %+v, want empty", i+1, slot)
		}
	}
	if metrics.Counter("units.empty") != 1 {
		t.Errorf("units.empty = %d, want 1", metrics.Counter("units.empty"))
	}
}

func TestScraper_ScrapeEvent_PageGlobal(t *testing.T) {
	ref := EventRef{Venue: "duvet", EventID: "g1", Code: "z", URL: EventURL(origin, "duvet", "g1", "z")}
	global := json.RawMessage(`{"entradas":[{"nombre":"Lista","precio":"8,50","opciones":[]}]}`)
	p := &fakeProvider{pages: map[string]*Page{
		ref.URL: {Main: Frame{
			URL:     ref.URL,
			HTML:    `<div onclick="ticketsRatesComponent.onEmitTicket('/es/duvet/events/g1-z', 'L1')">Lista 8,50 €</div>`,
			Globals: map[string]json.RawMessage{tier.PricingVar: global},
		}},
	}}
	s, _ := newTestScraper(p, 10)

	rec, err := s.ScrapeEvent(context.Background(), ref)
	if err != nil {
		t.Fatalf("ScrapeEvent() error = %v", err)
	}
	if len(rec.Releases) != 1 {
		t.Fatalf("got %d releases, want 1", len(rec.Releases))
	}
	got := rec.Releases[0]
	if got.Name != "Lista" || got.Price != "8.5€" || got.URL != origin+"/es/duvet/events/g1-z/L1" {
		t.Errorf("release = %+v", got)
	}
}

func TestScraper_RunCancelled(t *testing.T) {
	p := fixtureProvider(t)
	s, _ := newTestScraper(p, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Run(ctx, []string{"sala-b1", "colors"})
	if len(res.Records) != 0 || len(p.loaded) != 0 {
		t.Errorf("cancelled run loaded %v and produced %d records", p.loaded, len(res.Records))
	}
}
