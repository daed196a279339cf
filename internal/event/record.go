package event

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"

	"github.com/danisans16/scripts-fomo/internal/tier"
)

// Slots is the width of the flattened tier projection.
const Slots = 6

// Meta is what the venue listing tells us about an event before its page
// is visited.
type Meta struct {
	Venue    string // venue identifier, resolved through a Directory
	Name     string
	URL      string
	Date     string
	Time     string
	ImageURL string
	Genres   string
}

// Slot is one position of the flattened projection. Missing values are
// empty strings, never absent.
type Slot struct {
	ReleaseName string
	Price       string
	ReleaseURL  string
}

// Record is the normalized result for one event page.
type Record struct {
	Venue          string
	EventName      string
	URL            string
	Date           string
	Time           string
	ImageURL       string
	Genres         string
	Releases       []tier.Record
	CurrentRelease string
	Flat           [Slots]Slot
}

// Assemble builds the Record for an event from its listing metadata and the
// tiers extracted from its page. The venue identifier is replaced by its
// display name from dir.
func Assemble(meta Meta, ext tier.Extraction, dir Directory) *Record {
	releases := make([]tier.Record, len(ext.Releases))
	copy(releases, ext.Releases)

	return &Record{
		Venue:          dir.DisplayName(meta.Venue),
		EventName:      meta.Name,
		URL:            meta.URL,
		Date:           meta.Date,
		Time:           meta.Time,
		ImageURL:       meta.ImageURL,
		Genres:         meta.Genres,
		Releases:       releases,
		CurrentRelease: ext.Current,
		Flat:           Flatten(releases),
	}
}

// Flatten projects the first Slots releases by position.
func Flatten(releases []tier.Record) [Slots]Slot {
	var flat [Slots]Slot
	for i := 0; i < Slots && i < len(releases); i++ {
		flat[i] = Slot{
			ReleaseName: releases[i].Name,
			Price:       releases[i].Price,
			ReleaseURL:  releases[i].URL,
		}
	}
	return flat
}

// GenerateID creates a deterministic ID for an event from its canonical URL.
func GenerateID(url string) string {
	h := sha1.New()
	h.Write([]byte(url))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ID returns the deterministic identifier of the record.
func (r *Record) ID() string {
	return GenerateID(r.URL)
}

// FindRelease returns the release named name, if present.
func (r *Record) FindRelease(name string) (tier.Record, bool) {
	for _, rel := range r.Releases {
		if rel.Name == name {
			return rel, true
		}
	}
	return tier.Record{}, false
}

// recordJSON is the wire shape. Unknown metadata is null. The flattened
// slots are spelled out so downstream spreadsheets see stable column names.
type recordJSON struct {
	Venue          string        `json:"venue"`
	EventName      *string       `json:"eventName"`
	URL            string        `json:"url"`
	Date           *string       `json:"date"`
	Time           *string       `json:"time"`
	ImageURL       *string       `json:"imageUrl"`
	Genres         string        `json:"genres,omitempty"`
	Releases       []tier.Record `json:"releases"`
	CurrentRelease *string       `json:"currentRelease"`

	ReleaseName1 string `json:"releaseName1"`
	Price1       string `json:"price1"`
	ReleaseURL1  string `json:"releaseUrl1"`
	ReleaseName2 string `json:"releaseName2"`
	Price2       string `json:"price2"`
	ReleaseURL2  string `json:"releaseUrl2"`
	ReleaseName3 string `json:"releaseName3"`
	Price3       string `json:"price3"`
	ReleaseURL3  string `json:"releaseUrl3"`
	ReleaseName4 string `json:"releaseName4"`
	Price4       string `json:"price4"`
	ReleaseURL4  string `json:"releaseUrl4"`
	ReleaseName5 string `json:"releaseName5"`
	Price5       string `json:"price5"`
	ReleaseURL5  string `json:"releaseUrl5"`
	ReleaseName6 string `json:"releaseName6"`
	Price6       string `json:"price6"`
	ReleaseURL6  string `json:"releaseUrl6"`
}

func (w *recordJSON) slots() [Slots]Slot {
	return [Slots]Slot{
		{w.ReleaseName1, w.Price1, w.ReleaseURL1},
		{w.ReleaseName2, w.Price2, w.ReleaseURL2},
		{w.ReleaseName3, w.Price3, w.ReleaseURL3},
		{w.ReleaseName4, w.Price4, w.ReleaseURL4},
		{w.ReleaseName5, w.Price5, w.ReleaseURL5},
		{w.ReleaseName6, w.Price6, w.ReleaseURL6},
	}
}

// MarshalJSON writes the record with releases, eventName, date, time,
// imageUrl and currentRelease (null when unknown) and the releaseName1..6, price1..6, releaseUrl1..6 columns.
func (r *Record) MarshalJSON() ([]byte, error) {
	f := r.Flat
	releases := r.Releases
	if releases == nil {
		releases = []tier.Record{}
	}
	w := recordJSON{
		Venue:          r.Venue,
		EventName:      nullable(r.EventName),
		URL:            r.URL,
		Date:           nullable(r.Date),
		Time:           nullable(r.Time),
		ImageURL:       nullable(r.ImageURL),
		Genres:         r.Genres,
		Releases:       releases,
		CurrentRelease: nullable(r.CurrentRelease),

		ReleaseName1: f[0].ReleaseName, Price1: f[0].Price, ReleaseURL1: f[0].ReleaseURL,
		ReleaseName2: f[1].ReleaseName, Price2: f[1].Price, ReleaseURL2: f[1].ReleaseURL,
		ReleaseName3: f[2].ReleaseName, Price3: f[2].Price, ReleaseURL3: f[2].ReleaseURL,
		ReleaseName4: f[3].ReleaseName, Price4: f[3].Price, ReleaseURL4: f[3].ReleaseURL,
		ReleaseName5: f[4].ReleaseName, Price5: f[4].Price, ReleaseURL5: f[4].ReleaseURL,
		ReleaseName6: f[5].ReleaseName, Price6: f[5].Price, ReleaseURL6: f[5].ReleaseURL,
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the format written by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		Venue:          w.Venue,
		EventName:      deref(w.EventName),
		URL:            w.URL,
		Date:           deref(w.Date),
		Time:           deref(w.Time),
		ImageURL:       deref(w.ImageURL),
		Genres:         w.Genres,
		Releases:       w.Releases,
		CurrentRelease: deref(w.CurrentRelease),
	}
	r.Flat = w.slots()
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
