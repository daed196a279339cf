package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/tier"
)

const cardSelector = `div[onclick*="listadoEventosComponent.onClickEvent"]`

var (
	cardPattern  = regexp.MustCompile(`onClickEvent\(\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]+)['"]`)
	imagePattern = regexp.MustCompile(`url\(\s*['"]?(.*?)['"]?\s*\)`)
)

// EventRef is an event card read from a venue listing.
type EventRef struct {
	Venue    string
	EventID  string
	Code     string
	Name     string
	Date     string
	Time     string
	ImageURL string
	URL      string
}

// Meta converts the card into the metadata the result assembler takes.
func (r EventRef) Meta() event.Meta {
	return event.Meta{
		Venue:    r.Venue,
		Name:     r.Name,
		URL:      r.URL,
		Date:     r.Date,
		Time:     r.Time,
		ImageURL: r.ImageURL,
	}
}

// ListingURL is the embeddable listing page of a venue.
func ListingURL(origin, venue string) string {
	return strings.TrimSuffix(origin, "/") + "/es/iframe/" + url.PathEscape(venue) + "?theme=dark"
}

// EventURL is the embeddable page of one event.
func EventURL(origin, venue, eventID, code string) string {
	return strings.TrimSuffix(origin, "/") + "/es/iframe/" + url.PathEscape(venue) +
		"/events/" + eventID + "-" + code + "?theme=dark"
}

// ParseListing reads the event cards of a venue listing document in order,
// dropping cards whose handler cannot be decoded and repeated URLs.
func ParseListing(doc *goquery.Document, venue, origin string) []EventRef {
	var refs []EventRef
	seen := make(map[string]bool)

	doc.Find(cardSelector).Each(func(i int, card *goquery.Selection) {
		onclick, _ := card.Attr("onclick")
		m := cardPattern.FindStringSubmatch(onclick)
		if m == nil {
			return
		}

		ref := EventRef{
			Venue:    venue,
			EventID:  m[1],
			Code:     m[2],
			Name:     cardName(card),
			Date:     firstText(card.Find(".subtitle h2")),
			Time:     cardTime(card),
			ImageURL: cardImage(card),
			URL:      EventURL(origin, venue, m[1], m[2]),
		}
		if seen[ref.URL] {
			return
		}
		seen[ref.URL] = true
		refs = append(refs, ref)
	})

	return refs
}

func firstText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return tier.VisibleText(sel.First())
}

func cardName(card *goquery.Selection) string {
	if name := firstText(card.Find(".info-container p.font-semibold")); name != "" {
		return name
	}
	return firstText(card.Find(".info-container p"))
}

// cardTime reads the small subtitle line that carries the opening hours,
// skipping the subtitle that wraps the date heading.
func cardTime(card *goquery.Selection) string {
	var out string
	card.Find(".subtitle.text-xs").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if sel.Find("h2").Length() > 0 {
			return true
		}
		out = tier.VisibleText(sel)
		return out == ""
	})
	return out
}

func cardImage(card *goquery.Selection) string {
	var out string
	card.Find(`[class*="bg-cover"], [style*="background-image"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		style, _ := sel.Attr("style")
		if m := imagePattern.FindStringSubmatch(style); m != nil && m[1] != "" {
			out = strings.TrimSpace(m[1])
			return false
		}
		return true
	})
	return out
}
