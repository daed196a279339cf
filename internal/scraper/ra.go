package scraper

import (
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/danisans16/scripts-fomo/internal/event"
	"github.com/danisans16/scripts-fomo/internal/tier"
)

// DefaultRAOrigin is the Resident Advisor site club listings are read from.
const DefaultRAOrigin = "https://es.ra.co"

// SourceTickets marks releases read from embedded Resident Advisor ticket
// objects.
const SourceTickets tier.Source = "tickets"

// Ticket states that are shown with SoldOutSuffix.
const (
	TicketValid          = "VALID"
	TicketSoldOut        = "SOLDOUT"
	TicketNoLongerOnSale = "NOLONGERONSALE"
)

// SoldOutSuffix is appended to the release name of tickets that can no
// longer be bought.
const SoldOutSuffix = " - Agotado"

var (
	raEventLink  = regexp.MustCompile(`/events/(\d+)`)
	ticketMarker = regexp.MustCompile(`"__typename"\s*:\s*"Ticket"`)
)

// ClubURL is the events listing of a Resident Advisor club.
func ClubURL(origin, club string) string {
	return strings.TrimSuffix(origin, "/") + "/clubs/" + url.PathEscape(club) + "/events"
}

// RAEventURL is the page of one Resident Advisor event.
func RAEventURL(origin, id string) string {
	return strings.TrimSuffix(origin, "/") + "/events/" + id
}

// ClubEventIDs returns the event ids linked from a club listing in first
// seen order, without repeats.
func ClubEventIDs(html string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, m := range raEventLink.FindAllStringSubmatch(html, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		ids = append(ids, m[1])
	}
	return ids
}

// EventLD is the schema.org Event block of a Resident Advisor event page.
type EventLD struct {
	Name      string
	StartDate string
	EndDate   string
	Image     string
	Location  string
}

// Found reports whether the block carried anything worth a record.
func (e EventLD) Found() bool {
	return e.Name != "" || e.StartDate != "" || e.EndDate != ""
}

type eventLDJSON struct {
	Name      tier.Text       `json:"name"`
	StartDate tier.Text       `json:"startDate"`
	EndDate   tier.Text       `json:"endDate"`
	Image     json.RawMessage `json:"image"`
	Location  struct {
		Name tier.Text `json:"name"`
	} `json:"location"`
}

// ParseEventLD reads the first JSON-LD script of doc. A missing image falls
// back to the og:image meta tag.
func ParseEventLD(doc *goquery.Document) EventLD {
	var ld EventLD
	raw := strings.TrimSpace(doc.Find(`script[type="application/ld+json"]`).First().Text())
	if raw != "" {
		if w, ok := decodeEventLD([]byte(raw)); ok {
			ld = EventLD{
				Name:      tier.CleanText(string(w.Name)),
				StartDate: strings.TrimSpace(string(w.StartDate)),
				EndDate:   strings.TrimSpace(string(w.EndDate)),
				Image:     firstImage(w.Image),
				Location:  tier.CleanText(string(w.Location.Name)),
			}
		}
	}
	if ld.Image == "" {
		ld.Image, _ = doc.Find(`meta[property="og:image"]`).First().Attr("content")
	}
	return ld
}

// decodeEventLD accepts a single object or an array whose first object is
// used.
func decodeEventLD(data []byte) (eventLDJSON, bool) {
	var w eventLDJSON
	if err := json.Unmarshal(data, &w); err == nil {
		return w, true
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return w, false
	}
	for _, item := range list {
		if err := json.Unmarshal(item, &w); err == nil {
			return w, true
		}
	}
	return w, false
}

func firstImage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.URL
	}
	return ""
}

var (
	spanishWeekdays = [...]string{"DOM.", "LUN.", "MAR.", "MIÉ.", "JUE.", "VIE.", "SÁB."}
	spanishMonths   = [...]string{"ENE.", "FEB.", "MAR.", "ABR.", "MAY.", "JUN.", "JUL.", "AGO.", "SEP.", "OCT.", "NOV.", "DIC."}
)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseISO reads a JSON-LD timestamp keeping its wall clock; offsets are
// not converted.
func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SpanishDate renders an ISO timestamp as "VIE. 24 OCT.", the form venue
// listings use. Unparseable input yields "".
func SpanishDate(iso string) string {
	t, ok := parseISO(iso)
	if !ok {
		return ""
	}
	return spanishWeekdays[t.Weekday()] + " " + leftPad(t.Day()) + " " + spanishMonths[t.Month()-1]
}

// TimeRange renders start and end as "23:00 06:00", or only the start when
// the end is unknown.
func TimeRange(startISO, endISO string) string {
	start, ok := parseISO(startISO)
	if !ok {
		return ""
	}
	out := start.Format("15:04")
	if end, ok := parseISO(endISO); ok {
		out += " " + end.Format("15:04")
	}
	return out
}

func leftPad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// Genres returns the genre links of an event page, deduplicated without
// regard to case and joined with ", ".
func Genres(doc *goquery.Document) string {
	var out []string
	seen := make(map[string]bool)
	doc.Find(`a[href*="/genre/"]`).Each(func(_ int, a *goquery.Selection) {
		g := tier.CleanText(a.Text())
		key := strings.ToLower(g)
		if g == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, g)
	})
	return strings.Join(out, ", ")
}

// Ticket is one ticket object embedded in a Resident Advisor page.
type Ticket struct {
	Title  string
	Price  tier.Amount
	Status string
	AddOn  bool
	URL    string
}

type ticketJSON struct {
	Typename    string      `json:"__typename"`
	Title       tier.Text   `json:"title"`
	PriceRetail tier.Amount `json:"priceRetail"`
	ValidType   tier.Text   `json:"validType"`
	IsAddOn     tier.Flag   `json:"isAddOn"`
	URL         tier.Text   `json:"url"`
}

// Tickets finds every Ticket object in the page's scripts, ordered by price
// with unpriced tickets last.
func Tickets(doc *goquery.Document) []Ticket {
	var tickets []Ticket
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		tickets = append(tickets, TicketsInScript(s.Text())...)
	})
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := tickets[i].Price, tickets[j].Price
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Valid && a.Value < b.Value
	})
	return tickets
}

// TicketsInScript extracts the Ticket objects of one script body. Each
// marker is widened to its enclosing braces; an object that is not valid
// JSON is retried once with JavaScript string escapes resolved.
func TicketsInScript(script string) []Ticket {
	var tickets []Ticket
	for _, loc := range ticketMarker.FindAllStringIndex(script, -1) {
		obj, ok := enclosingObject(script, loc[0])
		if !ok {
			continue
		}
		var w ticketJSON
		if err := json.Unmarshal([]byte(obj), &w); err != nil {
			if err := json.Unmarshal([]byte(unescapeJS(obj)), &w); err != nil {
				continue
			}
		}
		if w.Typename != "Ticket" {
			continue
		}
		tickets = append(tickets, Ticket{
			Title:  tier.CleanText(string(w.Title)),
			Price:  w.PriceRetail,
			Status: strings.TrimSpace(string(w.ValidType)),
			AddOn:  bool(w.IsAddOn),
			URL:    strings.TrimSpace(string(w.URL)),
		})
	}
	return tickets
}

// enclosingObject returns the brace-balanced text around the '{' that
// precedes pos. Braces inside string values are counted too.
func enclosingObject(s string, pos int) (string, bool) {
	start := strings.LastIndexByte(s[:pos], '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// unescapeJS resolves backslash escapes the way a JavaScript string literal
// would. Unknown escapes keep the escaped character.
func unescapeJS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if r, ok := hexRune(s, i+1, 4); ok {
				b.WriteRune(r)
				i += 4
			} else {
				b.WriteByte(e)
			}
		case 'x':
			if r, ok := hexRune(s, i+1, 2); ok {
				b.WriteRune(r)
				i += 2
			} else {
				b.WriteByte(e)
			}
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}

func hexRune(s string, at, n int) (rune, bool) {
	if at+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+n], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}

// TicketReleases turns tickets into releases and picks the current one:
// the cheapest valid ticket that is not an add-on. Tickets that can no
// longer be bought keep their place with SoldOutSuffix; a ticket without
// its own link points at eventURL.
func TicketReleases(tickets []Ticket, eventURL string) tier.Extraction {
	ext := tier.Extraction{Source: tier.SourceNone, Candidates: len(tickets)}
	if len(tickets) == 0 {
		return ext
	}
	ext.Source = SourceTickets

	for _, t := range tickets {
		name := t.Title
		if t.Status == TicketSoldOut || t.Status == TicketNoLongerOnSale {
			name += SoldOutSuffix
		}
		rel := tier.Record{Name: name, URL: t.URL}
		if rel.URL == "" {
			rel.URL = eventURL
		}
		if t.Price.Valid {
			rel.Price = tier.FormatPriceES(t.Price.Value)
		}
		ext.Releases = append(ext.Releases, rel)

		if ext.Current == "" && t.Status == TicketValid && !t.AddOn && t.Price.Valid {
			ext.Current = t.Title
		}
	}
	if ext.Current == "" {
		for _, t := range tickets {
			if t.Status == TicketValid && !t.AddOn {
				ext.Current = t.Title
				break
			}
		}
	}
	return ext
}

// RAMeta builds the record metadata of a Resident Advisor event page.
func RAMeta(club, eventURL string, ld EventLD, genres string) event.Meta {
	return event.Meta{
		Venue:    club,
		Name:     ld.Name,
		URL:      eventURL,
		Date:     SpanishDate(firstNonEmpty(ld.StartDate, ld.EndDate)),
		Time:     TimeRange(ld.StartDate, ld.EndDate),
		ImageURL: ld.Image,
		Genres:   genres,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
