package tier

import (
	"math"
	"regexp"
	"strings"
)

const (
	// DefaultOrigin is prepended to decoded purchase paths.
	DefaultOrigin = "https://www.fourvenues.com"

	// DefaultTolerance is the largest price difference, in currency units,
	// still accepted as a price match.
	DefaultTolerance = 0.5
)

var emitPattern = regexp.MustCompile(`ticketsRatesComponent\.onEmitTicket\(\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]+)['"]`)

// Matcher resolves purchase URLs for synthesized records.
type Matcher struct {
	Origin    string
	Tolerance float64
}

// NewMatcher returns a Matcher, substituting defaults for zero values.
func NewMatcher(origin string, tolerance float64) Matcher {
	if origin == "" {
		origin = DefaultOrigin
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return Matcher{Origin: strings.TrimSuffix(origin, "/"), Tolerance: tolerance}
}

// Match returns a copy of records where every record without a URL has been
// paired with a candidate: first by name, a case-insensitive substring of
// the candidate text, then by a candidate price within Tolerance. Candidates
// are scanned in document order and the first qualifying one wins. Records
// with no match keep an empty URL.
func (m Matcher) Match(records []Record, candidates []Candidate) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	prices := make([]*float64, len(candidates))
	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		if v, ok := ParsePrice(c.Text); ok {
			prices[i] = &v
		}
		lowered[i] = strings.ToLower(c.Text)
	}

	for i := range out {
		if out[i].URL != "" {
			continue
		}
		idx := m.find(out[i], lowered, prices)
		if idx < 0 {
			continue
		}
		if u, ok := m.PurchaseURL(candidates[idx].Payload); ok {
			out[i].URL = u
		}
	}
	return out
}

func (m Matcher) find(r Record, lowered []string, prices []*float64) int {
	if name := strings.ToLower(r.Name); name != "" {
		for i, text := range lowered {
			if text != "" && strings.Contains(text, name) {
				return i
			}
		}
	}
	if amount, ok := r.Amount(); ok {
		for i, p := range prices {
			if p != nil && math.Abs(*p-amount) < m.Tolerance {
				return i
			}
		}
	}
	return -1
}

// DecodePayload extracts the base path and ticket id from an onclick
// handler that emits a ticket.
func DecodePayload(payload string) (basePath, ticketID string, ok bool) {
	m := emitPattern.FindStringSubmatch(payload)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// PurchaseURL decodes payload into an absolute purchase URL.
func (m Matcher) PurchaseURL(payload string) (string, bool) {
	basePath, ticketID, ok := DecodePayload(payload)
	if !ok {
		return "", false
	}
	origin := m.Origin
	if origin == "" {
		origin = DefaultOrigin
	}
	return origin + normalizeBasePath(basePath) + "/" + ticketID, true
}

// normalizeBasePath rewrites embedded-iframe routes to their public /es
// equivalent and drops one trailing slash.
func normalizeBasePath(p string) string {
	switch {
	case strings.HasPrefix(p, "/es/iframe"):
		p = "/es" + strings.TrimPrefix(p, "/es/iframe")
	case strings.HasPrefix(p, "/iframe"):
		p = "/es" + strings.TrimPrefix(p, "/iframe")
	case !strings.HasPrefix(p, "/"):
		p = "/es/" + p
	}
	return strings.TrimSuffix(p, "/")
}
