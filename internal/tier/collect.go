package tier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PricingVar is the page-global variable holding the pricing object.
const PricingVar = "tarifas"

// EmitTicketAction is the handler signature of clickable ticket elements.
const EmitTicketAction = "ticketsRatesComponent.onEmitTicket"

var (
	assignPattern   = regexp.MustCompile(PricingVar + `\s*=\s*(\{[\s\S]*?\});`)
	controlPattern  = regexp.MustCompile(`[\r\n\t]+`)
	candidateFilter = `[onclick*="` + EmitTicketAction + `"]`
)

// ParseError reports an embedded pricing object that could not be decoded
// either as written or after sanitizing.
type ParseError struct {
	Strict    error
	Sanitized error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing pricing object: %v (sanitized: %v)", e.Strict, e.Sanitized)
}

func (e *ParseError) Unwrap() []error {
	return []error{e.Strict, e.Sanitized}
}

// ParsePricing decodes a pricing object. Strict JSON is tried first; on
// failure line breaks and tabs are replaced by spaces and decoding is
// retried.
func ParsePricing(raw string) (*PricingSource, error) {
	src, strictErr := parseStrict(raw)
	if strictErr == nil {
		return src, nil
	}
	src, sanitizedErr := parseStrict(controlPattern.ReplaceAllString(raw, " "))
	if sanitizedErr == nil {
		return src, nil
	}
	return nil, &ParseError{Strict: strictErr, Sanitized: sanitizedErr}
}

func parseStrict(raw string) (*PricingSource, error) {
	var src PricingSource
	if err := json.Unmarshal([]byte(raw), &src); err != nil {
		return nil, err
	}
	return &src, nil
}

// Collect gathers both pieces of evidence from a document: the pricing
// object, and every clickable element that emits a ticket. global is the
// JSON value of the page-global pricing variable as read from a live page;
// it may be nil. A nil PricingSource means none could be recovered.
func Collect(doc *goquery.Document, global json.RawMessage) (*PricingSource, []Candidate) {
	return collectPricing(doc, global), collectCandidates(doc)
}

func collectPricing(doc *goquery.Document, global json.RawMessage) *PricingSource {
	if g := bytes.TrimSpace(global); len(g) > 0 && g[0] == '{' {
		if src, err := parseStrict(string(g)); err == nil {
			return src
		}
	}

	var src *PricingSource
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		body := s.Text()
		if !strings.Contains(body, PricingVar) {
			return true
		}
		m := assignPattern.FindStringSubmatch(body)
		if m == nil {
			return true
		}
		parsed, err := ParsePricing(m[1])
		if err != nil {
			return true
		}
		src = parsed
		return false
	})
	return src
}

func collectCandidates(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find(candidateFilter).Each(func(_ int, s *goquery.Selection) {
		payload, _ := s.Attr("onclick")
		out = append(out, Candidate{
			Payload: payload,
			Text:    VisibleText(s),
		})
	})
	return out
}
