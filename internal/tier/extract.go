package tier

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
)

// Source names the evidence an Extraction was built from.
type Source string

const (
	SourcePricing Source = "pricing"
	SourceDOM     Source = "dom"
	SourceNone    Source = "none"
)

// Extraction is the outcome of reading one event document.
type Extraction struct {
	Releases   []Record
	Current    string
	Source     Source
	Candidates int
}

// Matched counts releases that resolved to a purchase URL.
func (e Extraction) Matched() int {
	n := 0
	for _, r := range e.Releases {
		if r.URL != "" {
			n++
		}
	}
	return n
}

// Extract runs the full pipeline over doc. With a pricing object the tiers
// are synthesized from it and matched against clickable elements; without
// one they are read from DOM tier blocks. A page matching neither shape
// yields no releases and SourceNone.
func Extract(doc *goquery.Document, global json.RawMessage, m Matcher) Extraction {
	src, candidates := Collect(doc, global)

	if src != nil {
		return Extraction{
			Releases:   m.Match(Synthesize(src), candidates),
			Current:    CurrentFromSource(src),
			Source:     SourcePricing,
			Candidates: len(candidates),
		}
	}

	releases := m.ExtractBlocks(doc)
	ext := Extraction{
		Releases:   releases,
		Current:    CurrentFromRecords(releases),
		Source:     SourceDOM,
		Candidates: len(candidates),
	}
	if len(releases) == 0 {
		ext.Source = SourceNone
	}
	return ext
}
