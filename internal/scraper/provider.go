package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrLoadTimeout is returned when a page did not finish loading in time.
	ErrLoadTimeout = errors.New("page load timed out")
	// ErrNavigation is returned when a page could not be reached.
	ErrNavigation = errors.New("navigation failed")
	// ErrVerification is returned when the site answered with an anti-bot
	// interstitial instead of the requested page.
	ErrVerification = errors.New("verification page served")
)

// Frame is a snapshot of one document: the top-level page or an iframe.
type Frame struct {
	URL  string
	HTML string
	// Globals holds JSON-encoded page variables read by the provider,
	// keyed by variable name. Providers that cannot run scripts leave it nil.
	Globals map[string]json.RawMessage
}

// Document parses the frame's HTML.
func (f Frame) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.HTML))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML of %s: %w", f.URL, err)
	}
	return doc, nil
}

// Global returns the JSON value of a page variable, or nil.
func (f Frame) Global(name string) json.RawMessage {
	if f.Globals == nil {
		return nil
	}
	return f.Globals[name]
}

// Page is a loaded URL: its main document and its iframes in document order.
type Page struct {
	Main   Frame
	Frames []Frame
}

// All returns the main frame followed by the iframes.
func (p *Page) All() []Frame {
	return append([]Frame{p.Main}, p.Frames...)
}

// DocumentProvider loads a URL into a Page. Implementations return errors
// wrapping ErrLoadTimeout or ErrNavigation.
type DocumentProvider interface {
	Load(ctx context.Context, url string) (*Page, error)
}

// ListingLoader is implemented by providers that can page through an
// infinite-scroll listing before taking the snapshot.
type ListingLoader interface {
	LoadListing(ctx context.Context, url string) (*Page, error)
}
