// Package scraper drives fourvenues venue and event pages through the tier
// extraction engine, and reads Resident Advisor club events into the same
// records.
//
// A DocumentProvider loads a URL and returns the rendered page together with
// its iframes. HTTPProvider fetches raw HTML and is enough for pages that
// ship their pricing object inline; RodProvider renders pages in a headless
// browser, reads page globals and scrolls listings to their end.
//
// Scraper walks a list of venues: it parses each venue listing into event
// references, loads every event page, picks the frame that holds the event
// and hands that document to tier.Extract. A failing venue or event is
// logged and counted without stopping the run.
//
// RunClubs does the same for Resident Advisor clubs. Their event pages carry
// a JSON-LD block and the ticket objects of the site's client cache; both
// are read from the HTML, so HTTPProvider serves them as well.
package scraper
