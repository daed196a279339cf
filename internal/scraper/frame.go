package scraper

import "strings"

// ListingFrames orders the frames worth searching for a venue's event
// cards: frames whose URL mentions the venue, then the main document.
func ListingFrames(p *Page, venue string) []Frame {
	var out []Frame
	for _, f := range p.Frames {
		if venue != "" && strings.Contains(f.URL, venue) {
			out = append(out, f)
		}
	}
	return append(out, p.Main)
}

// ResolveEventFrame picks the frame holding an event page: the first frame
// whose URL contains /events/{eventID}, else one under the venue's
// /events/ path, else the main document.
func ResolveEventFrame(p *Page, venue, eventID string) Frame {
	if eventID != "" {
		needle := "/events/" + eventID
		for _, f := range p.Frames {
			if strings.Contains(f.URL, needle) {
				return f
			}
		}
	}
	if venue != "" {
		for _, f := range p.Frames {
			if strings.Contains(f.URL, venue) && strings.Contains(f.URL, "/events/") {
				return f
			}
		}
	}
	return p.Main
}
