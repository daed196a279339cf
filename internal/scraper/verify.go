package scraper

import (
	"fmt"
	"strings"
)

// verificationMarkers appear on Cloudflare and hCaptcha challenge pages.
var verificationMarkers = []string{
	"attention required!",
	"just a moment...",
	"hcaptcha",
	"data-sitekey",
	"cf-chl-",
	"why did this happen?",
}

// DetectVerification reports whether html looks like an anti-bot
// interstitial and returns the marker that matched.
func DetectVerification(html string) (string, bool) {
	h := strings.ToLower(html)
	for _, m := range verificationMarkers {
		if strings.Contains(h, m) {
			return m, true
		}
	}
	return "", false
}

// checkVerification fails with ErrVerification if any frame of p is a
// challenge page.
func checkVerification(p *Page) error {
	for _, f := range p.All() {
		if marker, ok := DetectVerification(f.HTML); ok {
			return fmt.Errorf("%w: %s (%q)", ErrVerification, f.URL, marker)
		}
	}
	return nil
}
