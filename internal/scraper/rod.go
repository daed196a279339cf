package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/danisans16/scripts-fomo/internal/tier"
)

// RodConfig configures the headless browser.
type RodConfig struct {
	Headless bool
	// Bin is the browser executable. Empty lets the launcher find or
	// download one.
	Bin string
	// Settle is how long the DOM must stay unchanged before a snapshot.
	Settle time.Duration
	// Timeout bounds navigation and load of one page.
	Timeout    time.Duration
	MaxScrolls int
	UserAgent  string
}

// RodProvider renders pages in a Chromium instance driven by go-rod.
// Pages are opened one at a time; a RodProvider is not meant to be shared
// by concurrent loads.
type RodProvider struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	cfg      RodConfig
}

// globalsScript serializes the page variables extraction reads.
var globalsScript = fmt.Sprintf(`() => {
	try {
		const v = window[%q];
		return v === undefined || v === null ? "" : JSON.stringify(v);
	} catch (e) {
		return "";
	}
}`, tier.PricingVar)

const scrollScript = `() => {
	window.scrollBy(0, window.innerHeight);
	const doc = document.scrollingElement || document.documentElement;
	return window.scrollY + window.innerHeight >= doc.scrollHeight - 2;
}`

// NewRodProvider launches a browser and connects to it.
func NewRodProvider(cfg RodConfig) (*RodProvider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = UserAgent
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Leakless(false)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &RodProvider{launcher: l, browser: browser, cfg: cfg}, nil
}

// Close shuts the browser down.
func (p *RodProvider) Close() error {
	err := p.browser.Close()
	p.launcher.Kill()
	return err
}

// Load implements DocumentProvider.
func (p *RodProvider) Load(ctx context.Context, url string) (*Page, error) {
	return p.load(ctx, url, 0)
}

// LoadListing implements ListingLoader. The page and its frames are
// scrolled a viewport at a time until they stop growing or MaxScrolls is
// reached.
func (p *RodProvider) LoadListing(ctx context.Context, url string) (*Page, error) {
	return p.load(ctx, url, p.cfg.MaxScrolls)
}

func (p *RodProvider) load(ctx context.Context, url string, scrolls int) (*Page, error) {
	page, err := p.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, classify(url, err)
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      p.cfg.UserAgent,
		AcceptLanguage: "es-ES,es;q=0.9",
	}); err != nil {
		return nil, fmt.Errorf("%w: setting user agent: %w", ErrNavigation, err)
	}

	timed := page.Timeout(p.cfg.Timeout)
	if err := timed.Navigate(url); err != nil {
		return nil, classifyRod(url, err)
	}
	if err := timed.WaitLoad(); err != nil {
		return nil, classifyRod(url, err)
	}
	p.settle(page)

	if scrolls > 0 {
		targets := []*rod.Page{page}
		if frames, err := p.framePages(page); err == nil {
			targets = append(targets, frames...)
		}
		for _, t := range targets {
			p.scrollToEnd(ctx, t, scrolls)
		}
		p.settle(page)
	}

	return p.snapshot(page.Timeout(p.cfg.Timeout), url)
}

// settle waits for the DOM to stop changing. A page that keeps mutating is
// snapshotted as it is once the wait runs out.
func (p *RodProvider) settle(page *rod.Page) {
	if p.cfg.Settle <= 0 {
		return
	}
	_ = page.Timeout(p.cfg.Settle * 4).WaitStable(p.cfg.Settle)
}

func (p *RodProvider) scrollToEnd(ctx context.Context, target *rod.Page, max int) {
	pause := p.cfg.Settle / 3
	if pause <= 0 {
		pause = 300 * time.Millisecond
	}
	for i := 0; i < max; i++ {
		res, err := target.Timeout(p.cfg.Timeout).Eval(scrollScript)
		if err != nil || res.Value.Bool() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pause):
		}
	}
}

func (p *RodProvider) framePages(page *rod.Page) ([]*rod.Page, error) {
	els, err := page.Elements("iframe")
	if err != nil {
		return nil, err
	}
	frames := make([]*rod.Page, 0, len(els))
	for _, el := range els {
		fr, err := el.Frame()
		if err != nil {
			continue
		}
		frames = append(frames, fr)
	}
	return frames, nil
}

func (p *RodProvider) snapshot(page *rod.Page, url string) (*Page, error) {
	main, err := snapshotFrame(page, url)
	if err != nil {
		return nil, classifyRod(url, err)
	}

	out := &Page{Main: main}

	frames, err := p.framePages(page)
	if err != nil {
		return out, nil
	}
	for _, fr := range frames {
		// Frames that are gone or cross-origin-blocked are skipped.
		if f, err := snapshotFrame(fr, ""); err == nil {
			out.Frames = append(out.Frames, f)
		}
	}
	return out, nil
}

func snapshotFrame(page *rod.Page, fallbackURL string) (Frame, error) {
	html, err := page.HTML()
	if err != nil {
		return Frame{}, err
	}

	f := Frame{URL: fallbackURL, HTML: html}
	if res, err := page.Eval(`() => location.href`); err == nil {
		if href := res.Value.Str(); href != "" {
			f.URL = href
		}
	}

	if res, err := page.Eval(globalsScript); err == nil {
		if raw := res.Value.Str(); raw != "" && raw != "null" && json.Valid([]byte(raw)) {
			f.Globals = map[string]json.RawMessage{tier.PricingVar: json.RawMessage(raw)}
		}
	}
	return f, nil
}

func classifyRod(url string, err error) error {
	var nav *rod.NavigationError
	if errors.As(err, &nav) {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	return classify(url, err)
}
