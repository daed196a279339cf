package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
)

const (
	UserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultTimeout = 30 * time.Second
	// maxFrames bounds how many iframes of one page are fetched.
	maxFrames = 8
)

// HTTPOptions configures an HTTPProvider.
type HTTPOptions struct {
	Timeout       time.Duration
	UserAgent     string
	MaxRetries    uint64 // zero disables retries
	RetryInterval time.Duration
}

// HTTPProvider loads pages with plain HTTP requests. It cannot run scripts,
// so pages only yield what their served HTML contains. Iframes one level
// deep are fetched as well.
type HTTPProvider struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPProvider creates an HTTPProvider, filling unset options with
// defaults.
func NewHTTPProvider(opts HTTPOptions) *HTTPProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	return &HTTPProvider{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Load implements DocumentProvider.
func (p *HTTPProvider) Load(ctx context.Context, pageURL string) (*Page, error) {
	body, err := p.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page := &Page{Main: Frame{URL: pageURL, HTML: body}}

	doc, err := page.Main.Document()
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNavigation, pageURL, err)
	}

	doc.Find("iframe[src]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(page.Frames) >= maxFrames {
			return false
		}
		src, _ := sel.Attr("src")
		ref, err := url.Parse(src)
		if err != nil || src == "" {
			return true
		}
		frameURL := base.ResolveReference(ref).String()

		// An iframe that fails to load is left out; the main document is
		// still usable.
		if html, err := p.fetch(ctx, frameURL); err == nil {
			page.Frames = append(page.Frames, Frame{URL: frameURL, HTML: html})
		}
		return true
	})

	return page, nil
}

// fetch GETs pageURL, retrying transient failures with exponential backoff.
// Client errors and verification pages are not retried.
func (p *HTTPProvider) fetch(ctx context.Context, pageURL string) (string, error) {
	var body string

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: creating request: %w", ErrNavigation, err))
		}
		req.Header.Set("User-Agent", p.opts.UserAgent)
		req.Header.Set("Accept-Language", "es-ES,es;q=0.9")

		resp, err := p.client.Do(req)
		if err != nil {
			return classify(pageURL, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return classify(pageURL, err)
		}

		if marker, ok := DetectVerification(string(data)); ok && resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("%w: %s (%q)", ErrVerification, pageURL, marker))
		}

		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: %s: status %d", ErrNavigation, pageURL, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("%w: %s: status %d", ErrNavigation, pageURL, resp.StatusCode))
		}

		body = string(data)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.RetryInterval
	b.MaxElapsedTime = p.opts.Timeout

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, p.opts.MaxRetries), ctx)); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		if errors.Is(err, ErrNavigation) || errors.Is(err, ErrLoadTimeout) || errors.Is(err, ErrVerification) {
			return "", err
		}
		// The backoff stops with the bare context error once ctx is done.
		return "", classify(pageURL, err)
	}
	return body, nil
}

// classify wraps a transport error in ErrLoadTimeout or ErrNavigation.
func classify(pageURL string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", ErrLoadTimeout, pageURL, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrNavigation, pageURL, err)
}
