// internal/browser/page.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

// Page is a single isolated browser tab. Agent operations and the action
// executor drive pages exclusively through this interface, which keeps tests
// runnable without a browser process.
type Page interface {
	// ID returns the unique identifier for this page.
	ID() string

	// Navigate loads a URL and waits for the document to be ready.
	Navigate(url string) error

	// URL returns the page's current location.
	URL() (string, error)

	// Title returns the current document title.
	Title() (string, error)

	// HTML returns the serialized document.
	HTML() (string, error)

	// Text returns the visible text of the first element matching selector.
	Text(selector string) (string, error)

	// Click clicks the first element matching selector.
	Click(selector string) error

	// Fill clears the matching field and types the given value into it.
	Fill(selector, value string) error

	// SelectOption sets the value of a <select> element.
	SelectOption(selector, value string) error

	// Press sends a key chord (e.g. "\r") to the matching element.
	Press(selector, key string) error

	// Upload attaches a local file to a file input.
	Upload(selector, path string) error

	// Scroll moves the viewport "up" or "down" by one screen.
	Scroll(direction string) error

	// WaitMs sleeps, letting asynchronous page work settle.
	WaitMs(ms int) error

	// Snapshot captures the perception payload for the planning engine.
	Snapshot() (engine.PageSnapshot, error)

	// Close tears the tab down and releases its resources.
	Close(ctx context.Context) error
}

// tab is the chromedp-backed Page implementation. All operations run on the
// tab's own chromedp context, bounded by the configured action timeout.
type tab struct {
	id            string
	ctx           context.Context
	cancel        context.CancelFunc
	logger        *zap.Logger
	navTimeout    time.Duration
	actionTimeout time.Duration
	postLoadWait  time.Duration
}

func (t *tab) ID() string { return t.id }

// run executes chromedp actions under the given timeout.
func (t *tab) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (t *tab) Navigate(url string) error {
	t.logger.Debug("Navigating", zap.String("url", url))
	if err := t.run(t.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if t.postLoadWait > 0 {
		time.Sleep(t.postLoadWait)
	}
	return nil
}

func (t *tab) URL() (string, error) {
	var loc string
	if err := t.run(t.actionTimeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

func (t *tab) Title() (string, error) {
	var title string
	if err := t.run(t.actionTimeout, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("reading title: %w", err)
	}
	return title, nil
}

func (t *tab) HTML() (string, error) {
	var html string
	if err := t.run(t.actionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	return html, nil
}

func (t *tab) Text(selector string) (string, error) {
	var text string
	if err := t.run(t.actionTimeout, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return "", fmt.Errorf("reading text of %q: %w", selector, err)
	}
	return text, nil
}

func (t *tab) Click(selector string) error {
	if err := t.run(t.actionTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("clicking %q: %w", selector, err)
	}
	return nil
}

func (t *tab) Fill(selector, value string) error {
	if err := t.run(t.actionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("filling %q: %w", selector, err)
	}
	return nil
}

func (t *tab) SelectOption(selector, value string) error {
	if err := t.run(t.actionTimeout, chromedp.SetValue(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("selecting %q on %q: %w", value, selector, err)
	}
	return nil
}

func (t *tab) Press(selector, key string) error {
	if err := t.run(t.actionTimeout, chromedp.SendKeys(selector, key, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("pressing key on %q: %w", selector, err)
	}
	return nil
}

func (t *tab) Upload(selector, path string) error {
	if err := t.run(t.actionTimeout, chromedp.SetUploadFiles(selector, []string{path}, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("uploading %q to %q: %w", path, selector, err)
	}
	return nil
}

func (t *tab) Scroll(direction string) error {
	js := `window.scrollBy(0, window.innerHeight);`
	if direction == "up" {
		js = `window.scrollBy(0, -window.innerHeight);`
	}
	if err := t.run(t.actionTimeout, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("scrolling %s: %w", direction, err)
	}
	return nil
}

func (t *tab) WaitMs(ms int) error {
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}

func (t *tab) Snapshot() (engine.PageSnapshot, error) {
	var loc, title, html string
	if err := t.run(t.actionTimeout,
		chromedp.Location(&loc),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return engine.PageSnapshot{}, fmt.Errorf("capturing snapshot: %w", err)
	}
	return engine.PageSnapshot{URL: loc, Title: title, Outline: Outline(html)}, nil
}

func (t *tab) Close(ctx context.Context) error {
	t.logger.Debug("Closing page")
	t.cancel()
	select {
	case <-t.ctx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
