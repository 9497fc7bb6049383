// internal/mocks/mocks.go

// Package mocks provides shared test doubles. FakePage records every
// operation so tests can assert on the exact sequence of browser activity
// without a browser process.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

// FakePage implements browser.Page in memory.
type FakePage struct {
	mu sync.Mutex

	// Calls records each operation as "op arg1 arg2".
	Calls []string

	PageURL   string
	PageTitle string
	PageHTML  string
	Texts     map[string]string
	Snap      engine.PageSnapshot

	// Fail maps an operation name ("click", "fill", ...) to a forced error.
	Fail map[string]error

	Closed bool
}

// NewFakePage returns an empty fake ready for use.
func NewFakePage() *FakePage {
	return &FakePage{
		PageURL:   "https://example.test/",
		PageTitle: "Example",
		Texts:     map[string]string{},
		Fail:      map[string]error{},
	}
}

func (p *FakePage) record(op string, args ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := op
	for _, a := range args {
		call += " " + a
	}
	p.Calls = append(p.Calls, call)
	return p.Fail[op]
}

// CallLog returns a copy of the recorded operations.
func (p *FakePage) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Calls))
	copy(out, p.Calls)
	return out
}

func (p *FakePage) ID() string { return "fake-page" }

func (p *FakePage) Navigate(url string) error {
	if err := p.record("navigate", url); err != nil {
		return err
	}
	p.mu.Lock()
	p.PageURL = url
	p.mu.Unlock()
	return nil
}

func (p *FakePage) URL() (string, error)   { return p.PageURL, p.record("url") }
func (p *FakePage) Title() (string, error) { return p.PageTitle, p.record("title") }
func (p *FakePage) HTML() (string, error)  { return p.PageHTML, p.record("html") }

func (p *FakePage) Text(selector string) (string, error) {
	if err := p.record("text", selector); err != nil {
		return "", err
	}
	text, ok := p.Texts[selector]
	if !ok {
		return "", fmt.Errorf("no element matches %q", selector)
	}
	return text, nil
}

func (p *FakePage) Click(selector string) error        { return p.record("click", selector) }
func (p *FakePage) Fill(selector, value string) error  { return p.record("fill", selector, value) }
func (p *FakePage) SelectOption(sel, val string) error { return p.record("select", sel, val) }
func (p *FakePage) Press(sel, key string) error        { return p.record("press", sel, key) }
func (p *FakePage) Upload(sel, path string) error      { return p.record("upload", sel, path) }
func (p *FakePage) Scroll(direction string) error      { return p.record("scroll", direction) }
func (p *FakePage) WaitMs(ms int) error                { return p.record("wait", fmt.Sprintf("%dms", ms)) }

func (p *FakePage) Snapshot() (engine.PageSnapshot, error) {
	if err := p.record("snapshot"); err != nil {
		return engine.PageSnapshot{}, err
	}
	snap := p.Snap
	if snap.URL == "" {
		snap.URL = p.PageURL
	}
	if snap.Title == "" {
		snap.Title = p.PageTitle
	}
	return snap, nil
}

func (p *FakePage) Close(ctx context.Context) error {
	p.mu.Lock()
	p.Closed = true
	p.mu.Unlock()
	return p.record("close")
}
