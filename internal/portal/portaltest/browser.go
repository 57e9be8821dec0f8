// Package portaltest provides an in-memory portal.Browser for tests.
package portaltest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Browser serves canned HTML per URL and records every call.
type Browser struct {
	mu sync.Mutex

	// Pages maps a URL to the HTML returned after navigating to it.
	Pages map[string]string
	// Fail maps a URL to the error Navigate returns for it.
	Fail map[string]error
	// ClickErr is returned by every Click when set.
	ClickErr error
	// MissingFields lists selectors SendKeys reports as absent.
	MissingFields map[string]bool

	Visited  []string
	Typed    map[string]string
	Clicked  []string
	Scrolled int
	Closed   bool

	current string
}

func New() *Browser {
	return &Browser{
		Pages:         map[string]string{},
		Fail:          map[string]error{},
		MissingFields: map[string]bool{},
		Typed:         map[string]string{},
	}
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	b.Visited = append(b.Visited, url)
	if err, ok := b.Fail[url]; ok {
		return err
	}
	b.current = url
	return nil
}

func (b *Browser) SendKeys(ctx context.Context, selector, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.MissingFields[selector] {
		return fmt.Errorf("element %s not found", selector)
	}
	b.Typed[selector] = value
	return nil
}

func (b *Browser) Click(ctx context.Context, selector string, timeout time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ClickErr != nil {
		return b.ClickErr
	}
	b.Clicked = append(b.Clicked, selector)
	return nil
}

func (b *Browser) Scroll(ctx context.Context, pixels int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Scrolled++
	return nil
}

func (b *Browser) HTML(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	html, ok := b.Pages[b.current]
	if !ok {
		return "<html><body></body></html>", nil
	}
	return html, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Closed {
		return errors.New("browser already closed")
	}
	b.Closed = true
	return nil
}

// Row renders one employee row in the default portal markup.
func Row(name, breakTime, worked string, shifts ...string) string {
	html := `<div class="employee-row"><span class="employee-name">` + name + `</span>`
	for _, s := range shifts {
		html += `<span class="shift-block">` + s + `</span>`
	}
	html += `<span class="break-time">` + breakTime + `</span>`
	html += `<span class="worked-time">` + worked + `</span></div>`
	return html
}

// Page wraps rows in a schedule page.
func Page(rows ...string) string {
	html := `<html><body><div id="schedule">`
	for _, r := range rows {
		html += r
	}
	return html + `</div></body></html>`
}
