package portal

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
}

var viewports = [][2]int{{1920, 1080}, {1680, 1050}, {1536, 864}, {1440, 900}, {1366, 768}}

// Hides the usual headless fingerprints before any page script runs.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'languages', {get: () => ['de-DE', 'de', 'en-US', 'en']});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
window.chrome = window.chrome || {runtime: {}};
`

type ChromeOptions struct {
	Headless bool
	ExecPath string
	// ElementTimeout bounds the wait for form fields. Defaults to 10s.
	ElementTimeout time.Duration
}

// ChromeBrowser is a Browser backed by a local Chrome through chromedp.
type ChromeBrowser struct {
	ctx            context.Context
	cancelTab      context.CancelFunc
	cancelAlloc    context.CancelFunc
	elementTimeout time.Duration
}

// NewChromeBrowser starts Chrome with a random user agent and viewport.
// The caller must Close it.
func NewChromeBrowser(parent context.Context, o ChromeOptions) (*ChromeBrowser, error) {
	ua := userAgents[rand.IntN(len(userAgents))]
	vp := viewports[rand.IntN(len(viewports))]

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(vp[0], vp[1]),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	b := &ChromeBrowser{
		ctx:            tabCtx,
		cancelTab:      cancelTab,
		cancelAlloc:    cancelAlloc,
		elementTimeout: o.ElementTimeout,
	}
	if b.elementTimeout <= 0 {
		b.elementTimeout = 10 * time.Second
	}

	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
		return err
	}))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	log.WithFields(log.Fields{
		"headless": o.Headless,
		"viewport": fmt.Sprintf("%dx%d", vp[0], vp[1]),
	}).Info("[Browser] Chrome 세션 시작")
	return b, nil
}

// run executes actions on the tab. Cancelling ctx (or hitting timeout) aborts
// the actions but leaves the tab open.
func (b *ChromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, 0,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (b *ChromeBrowser) SendKeys(ctx context.Context, selector, value string) error {
	return b.run(ctx, b.elementTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (b *ChromeBrowser) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return b.run(ctx, timeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

func (b *ChromeBrowser) Scroll(ctx context.Context, pixels int) error {
	// Evaluate needs a non-undefined result.
	var y float64
	return b.run(ctx, 0, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d); window.scrollY", pixels), &y))
}

func (b *ChromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Close shuts Chrome down and releases the allocator. Safe to call twice.
func (b *ChromeBrowser) Close() error {
	if b.cancelAlloc == nil {
		return nil
	}
	err := chromedp.Cancel(b.ctx)
	b.cancelTab()
	b.cancelAlloc()
	b.cancelAlloc = nil
	log.Info("[Browser] Chrome 세션 종료")
	return err
}
