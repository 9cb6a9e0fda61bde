package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// ChromedpOptions configures the chromedp-driven browser.
type ChromedpOptions struct {
	Headless          bool
	IgnoreHTTPSErrors bool
	Width, Height     int
	NavigationTimeout time.Duration // page load limit, DefaultNavigationTimeout when zero
}

// Chromedp drives a locally started Chrome over the devtools protocol.
// The browser starts once, every session is a separate tab.
type Chromedp struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	navTimeout    time.Duration
}

// LaunchChromedp starts Chrome and keeps it running until Close.
func LaunchChromedp(opts ChromedpOptions) (*Chromedp, error) {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 720
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("ignore-certificate-errors", opts.IgnoreHTTPSErrors),
		chromedp.WindowSize(opts.Width, opts.Height),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// an empty run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	return &Chromedp{allocCancel: allocCancel, browserCtx: browserCtx, browserCancel: browserCancel,
		navTimeout: navigationTimeout(opts.NavigationTimeout)}, nil
}

// Open creates a new tab for one scenario.
func (c *Chromedp) Open(_ context.Context) (Session, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return &chromedpSession{id: uuid.NewString(), tabCtx: tabCtx, cancel: cancel, navTimeout: c.navTimeout}, nil
}

// Close stops the browser.
func (c *Chromedp) Close() error {
	c.browserCancel()
	c.allocCancel()
	return nil
}

type chromedpSession struct {
	id         string
	tabCtx     context.Context
	cancel     context.CancelFunc
	navTimeout time.Duration
}

// inspectScript returns the state of the first element matching a selector,
// visibility follows the same rules as playwright (non-empty box, not display:none or visibility:hidden).
const inspectScript = `(() => {
	const all = document.querySelectorAll(%s);
	if (all.length === 0) return {count: 0, visible: false, enabled: false, text: ""};
	const el = all[0];
	const style = window.getComputedStyle(el);
	const rect = el.getBoundingClientRect();
	const visible = style.display !== "none" && style.visibility !== "hidden" && rect.width > 0 && rect.height > 0;
	const text = visible ? el.innerText : el.textContent;
	return {count: all.length, visible: visible, enabled: !el.disabled, text: text || ""};
})()`

const forceClickScript = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	el.click();
	return true;
})()`

func (s *chromedpSession) ID() string { return s.id }

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	if err := s.runWithin(ctx, s.navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *chromedpSession) Inspect(ctx context.Context, loc Locator) (ElementState, error) {
	sel, err := jsString(loc)
	if err != nil {
		return ElementState{}, err
	}
	var res struct {
		Count   int    `json:"count"`
		Visible bool   `json:"visible"`
		Enabled bool   `json:"enabled"`
		Text    string `json:"text"`
	}
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(inspectScript, sel), &res)); err != nil {
		return ElementState{}, fmt.Errorf("inspect %s: %w", loc, err)
	}
	return ElementState{Count: res.Count, Visible: res.Visible, Enabled: res.Enabled, Text: strings.TrimSpace(res.Text)}, nil
}

func (s *chromedpSession) Click(ctx context.Context, loc Locator, force bool) error {
	if force {
		sel, err := jsString(loc)
		if err != nil {
			return err
		}
		var clicked bool
		if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(forceClickScript, sel), &clicked)); err != nil {
			return fmt.Errorf("click %s: %w", loc, err)
		}
		if !clicked {
			return fmt.Errorf("click %s: %w", loc, ErrNoElement)
		}
		return nil
	}

	err := s.run(ctx, chromedp.Click(string(loc), chromedp.ByQuery, chromedp.NodeVisible))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("click %s: %w", loc, ErrNotInteractable)
	}
	if err != nil {
		return fmt.Errorf("click %s: %w", loc, err)
	}
	return nil
}

func (s *chromedpSession) URL(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return u, nil
}

func (s *chromedpSession) Close() error {
	s.cancel()
	return nil
}

// run executes actions in the session tab, bounded by actionTimeout and the caller's context.
func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	return s.runWithin(ctx, actionTimeout, actions...)
}

func (s *chromedpSession) runWithin(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// jsString encodes a locator as a javascript string literal.
func jsString(loc Locator) (string, error) {
	b, err := json.Marshal(string(loc))
	if err != nil {
		return "", fmt.Errorf("encode locator %s: %w", loc, err)
	}
	return string(b), nil
}
