package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// actionTimeout bounds a single playwright action. Sessions never wait longer than this
// for one attempt, the driver owns the overall timeout.
const actionTimeout = time.Second

// LaunchOptions configures the playwright-driven browser.
type LaunchOptions struct {
	Kind              Kind          // chromium, firefox or webkit
	Headless          bool          // run without a visible window
	SlowMo            time.Duration // delay between actions, for visual observation in headed mode
	BaseURL           string        // base url applied to every browser context
	IgnoreHTTPSErrors bool          // dashboards usually run with self-signed certificates
	NavigationTimeout time.Duration // page load limit, DefaultNavigationTimeout when zero
}

// Playwright owns the playwright driver and one launched browser.
// Each Open call creates an isolated browser context (separate cookies and storage).
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    LaunchOptions
}

// Install downloads the playwright driver and the browser for the given kind.
func Install(kind Kind) error {
	name := string(kind)
	if kind == KindChromedp || kind == KindStatic {
		return fmt.Errorf("browser %s is not installed by playwright", kind)
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{name}}); err != nil {
		return fmt.Errorf("install playwright %s: %w", name, err)
	}
	return nil
}

// Launch starts playwright and launches the configured browser.
func Launch(opts LaunchOptions) (*Playwright, error) {
	if !opts.Kind.IsPlaywright() {
		return nil, fmt.Errorf("browser %s is not a playwright browser", opts.Kind)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("run playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo / time.Millisecond))
	}

	var bt playwright.BrowserType
	switch opts.Kind {
	case KindFirefox:
		bt = pw.Firefox
	case KindWebkit:
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}

	browser, err := bt.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s: %w", opts.Kind, err)
	}
	return &Playwright{pw: pw, browser: browser, opts: opts}, nil
}

// Open creates a new browser context and page for one scenario.
func (p *Playwright) Open(_ context.Context) (Session, error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(p.opts.IgnoreHTTPSErrors),
	}
	if p.opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(p.opts.BaseURL)
	}

	bctx, err := p.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(actionTimeout / time.Millisecond))
	navTimeout := navigationTimeout(p.opts.NavigationTimeout)
	bctx.SetDefaultNavigationTimeout(float64(navTimeout / time.Millisecond))

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &playwrightSession{id: uuid.NewString(), bctx: bctx, page: page, navTimeout: navTimeout}, nil
}

// Close shuts down the browser and the playwright driver.
func (p *Playwright) Close() error {
	var errs []error
	if p.browser != nil {
		if err := p.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

type playwrightSession struct {
	id         string
	bctx       playwright.BrowserContext
	page       playwright.Page
	navTimeout time.Duration
}

func (s *playwrightSession) ID() string { return s.id }

func (s *playwrightSession) Navigate(_ context.Context, url string) error {
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.navTimeout / time.Millisecond)),
	}); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (s *playwrightSession) Inspect(_ context.Context, loc Locator) (ElementState, error) {
	all := s.page.Locator(string(loc))
	count, err := all.Count()
	if err != nil {
		return ElementState{}, fmt.Errorf("count %s: %w", loc, err)
	}
	if count == 0 {
		return ElementState{}, nil
	}

	first := all.First()
	timeout := playwright.Float(float64(actionTimeout / time.Millisecond))
	state := ElementState{Count: count}
	if state.Visible, err = first.IsVisible(); err != nil {
		return ElementState{}, fmt.Errorf("check visibility of %s: %w", loc, err)
	}
	if state.Enabled, err = first.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: timeout}); err != nil {
		return ElementState{}, fmt.Errorf("check enabled state of %s: %w", loc, err)
	}
	// innerText is the rendered text, hidden elements fall back to textContent
	if state.Visible {
		state.Text, err = first.InnerText(playwright.LocatorInnerTextOptions{Timeout: timeout})
	} else {
		state.Text, err = first.TextContent(playwright.LocatorTextContentOptions{Timeout: timeout})
	}
	if err != nil {
		return ElementState{}, fmt.Errorf("read text of %s: %w", loc, err)
	}
	state.Text = strings.TrimSpace(state.Text)
	return state, nil
}

func (s *playwrightSession) Click(_ context.Context, loc Locator, force bool) error {
	all := s.page.Locator(string(loc))
	count, err := all.Count()
	if err != nil {
		return fmt.Errorf("count %s: %w", loc, err)
	}
	if count == 0 {
		return fmt.Errorf("click %s: %w", loc, ErrNoElement)
	}

	err = all.First().Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(force),
		Timeout: playwright.Float(float64(actionTimeout / time.Millisecond)),
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("click %s: %w: %w", loc, ErrNotInteractable, err)
	}
	return fmt.Errorf("click %s: %w", loc, err)
}

func (s *playwrightSession) URL(_ context.Context) (string, error) {
	return s.page.URL(), nil
}

func (s *playwrightSession) Close() error {
	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := s.bctx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser context: %w", err))
	}
	return errors.Join(errs...)
}
