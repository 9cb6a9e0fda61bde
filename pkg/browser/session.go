// Package browser defines the browser session contract consumed by driver helpers
// and provides session backends for playwright, chromedp and static HTML fixtures.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultNavigationTimeout bounds a page load when no navigation timeout is configured.
const DefaultNavigationTimeout = 30 * time.Second

func navigationTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultNavigationTimeout
	}
	return d
}

// Locator identifies zero or more elements in a rendered document. All backends
// interpret it as a CSS selector.
type Locator string

// String returns locator as a plain string.
func (l Locator) String() string { return string(l) }

// ElementState is a single snapshot of the first element matching a locator.
// Count is the total number of matches; the other fields describe the first one
// and are zero when Count is 0.
type ElementState struct {
	Count   int
	Visible bool
	Enabled bool
	Text    string
}

// Found reports whether at least one element matched.
func (s ElementState) Found() bool { return s.Count > 0 }

// Interactable reports whether the first match can receive a normal click.
func (s ElementState) Interactable() bool { return s.Count > 0 && s.Visible && s.Enabled }

// single-attempt failures reported by sessions. Driver helpers poll over these.
var (
	ErrNoElement       = errors.New("no element matches locator")
	ErrNotInteractable = errors.New("element is not interactable")
)

// Session is one browser session owned by a single scenario.
// Every method performs one attempt and never waits for the page to change,
// waiting is the driver's job.
type Session interface {
	ID() string
	Navigate(ctx context.Context, url string) error
	Inspect(ctx context.Context, loc Locator) (ElementState, error)
	Click(ctx context.Context, loc Locator, force bool) error
	URL(ctx context.Context) (string, error)
	Close() error
}

// Opener creates independent sessions, one per scenario.
type Opener interface {
	Open(ctx context.Context) (Session, error)
}

// Kind names a supported session backend.
type Kind string

// supported backends
const (
	KindChromium Kind = "chromium"
	KindFirefox  Kind = "firefox"
	KindWebkit   Kind = "webkit"
	KindChromedp Kind = "chromedp"
	KindStatic   Kind = "static"
)

// ParseKind validates backend name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindChromium, KindFirefox, KindWebkit, KindChromedp, KindStatic:
		return k, nil
	default:
		return "", fmt.Errorf("unknown browser %q, expected chromium, firefox, webkit, chromedp or static", s)
	}
}

// IsPlaywright reports whether the backend is driven by playwright.
func (k Kind) IsPlaywright() bool {
	return k == KindChromium || k == KindFirefox || k == KindWebkit
}
