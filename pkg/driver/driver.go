// Package driver provides helpers performing one interaction or one assertion against a browser
// session. Helpers take resolved locators only and wait by polling a condition with a bounded timeout.
package driver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/umputun/uisteps/pkg/browser"
)

// Driver wraps one browser session. It is owned by a single scenario and not shared.
type Driver struct {
	session browser.Session
	baseURL string
	opts    Options
}

// Element is a handle to the first element matching a locator, with the state observed when found.
type Element struct {
	Locator browser.Locator
	State   browser.ElementState
}

// New makes a driver for session. baseURL is prepended to relative paths passed to Visit.
func New(session browser.Session, baseURL string, opts Options) *Driver {
	return &Driver{session: session, baseURL: strings.TrimRight(baseURL, "/"), opts: opts.withDefaults()}
}

// Session returns the underlying session.
func (d *Driver) Session() browser.Session { return d.session }

// Options returns polling options in effect.
func (d *Driver) Options() Options { return d.opts }

// Visit navigates to path relative to the base url, absolute urls are used as is.
func (d *Driver) Visit(ctx context.Context, path string) error {
	target := path
	if u, err := url.Parse(path); err != nil || !u.IsAbs() {
		target = d.baseURL + "/" + strings.TrimLeft(path, "/")
	}
	if err := d.session.Navigate(ctx, target); err != nil {
		return fmt.Errorf("visit %s: %w", target, err)
	}
	return nil
}

// ClickElement clicks the first match once it is visible and enabled.
func (d *Driver) ClickElement(ctx context.Context, loc browser.Locator) error {
	var st browser.ElementState
	lastErr, err := poll(ctx, d.opts, func(ctx context.Context) (bool, error) {
		var ierr error
		if st, ierr = d.session.Inspect(ctx, loc); ierr != nil {
			return false, ierr
		}
		if !st.Interactable() {
			return false, nil
		}
		if cerr := d.session.Click(ctx, loc, false); cerr != nil {
			return false, cerr
		}
		return true, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errTimeout):
		return &ElementNotInteractableError{Locator: loc, State: st, Err: lastErr}
	default:
		return fmt.Errorf("click %s: %w", loc, err)
	}
}

// ForceClickElement clicks the first match skipping visibility and overlay checks.
func (d *Driver) ForceClickElement(ctx context.Context, loc browser.Locator) error {
	lastErr, err := poll(ctx, d.opts, func(ctx context.Context) (bool, error) {
		st, ierr := d.session.Inspect(ctx, loc)
		if ierr != nil {
			return false, ierr
		}
		if !st.Found() {
			return false, nil
		}
		if cerr := d.session.Click(ctx, loc, true); cerr != nil {
			return false, cerr
		}
		return true, nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errTimeout):
		return &ElementNotFoundError{Locator: loc, Err: lastErr}
	default:
		return fmt.Errorf("force click %s: %w", loc, err)
	}
}

// GetElement returns the first element matching loc.
func (d *Driver) GetElement(ctx context.Context, loc browser.Locator) (Element, error) {
	st, lastErr, err := d.waitState(ctx, loc, browser.ElementState.Found)
	switch {
	case err == nil:
		return Element{Locator: loc, State: st}, nil
	case errors.Is(err, errTimeout):
		return Element{}, &ElementNotFoundError{Locator: loc, Err: lastErr}
	default:
		return Element{}, fmt.Errorf("get %s: %w", loc, err)
	}
}

// ElementIsVisible asserts the element is present and rendered.
// It only reads the page, repeated calls on an unchanged page give the same result.
func (d *Driver) ElementIsVisible(ctx context.Context, loc browser.Locator) error {
	st, _, err := d.waitState(ctx, loc, func(s browser.ElementState) bool { return s.Found() && s.Visible })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errTimeout):
		actual := "hidden"
		if !st.Found() {
			actual = "not found"
		}
		return &AssertionError{Kind: KindNotVisible, Locator: loc, Expected: "visible", Actual: actual}
	default:
		return fmt.Errorf("check visibility of %s: %w", loc, err)
	}
}

// ValidateElementTextIncludes asserts the rendered text of the element contains substr.
// A hidden element has no rendered text.
func (d *Driver) ValidateElementTextIncludes(ctx context.Context, loc browser.Locator, substr string) error {
	st, lastErr, err := d.waitState(ctx, loc, func(s browser.ElementState) bool {
		return s.Found() && strings.Contains(renderedText(s), substr)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errTimeout) && !st.Found():
		return &ElementNotFoundError{Locator: loc, Err: lastErr}
	case errors.Is(err, errTimeout):
		return &AssertionError{Kind: KindTextMismatch, Locator: loc, Expected: substr, Actual: renderedText(st)}
	default:
		return fmt.Errorf("check text of %s: %w", loc, err)
	}
}

// ValidateURLIncludes asserts the current url contains substr.
func (d *Driver) ValidateURLIncludes(ctx context.Context, substr string) error {
	var current string
	_, err := poll(ctx, d.opts, func(ctx context.Context) (bool, error) {
		u, uerr := d.session.URL(ctx)
		if uerr != nil {
			return false, uerr
		}
		current = u
		return strings.Contains(u, substr), nil
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errTimeout):
		return &AssertionError{Kind: KindURLMismatch, Expected: substr, Actual: current}
	default:
		return fmt.Errorf("check url: %w", err)
	}
}

// waitState polls the element state until cond holds, returning the last observed state.
func (d *Driver) waitState(ctx context.Context, loc browser.Locator, cond func(browser.ElementState) bool) (st browser.ElementState, lastErr, err error) {
	lastErr, err = poll(ctx, d.opts, func(ctx context.Context) (bool, error) {
		cur, ierr := d.session.Inspect(ctx, loc)
		if ierr != nil {
			return false, ierr
		}
		st = cur
		return cond(cur), nil
	})
	return st, lastErr, err
}

func renderedText(s browser.ElementState) string {
	if !s.Visible {
		return ""
	}
	return s.Text
}
