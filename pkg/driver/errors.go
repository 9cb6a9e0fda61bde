package driver

import (
	"errors"
	"fmt"

	"github.com/umputun/uisteps/pkg/browser"
)

// ElementNotFoundError is returned when no element matched the locator before the timeout.
type ElementNotFoundError struct {
	Locator browser.Locator
	Err     error // last session error, if any
}

func (e *ElementNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("element not found: %s: %v", e.Locator, e.Err)
	}
	return fmt.Sprintf("element not found: %s", e.Locator)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// ElementNotInteractableError is returned when the element did not become clickable before the timeout.
type ElementNotInteractableError struct {
	Locator browser.Locator
	State   browser.ElementState // last observed state
	Err     error
}

func (e *ElementNotInteractableError) Error() string {
	reason := "not clickable"
	switch {
	case !e.State.Found():
		reason = "no matching element"
	case !e.State.Visible:
		reason = "not visible"
	case !e.State.Enabled:
		reason = "disabled"
	}
	if e.Err != nil {
		return fmt.Sprintf("element not interactable: %s (%s): %v", e.Locator, reason, e.Err)
	}
	return fmt.Sprintf("element not interactable: %s (%s)", e.Locator, reason)
}

func (e *ElementNotInteractableError) Unwrap() error { return e.Err }

// assertion kinds
const (
	KindNotVisible   = "not visible"
	KindTextMismatch = "text mismatch"
	KindURLMismatch  = "URL mismatch"
)

// AssertionError is an expectation mismatch. Expected and Actual hold the compared values,
// Actual is the last observed one.
type AssertionError struct {
	Kind     string
	Locator  browser.Locator // empty for url assertions
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	switch e.Kind {
	case KindNotVisible:
		return fmt.Sprintf("assertion failed: %s is not visible", e.Locator)
	case KindURLMismatch:
		return fmt.Sprintf("assertion failed: URL mismatch, expected to include %q, actual %q", e.Expected, e.Actual)
	default:
		return fmt.Sprintf("assertion failed: %s of %s, expected to include %q, actual %q", e.Kind, e.Locator, e.Expected, e.Actual)
	}
}

// Kind returns a short name of the error kind for failure reports.
func Kind(err error) string {
	var (
		nf *ElementNotFoundError
		ni *ElementNotInteractableError
		ae *AssertionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ae):
		return "AssertionError"
	case errors.As(err, &ni):
		return "ElementNotInteractableError"
	case errors.As(err, &nf):
		return "ElementNotFoundError"
	default:
		return "Error"
	}
}
