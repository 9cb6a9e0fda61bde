// Package stepdefs defines the Wazuh dashboard steps. Every locator comes from the selector
// catalog, step handlers only combine driver helpers.
package stepdefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/umputun/uisteps/pkg/browser"
	"github.com/umputun/uisteps/pkg/driver"
	"github.com/umputun/uisteps/pkg/selector"
	"github.com/umputun/uisteps/pkg/steps"
)

// Register adds all Wazuh step definitions to b. Locators are resolved from cat once, a missing
// page or element is reported here rather than in the middle of a scenario.
func Register(b *steps.Builder, cat selector.Catalog) error {
	r := &resolver{cat: cat}
	registerApp(b.Source("app"), r)
	registerManagement(b.Source("management"), r)
	registerModules(b.Source("modules"), r)
	registerSettings(b.Source("settings"), r)
	if len(r.errs) > 0 {
		return fmt.Errorf("register step definitions: %w", errors.Join(r.errs...))
	}
	return nil
}

// resolver looks up locators and pages, keeping the errors.
type resolver struct {
	cat  selector.Catalog
	errs []error
}

func (r *resolver) loc(page, element string) browser.Locator {
	l, err := r.cat.Lookup(page, element)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return l
}

func (r *resolver) page(page string) selector.Map {
	m, err := r.cat.Page(page)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return m
}

// clickInOrder clicks each locator and stops at the first failure. Clicks already made stay
// applied to the page.
func clickInOrder(ctx context.Context, d *driver.Driver, locs ...browser.Locator) error {
	for _, l := range locs {
		if err := d.ClickElement(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// navigate clicks through a menu path and checks the resulting url.
func navigate(urlPart string, locs ...browser.Locator) steps.Handler {
	return func(ctx context.Context, d *driver.Driver, _ []string) error {
		if err := clickInOrder(ctx, d, locs...); err != nil {
			return err
		}
		return d.ValidateURLIncludes(ctx, urlPart)
	}
}

// visible asserts all elements are displayed, in order.
func visible(locs ...browser.Locator) steps.Handler {
	return func(ctx context.Context, d *driver.Driver, _ []string) error {
		for _, l := range locs {
			if err := d.ElementIsVisible(ctx, l); err != nil {
				return err
			}
		}
		return nil
	}
}

// press waits for a button to show up and clicks it.
func press(loc browser.Locator) steps.Handler {
	return func(ctx context.Context, d *driver.Driver, _ []string) error {
		if err := d.ElementIsVisible(ctx, loc); err != nil {
			return err
		}
		return d.ClickElement(ctx, loc)
	}
}
