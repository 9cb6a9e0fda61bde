package stepdefs

import (
	"context"

	"github.com/umputun/uisteps/pkg/driver"
	"github.com/umputun/uisteps/pkg/pages"
	"github.com/umputun/uisteps/pkg/steps"
)

// registerModules adds steps for the basic module cards of the overview page.
// The module name in step text is an element name of the basic-modules map.
func registerModules(b *steps.Builder, r *resolver) {
	modules := r.page(pages.BasicModules)
	dashboard := r.loc(pages.Overview, pages.ModulesDashboard)

	// cards are rendered after the overview page finishes loading its state, the card may be
	// covered by a loading overlay and is clicked with force once visible
	b.When("The user goes to {}", func(ctx context.Context, d *driver.Driver, args []string) error {
		card, err := modules.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := d.ElementIsVisible(ctx, card); err != nil {
			return err
		}
		return d.ForceClickElement(ctx, card)
	})

	b.Then("The module {} dashboard is displayed", func(ctx context.Context, d *driver.Driver, args []string) error {
		tab, err := pages.ModuleTab(args[0])
		if err != nil {
			return err
		}
		if err := d.ValidateURLIncludes(ctx, "tab="+tab); err != nil {
			return err
		}
		return d.ElementIsVisible(ctx, dashboard)
	})
}
