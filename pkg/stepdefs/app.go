package stepdefs

import (
	"context"

	"github.com/umputun/uisteps/pkg/driver"
	"github.com/umputun/uisteps/pkg/pages"
	"github.com/umputun/uisteps/pkg/steps"
)

func registerApp(b *steps.Builder, r *resolver) {
	menu := r.loc(pages.WazuhMenu, pages.WazuhMenuButton)

	b.Given("The wazuh app is loaded", func(ctx context.Context, d *driver.Driver, _ []string) error {
		if err := d.Visit(ctx, "/"); err != nil {
			return err
		}
		return d.ElementIsVisible(ctx, menu)
	})
}
