package stepdefs

import (
	"context"

	"github.com/umputun/uisteps/pkg/driver"
	"github.com/umputun/uisteps/pkg/pages"
	"github.com/umputun/uisteps/pkg/steps"
)

const (
	apiConfigURL      = "/settings?tab=api"
	connectionSuccess = "Settings. Connection success"
)

// registerSettings adds steps of the API configuration page.
func registerSettings(b *steps.Builder, r *resolver) {
	var (
		menu     = r.loc(pages.WazuhMenu, pages.WazuhMenuButton)
		settings = r.loc(pages.WazuhMenu, pages.SettingsButton)
		api      = r.loc(pages.WazuhMenu, pages.APIConfigButton)
		hosts    = r.loc(pages.APIConfiguration, pages.APIHostsTable)
		check    = r.loc(pages.APIConfiguration, pages.CheckConnectionButton)
		toast    = r.loc(pages.APIConfiguration, pages.ConnectionSuccessToast)
	)

	b.When("The user navigates to API configuration", navigate(apiConfigURL, menu, settings, api))

	// the check button refreshes the hosts table, it is usable once the table is rendered
	b.When("The user checks the API connection", func(ctx context.Context, d *driver.Driver, _ []string) error {
		if err := d.ElementIsVisible(ctx, hosts); err != nil {
			return err
		}
		return d.ClickElement(ctx, check)
	})

	b.Then("The connection success toast is displayed", func(ctx context.Context, d *driver.Driver, _ []string) error {
		return d.ValidateElementTextIncludes(ctx, toast, connectionSuccess)
	})
}
