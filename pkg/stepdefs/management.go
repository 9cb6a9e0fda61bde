package stepdefs

import (
	"github.com/umputun/uisteps/pkg/pages"
	"github.com/umputun/uisteps/pkg/steps"
)

// url fragments of management tabs
const (
	rulesURL    = "/manager/?tab=rules"
	decodersURL = "/manager/?tab=decoders"
)

// registerManagement adds rules and decoders steps.
func registerManagement(b *steps.Builder, r *resolver) {
	var (
		menu           = r.loc(pages.WazuhMenu, pages.WazuhMenuButton)
		management     = r.loc(pages.WazuhMenu, pages.ManagementButton)
		rules          = r.loc(pages.WazuhMenu, pages.RulesButton)
		decoders       = r.loc(pages.WazuhMenu, pages.DecodersButton)
		rulesTable     = r.loc(pages.Rules, pages.RulesTable)
		customRules    = r.loc(pages.Rules, pages.CustomRulesButton)
		decodersTitle  = r.loc(pages.Decoders, pages.ManageDecodersTitle)
		decodersTable  = r.loc(pages.Decoders, pages.DecodersTable)
		customDecoders = r.loc(pages.Decoders, pages.CustomDecodersButton)
	)

	b.When("The user navigates to rules", navigate(rulesURL, menu, management, rules))
	b.When("The user navigates to decoders", navigate(decodersURL, menu, management, decoders))

	b.When("The user press button custom rules", press(customRules))
	b.When("The user press button custom decoders", press(customDecoders))

	b.Then("The rules table is displayed", visible(rulesTable))
	b.Then("The decoders table is displayed", visible(decodersTitle, decodersTable))
}
