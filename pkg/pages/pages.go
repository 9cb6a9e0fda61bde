// Package pages declares selector maps for the Wazuh dashboard UI areas.
// Each map covers one menu or page; step definitions resolve element names through them.
package pages

import (
	"fmt"

	"github.com/umputun/uisteps/pkg/browser"
	"github.com/umputun/uisteps/pkg/selector"
)

// page names
const (
	WazuhMenu        = "wazuh-menu"
	Rules            = "rules"
	Decoders         = "decoders"
	APIConfiguration = "api-configuration"
	BasicModules     = "basic-modules"
	Overview         = "overview"
)

// wazuh menu elements
const (
	WazuhMenuButton  = "wazuhMenuButton"
	ManagementButton = "managementButton"
	RulesButton      = "rulesButton"
	DecodersButton   = "decodersButton"
	SettingsButton   = "settingsButton"
	APIConfigButton  = "apiConfigurationButton"
)

// rules and decoders page elements
const (
	RulesTable           = "rulesTable"
	CustomRulesButton    = "customRulesButton"
	DecodersTable        = "decodersTable"
	CustomDecodersButton = "customDecodersButton"
	ManageDecodersTitle  = "manageDecodersTitle"
)

// api configuration page elements
const (
	CheckConnectionButton  = "checkConnectionButton"
	ConnectionSuccessToast = "connectionSuccessToast"
	APIHostsTable          = "apiHostsTable"
)

// overview elements
const (
	ModulesDashboard = "modulesDashboard"
)

// Module describes one basic module card on the overview page and the tab it opens.
type Module struct {
	Name string
	Card browser.Locator
	Tab  string // value of the tab query parameter once the module is open
}

// Modules lists the basic modules reachable from the overview page, keyed by the
// name testers use in steps, e.g. "The user goes to Security Events".
var Modules = []Module{
	{Name: "Security Events", Card: "[data-test-subj='overviewWelcomeGeneral']", Tab: "general"},
	{Name: "Integrity Monitoring", Card: "[data-test-subj='overviewWelcomeFim']", Tab: "fim"},
	{Name: "System Auditing", Card: "[data-test-subj='overviewWelcomeAudit']", Tab: "audit"},
	{Name: "Policy Monitoring", Card: "[data-test-subj='overviewWelcomePm']", Tab: "pm"},
	{Name: "Security Configuration Assessment", Card: "[data-test-subj='overviewWelcomeSca']", Tab: "sca"},
	{Name: "Vulnerabilities", Card: "[data-test-subj='overviewWelcomeVuls']", Tab: "vuls"},
	{Name: "MITRE ATT&CK", Card: "[data-test-subj='overviewWelcomeMitre']", Tab: "mitre"},
	{Name: "Amazon AWS", Card: "[data-test-subj='overviewWelcomeAws']", Tab: "aws"},
}

// ModuleTab returns the tab parameter of a module by its step name.
func ModuleTab(name string) (string, error) {
	for _, m := range Modules {
		if m.Name == name {
			return m.Tab, nil
		}
	}
	return "", &selector.UnknownElementError{Page: BasicModules, Name: name}
}

// Maps returns selector maps for all Wazuh UI areas. Maps are fresh values built on each call.
func Maps() []selector.Map {
	modules := make(map[string]browser.Locator, len(Modules))
	for _, m := range Modules {
		modules[m.Name] = m.Card
	}

	return []selector.Map{
		selector.MustMap(WazuhMenu, map[string]browser.Locator{
			WazuhMenuButton:  "[data-test-subj='menuWazuhButton']",
			ManagementButton: "[data-test-subj='menuManagementButton']",
			RulesButton:      "[data-test-subj='menuManagementRulesLink']",
			DecodersButton:   "[data-test-subj='menuManagementDecodersLink']",
			SettingsButton:   "[data-test-subj='menuSettingsButton']",
			APIConfigButton:  "[data-test-subj='menuSettingsApiLink']",
		}),
		selector.MustMap(Rules, map[string]browser.Locator{
			RulesTable:        "[data-test-subj='rulesTable'] table",
			CustomRulesButton: "[data-test-subj='customRulesButton']",
		}),
		selector.MustMap(Decoders, map[string]browser.Locator{
			DecodersTable:        "[data-test-subj='decodersTable'] table",
			CustomDecodersButton: "[data-test-subj='customDecodersButton']",
			ManageDecodersTitle:  "[data-test-subj='decodersTitle']",
		}),
		selector.MustMap(APIConfiguration, map[string]browser.Locator{
			CheckConnectionButton:  "[data-test-subj='apiTableRefreshButton']",
			ConnectionSuccessToast: ".euiGlobalToastList .euiToastHeader__title",
			APIHostsTable:          "[data-test-subj='apiHostsTable'] table",
		}),
		selector.MustMap(Overview, map[string]browser.Locator{
			ModulesDashboard: "[data-test-subj='moduleDashboard']",
		}),
		selector.MustMap(BasicModules, modules),
	}
}

// Catalog builds the catalog of all Wazuh maps with optional locator overrides.
func Catalog(overrides ...selector.Override) (selector.Catalog, error) {
	cat, err := new(selector.Builder).Add(Maps()...).Override(overrides...).Build()
	if err != nil {
		return selector.Catalog{}, fmt.Errorf("build selector catalog: %w", err)
	}
	return cat, nil
}
