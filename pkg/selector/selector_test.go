package selector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/uisteps/pkg/browser"
)

func TestMap_Lookup(t *testing.T) {
	entries := map[string]browser.Locator{
		"wazuhMenuButton": "[data-test-subj='menuWazuhButton']",
		"rulesButton":     `a[href*="tab=rules"] > span:nth-child(1)`,
	}
	m, err := NewMap("wazuh-menu", entries)
	require.NoError(t, err)
	assert.Equal(t, "wazuh-menu", m.Page())
	assert.Equal(t, 2, m.Len())

	t.Run("present keys return stored locator unchanged", func(t *testing.T) {
		for name, want := range entries {
			got, err := m.Lookup(name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("absent key fails without default", func(t *testing.T) {
		got, err := m.Lookup("decodersButton")
		require.Error(t, err)
		assert.Empty(t, got)
		var uerr *UnknownElementError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "wazuh-menu", uerr.Page)
		assert.Equal(t, "decodersButton", uerr.Name)
		assert.Equal(t, `unknown element "decodersButton" on page "wazuh-menu"`, err.Error())
	})

	t.Run("input changes do not leak into map", func(t *testing.T) {
		entries["rulesButton"] = "#changed"
		entries["extra"] = "#extra"
		got, err := m.Lookup("rulesButton")
		require.NoError(t, err)
		assert.Equal(t, browser.Locator(`a[href*="tab=rules"] > span:nth-child(1)`), got)
		_, err = m.Lookup("extra")
		require.Error(t, err)
	})

	t.Run("zero map", func(t *testing.T) {
		_, err := Map{}.Lookup("anything")
		require.Error(t, err)
	})
}

func TestNewMap_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		entries map[string]browser.Locator
		wantErr string
	}{
		{name: "empty page", page: " ", wantErr: "page name is empty"},
		{name: "empty element name", page: "p", entries: map[string]browser.Locator{"": "#a"}, wantErr: "element name is empty"},
		{name: "empty locator", page: "p", entries: map[string]browser.Locator{"a": ""}, wantErr: `element "a" has empty locator`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMap(tc.page, tc.entries)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
	assert.Panics(t, func() { MustMap("", nil) })
}

func TestMap_Names(t *testing.T) {
	m := MustMap("decoders", map[string]browser.Locator{"b": "#b", "a": "#a"})
	assert.Equal(t, []string{"a", "b"}, m.Names())
}

func TestBuilder_Build(t *testing.T) {
	menu := MustMap("menu", map[string]browser.Locator{"rules": "#rules", "decoders": "#decoders"})
	settings := MustMap("settings", map[string]browser.Locator{"toast": ".toast"})

	t.Run("pages and lookups", func(t *testing.T) {
		cat, err := new(Builder).Add(menu, settings).Build()
		require.NoError(t, err)
		assert.Equal(t, []string{"menu", "settings"}, cat.Pages())

		loc, err := cat.Lookup("settings", "toast")
		require.NoError(t, err)
		assert.Equal(t, browser.Locator(".toast"), loc)

		_, err = cat.Lookup("agents", "toast")
		var perr *UnknownPageError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "agents", perr.Page)

		_, err = cat.Lookup("menu", "toast")
		var eerr *UnknownElementError
		require.ErrorAs(t, err, &eerr)
	})

	t.Run("overrides replace existing locators only", func(t *testing.T) {
		cat, err := new(Builder).Add(menu).
			Override(Override{Page: "menu", Elements: map[string]browser.Locator{"rules": "[data-test-subj='rules']"}}).
			Build()
		require.NoError(t, err)
		loc, err := cat.Lookup("menu", "rules")
		require.NoError(t, err)
		assert.Equal(t, browser.Locator("[data-test-subj='rules']"), loc)
		loc, err = cat.Lookup("menu", "decoders")
		require.NoError(t, err)
		assert.Equal(t, browser.Locator("#decoders"), loc)

		// original map is untouched
		loc, err = menu.Lookup("rules")
		require.NoError(t, err)
		assert.Equal(t, browser.Locator("#rules"), loc)
	})

	t.Run("all problems reported together", func(t *testing.T) {
		_, err := new(Builder).Add(menu, menu, Map{}).
			Override(Override{Page: "agents"}, Override{Page: "menu", Elements: map[string]browser.Locator{"new": "#new"}}).
			Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate selector map for page "menu"`)
		assert.Contains(t, err.Error(), "selector map without page name")
		assert.Contains(t, err.Error(), `unknown page "agents"`)
		assert.Contains(t, err.Error(), `unknown element "new" on page "menu"`)
		var eerr *UnknownElementError
		assert.True(t, errors.As(err, &eerr))
	})
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b-menu.yml"), []byte(`
page: menu
elements:
  rules: "[data-test-subj='wzMenuRules']"
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-settings.yaml"), []byte(`
page: settings
elements:
  toast: ".euiToast"
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0o600))

	ovs, err := LoadOverrides(dir)
	require.NoError(t, err)
	require.Len(t, ovs, 2)
	assert.Equal(t, "settings", ovs[0].Page, "files are applied in name order")
	assert.Equal(t, "menu", ovs[1].Page)
	assert.Equal(t, browser.Locator("[data-test-subj='wzMenuRules']"), ovs[1].Elements["rules"])

	t.Run("empty dir name", func(t *testing.T) {
		ovs, err := LoadOverrides("")
		require.NoError(t, err)
		assert.Nil(t, ovs)
	})

	t.Run("missing page", func(t *testing.T) {
		bad := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(bad, "x.yml"), []byte("elements: {a: '#a'}\n"), 0o600))
		_, err := LoadOverrides(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "page is required")
	})

	t.Run("broken yaml", func(t *testing.T) {
		bad := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(bad, "x.yml"), []byte("page: [\n"), 0o600))
		_, err := LoadOverrides(bad)
		require.Error(t, err)
	})
}
