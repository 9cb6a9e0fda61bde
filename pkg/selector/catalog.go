package selector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/umputun/uisteps/pkg/browser"
)

// Catalog holds one selector map per page. It is built once by Builder and read-only after that,
// safe for concurrent use.
type Catalog struct {
	pages map[string]Map
}

// Page returns the map for page.
func (c Catalog) Page(page string) (Map, error) {
	m, ok := c.pages[page]
	if !ok {
		return Map{}, &UnknownPageError{Page: page}
	}
	return m, nil
}

// Lookup resolves element on page.
func (c Catalog) Lookup(page, element string) (browser.Locator, error) {
	m, err := c.Page(page)
	if err != nil {
		return "", err
	}
	return m.Lookup(element)
}

// Pages returns sorted page names.
func (c Catalog) Pages() []string {
	res := make([]string, 0, len(c.pages))
	for p := range c.pages {
		res = append(res, p)
	}
	sort.Strings(res)
	return res
}

// Override replaces locators of existing elements on one page.
type Override struct {
	Page     string                     `yaml:"page"`
	Elements map[string]browser.Locator `yaml:"elements"`
}

// Builder collects maps and overrides and produces an immutable Catalog.
// Problems are collected and reported together by Build.
type Builder struct {
	maps      []Map
	overrides []Override
}

// Add registers a page map.
func (b *Builder) Add(maps ...Map) *Builder {
	b.maps = append(b.maps, maps...)
	return b
}

// Override registers locator overrides applied after all maps are added.
func (b *Builder) Override(ovs ...Override) *Builder {
	b.overrides = append(b.overrides, ovs...)
	return b
}

// Build validates pages and applies overrides. Duplicate pages, overrides for unknown pages
// and overrides for unknown elements are errors.
func (b *Builder) Build() (Catalog, error) {
	var errs []error
	pages := make(map[string]Map, len(b.maps))
	for _, m := range b.maps {
		if m.page == "" {
			errs = append(errs, errors.New("selector map without page name"))
			continue
		}
		if _, dup := pages[m.page]; dup {
			errs = append(errs, fmt.Errorf("duplicate selector map for page %q", m.page))
			continue
		}
		pages[m.page] = m
	}

	for _, ov := range b.overrides {
		m, ok := pages[ov.Page]
		if !ok {
			errs = append(errs, fmt.Errorf("override: %w", &UnknownPageError{Page: ov.Page}))
			continue
		}
		updated, err := m.withOverrides(ov.Elements)
		if err != nil {
			errs = append(errs, fmt.Errorf("override: %w", err))
			continue
		}
		pages[ov.Page] = updated
	}

	if len(errs) > 0 {
		return Catalog{}, errors.Join(errs...)
	}
	return Catalog{pages: pages}, nil
}

// LoadOverrides reads every *.yml and *.yaml file in dir. Each file holds one override:
//
//	page: wazuh-menu
//	elements:
//	  rulesButton: "[data-test-subj='wzMenuRules']"
//
// Returns nil, nil when dir is empty.
func LoadOverrides(dir string) ([]Override, error) {
	if dir == "" {
		return nil, nil
	}
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	res := make([]Override, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f) //nolint:gosec // selectors dir comes from config
		if err != nil {
			return nil, fmt.Errorf("read selectors %s: %w", f, err)
		}
		var ov Override
		if err := yaml.Unmarshal(data, &ov); err != nil {
			return nil, fmt.Errorf("parse selectors %s: %w", f, err)
		}
		if ov.Page == "" {
			return nil, fmt.Errorf("selectors %s: page is required", f)
		}
		res = append(res, ov)
	}
	return res, nil
}
