// Package selector provides immutable per-page selector maps, from a logical element name
// to a browser locator, and a catalog built once at startup.
package selector

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/umputun/uisteps/pkg/browser"
)

// UnknownElementError is returned when a selector map has no element with the requested name.
type UnknownElementError struct {
	Page string
	Name string
}

func (e *UnknownElementError) Error() string {
	return fmt.Sprintf("unknown element %q on page %q", e.Name, e.Page)
}

// UnknownPageError is returned when a catalog has no map for the requested page.
type UnknownPageError struct {
	Page string
}

func (e *UnknownPageError) Error() string {
	return fmt.Sprintf("unknown page %q", e.Page)
}

// Map is an immutable mapping from element name to locator for one UI area.
// The zero value is an empty map whose lookups always fail.
type Map struct {
	page     string
	elements map[string]browser.Locator
}

// NewMap makes a map for page. Entries are copied, later changes to the argument have no effect.
func NewMap(page string, entries map[string]browser.Locator) (Map, error) {
	if strings.TrimSpace(page) == "" {
		return Map{}, errors.New("page name is empty")
	}
	elements := make(map[string]browser.Locator, len(entries))
	for name, loc := range entries {
		if strings.TrimSpace(name) == "" {
			return Map{}, fmt.Errorf("page %q: element name is empty", page)
		}
		if strings.TrimSpace(string(loc)) == "" {
			return Map{}, fmt.Errorf("page %q: element %q has empty locator", page, name)
		}
		elements[name] = loc
	}
	return Map{page: page, elements: elements}, nil
}

// MustMap is like NewMap but panics on invalid input. Used for page maps declared in code.
func MustMap(page string, entries map[string]browser.Locator) Map {
	m, err := NewMap(page, entries)
	if err != nil {
		panic(err)
	}
	return m
}

// Page returns the page name.
func (m Map) Page() string { return m.page }

// Len returns number of elements.
func (m Map) Len() int { return len(m.elements) }

// Lookup returns the stored locator for name unchanged.
func (m Map) Lookup(name string) (browser.Locator, error) {
	loc, ok := m.elements[name]
	if !ok {
		return "", &UnknownElementError{Page: m.page, Name: name}
	}
	return loc, nil
}

// Names returns sorted element names.
func (m Map) Names() []string {
	names := make([]string, 0, len(m.elements))
	for name := range m.elements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// withOverrides returns a copy of the map with locators replaced for existing names.
func (m Map) withOverrides(entries map[string]browser.Locator) (Map, error) {
	res := make(map[string]browser.Locator, len(m.elements))
	for k, v := range m.elements {
		res[k] = v
	}
	for name, loc := range entries {
		if _, ok := res[name]; !ok {
			return Map{}, &UnknownElementError{Page: m.page, Name: name}
		}
		res[name] = loc
	}
	return NewMap(m.page, res)
}
