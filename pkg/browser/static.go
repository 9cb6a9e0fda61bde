package browser

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// Static serves HTML fixture pages without a real browser. Pages are keyed by url path,
// clicks follow href links and toggle elements referenced by data-show and data-hide.
// It is meant for exercising step definitions offline and in unit tests.
type Static struct {
	baseURL string
	pages   map[string]string // url path -> html
}

// NewStatic makes static backend from a path to html map. baseURL is used to resolve relative
// navigation and may be empty.
func NewStatic(baseURL string, pages map[string]string) *Static {
	cp := make(map[string]string, len(pages))
	for k, v := range pages {
		cp[normalizePath(k)] = v
	}
	return &Static{baseURL: strings.TrimRight(baseURL, "/"), pages: cp}
}

// LoadStatic reads *.html files from dir. index.html maps to its directory path,
// any other file maps to its name without extension, i.e. manager/index.html -> /manager/
// and settings.html -> /settings.
func LoadStatic(baseURL, dir string) (*Static, error) {
	pages := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", path, err)
		}
		data, err := os.ReadFile(path) //nolint:gosec // fixture dir comes from config
		if err != nil {
			return fmt.Errorf("read page %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)
		key := "/" + strings.TrimSuffix(rel, ".html")
		if base := filepath.Base(rel); base == "index.html" {
			key = "/" + strings.TrimSuffix(rel, base)
		}
		pages[key] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load static pages from %s: %w", dir, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no html pages in %s", dir)
	}
	return NewStatic(baseURL, pages), nil
}

// Open creates a session with its own copy of every page it visits.
func (s *Static) Open(_ context.Context) (Session, error) {
	return &StaticSession{id: uuid.NewString(), backend: s}, nil
}

// StaticSession is a session over static pages. Exported for tests which inspect
// the recorded click history.
type StaticSession struct {
	id      string
	backend *Static

	mu     sync.Mutex
	url    *url.URL
	doc    *goquery.Document
	clicks []Locator
	closed bool
}

// ID returns session id.
func (s *StaticSession) ID() string { return s.id }

// Navigate loads the page matching url path.
func (s *StaticSession) Navigate(_ context.Context, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigate(rawURL)
}

// Inspect returns state of the first element matching loc.
func (s *StaticSession) Inspect(_ context.Context, loc Locator) (ElementState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return ElementState{}, err
	}

	sel := s.doc.Find(string(loc))
	if sel.Length() == 0 {
		return ElementState{}, nil
	}
	first := sel.First()
	return ElementState{
		Count:   sel.Length(),
		Visible: isRendered(first),
		Enabled: isEnabled(first),
		Text:    strings.Join(strings.Fields(first.Text()), " "),
	}, nil
}

// Click clicks the first element matching loc. Without force the element must be visible and enabled.
func (s *StaticSession) Click(_ context.Context, loc Locator, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	sel := s.doc.Find(string(loc))
	if sel.Length() == 0 {
		return fmt.Errorf("click %s: %w", loc, ErrNoElement)
	}
	el := sel.First()
	if !force && (!isRendered(el) || !isEnabled(el)) {
		return fmt.Errorf("click %s: %w", loc, ErrNotInteractable)
	}
	s.clicks = append(s.clicks, loc)

	if target, ok := el.Attr("data-show"); ok {
		s.doc.Find(target).RemoveAttr("hidden")
	}
	if target, ok := el.Attr("data-hide"); ok {
		s.doc.Find(target).SetAttr("hidden", "")
	}

	href, ok := el.Attr("href")
	if !ok {
		href, ok = el.Closest("a[href]").Attr("href")
	}
	if ok && href != "" && !strings.HasPrefix(href, "javascript:") {
		ref, err := url.Parse(href)
		if err != nil {
			return fmt.Errorf("parse href %q: %w", href, err)
		}
		return s.navigate(s.url.ResolveReference(ref).String())
	}
	return nil
}

// URL returns current page url.
func (s *StaticSession) URL(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.url == nil {
		return "about:blank", nil
	}
	return s.url.String(), nil
}

// Clicks returns locators of all successful clicks in order.
func (s *StaticSession) Clicks() []Locator {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]Locator, len(s.clicks))
	copy(res, s.clicks)
	return res
}

// Close marks session closed, any further call fails.
func (s *StaticSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *StaticSession) ready() error {
	if s.closed {
		return fmt.Errorf("session %s is closed", s.id)
	}
	if s.doc == nil {
		return fmt.Errorf("session %s has no page loaded", s.id)
	}
	return nil
}

func (s *StaticSession) navigate(rawURL string) error {
	if s.closed {
		return fmt.Errorf("session %s is closed", s.id)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if !u.IsAbs() && s.backend.baseURL != "" {
		base, err := url.Parse(s.backend.baseURL + "/")
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}
		u = base.ResolveReference(&url.URL{Path: strings.TrimPrefix(u.Path, "/"), RawQuery: u.RawQuery, Fragment: u.Fragment})
	}

	key := u.Path
	if base, err := url.Parse(s.backend.baseURL); err == nil && base.Path != "" {
		key = strings.TrimPrefix(key, strings.TrimRight(base.Path, "/"))
	}
	page, ok := s.backend.pages[normalizePath(key)]
	if !ok {
		return fmt.Errorf("navigate to %s: no static page for %s", rawURL, key)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return fmt.Errorf("parse page %s: %w", key, err)
	}
	s.url, s.doc = u, doc
	return nil
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// isRendered reports whether el and all its ancestors are displayed.
func isRendered(el *goquery.Selection) bool {
	for n := el; n.Length() > 0; n = n.Parent() {
		if _, hidden := n.Attr("hidden"); hidden {
			return false
		}
		if v, _ := n.Attr("aria-hidden"); v == "true" {
			return false
		}
		style, _ := n.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func isEnabled(el *goquery.Selection) bool {
	if _, disabled := el.Attr("disabled"); disabled {
		return false
	}
	v, _ := el.Attr("aria-disabled")
	return v != "true"
}
