package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/umputun/uisteps/pkg/browser"
)

// Values holds scalar configuration values.
// Fields ending in *Set (e.g., HeadlessSet) track whether that field was explicitly
// set in config. This allows distinguishing explicit false/0 from "not set", enabling
// proper merge behavior where local config can override global config with zero values.
type Values struct {
	BaseURL              string
	Browser              string
	Headless             bool
	HeadlessSet          bool // tracks if headless was explicitly set
	SlowMoMs             int
	SlowMoMsSet          bool
	IgnoreHTTPSErrors    bool
	IgnoreHTTPSErrorsSet bool
	TimeoutMs            int
	TimeoutMsSet         bool
	NavTimeoutMs         int // page load limit of browser backends
	NavTimeoutMsSet      bool
	PollIntervalMs       int
	PollIntervalMsSet    bool
	PollMaxIntervalMs    int
	PollMaxIntervalMsSet bool
	PollBackoff          float64
	PollBackoffSet       bool
	Features             []string // feature files or directories
	Tags                 string
	TagsSet              bool // empty tags in local config clear global tags
	Format               string
	Concurrency          int
	ConcurrencySet       bool
	Strict               bool
	StrictSet            bool
	SelectorsDir         string
	StaticDir            string
	LogDir               string
	Colors               ColorConfig
}

// valuesLoader loads scalar values with embedded filesystem fallback.
type valuesLoader struct {
	embedFS embed.FS
}

// newValuesLoader creates a new valuesLoader with the given embedded filesystem.
func newValuesLoader(embedFS embed.FS) *valuesLoader {
	return &valuesLoader{embedFS: embedFS}
}

// Load loads values from config files with fallback chain: local → global → embedded.
// localConfigPath and globalConfigPath are full paths to config files (not directories).
func (vl *valuesLoader) Load(localConfigPath, globalConfigPath string) (Values, error) {
	// start with embedded defaults
	embedded, err := vl.parseValuesFromEmbedded()
	if err != nil {
		return Values{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	// parse global config if exists
	global, err := vl.parseValuesFromFile(globalConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse global config: %w", err)
	}

	// parse local config if exists
	local, err := vl.parseValuesFromFile(localConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse local config: %w", err)
	}

	// merge: embedded → global → local (local wins)
	result := embedded
	result.mergeFrom(&global)
	result.mergeFrom(&local)

	return result, nil
}

// parseValuesFromFile reads a config file and parses it into Values.
// returns empty Values (not error) if file doesn't exist or contains only comments/whitespace.
// this enables fallback to embedded defaults for files that are commented templates.
func (vl *valuesLoader) parseValuesFromFile(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return Values{}, nil
		}
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	}

	// if only comments/whitespace, return empty Values to fall back to embedded defaults
	if strings.TrimSpace(stripComments(string(data))) == "" {
		return Values{}, nil
	}

	return vl.parseValuesFromBytes(data)
}

// parseValuesFromEmbedded parses values from the embedded defaults/config file.
func (vl *valuesLoader) parseValuesFromEmbedded() (Values, error) {
	data, err := vl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return vl.parseValuesFromBytes(data)
}

// parseValuesFromBytes parses configuration from a byte slice into Values.
func (vl *valuesLoader) parseValuesFromBytes(data []byte) (Values, error) {
	// ignoreInlineComment: true prevents # from being treated as inline comment marker
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse config: %w", err)
	}

	var values Values
	section := cfg.Section("") // default section (no section header)

	// browser settings
	if key, err := section.GetKey("base_url"); err == nil {
		values.BaseURL = strings.TrimSpace(key.String())
	}
	if key, err := section.GetKey("browser"); err == nil {
		val := strings.TrimSpace(key.String())
		if val != "" {
			if _, kindErr := browser.ParseKind(val); kindErr != nil {
				return Values{}, fmt.Errorf("invalid browser: %w", kindErr)
			}
		}
		values.Browser = val
	}
	if err := parseBool(section, "headless", &values.Headless, &values.HeadlessSet); err != nil {
		return Values{}, err
	}
	if err := parseNonNegativeInt(section, "slow_mo_ms", &values.SlowMoMs, &values.SlowMoMsSet); err != nil {
		return Values{}, err
	}
	if err := parseBool(section, "ignore_https_errors", &values.IgnoreHTTPSErrors, &values.IgnoreHTTPSErrorsSet); err != nil {
		return Values{}, err
	}

	// polling
	if err := parseNonNegativeInt(section, "timeout_ms", &values.TimeoutMs, &values.TimeoutMsSet); err != nil {
		return Values{}, err
	}
	if err := parseNonNegativeInt(section, "navigation_timeout_ms", &values.NavTimeoutMs, &values.NavTimeoutMsSet); err != nil {
		return Values{}, err
	}
	if err := parseNonNegativeInt(section, "poll_interval_ms", &values.PollIntervalMs, &values.PollIntervalMsSet); err != nil {
		return Values{}, err
	}
	if err := parseNonNegativeInt(section, "poll_max_interval_ms", &values.PollMaxIntervalMs, &values.PollMaxIntervalMsSet); err != nil {
		return Values{}, err
	}
	if key, err := section.GetKey("poll_backoff"); err == nil {
		val, floatErr := key.Float64()
		if floatErr != nil {
			return Values{}, fmt.Errorf("invalid poll_backoff: %w", floatErr)
		}
		if val < 1 {
			return Values{}, fmt.Errorf("invalid poll_backoff: must be at least 1, got %v", val)
		}
		values.PollBackoff = val
		values.PollBackoffSet = true
	}

	// suite settings
	if key, err := section.GetKey("features"); err == nil {
		values.Features = splitList(key.String())
	}
	if key, err := section.GetKey("tags"); err == nil {
		values.Tags = strings.TrimSpace(key.String())
		values.TagsSet = true
	}
	if key, err := section.GetKey("format"); err == nil {
		values.Format = strings.TrimSpace(key.String())
	}
	if err := parseNonNegativeInt(section, "concurrency", &values.Concurrency, &values.ConcurrencySet); err != nil {
		return Values{}, err
	}
	if values.ConcurrencySet && values.Concurrency == 0 {
		return Values{}, fmt.Errorf("invalid concurrency: must be positive, got %d", values.Concurrency)
	}
	if err := parseBool(section, "strict", &values.Strict, &values.StrictSet); err != nil {
		return Values{}, err
	}

	// paths
	if key, err := section.GetKey("selectors_dir"); err == nil {
		values.SelectorsDir = strings.TrimSpace(key.String())
	}
	if key, err := section.GetKey("static_dir"); err == nil {
		values.StaticDir = strings.TrimSpace(key.String())
	}
	if key, err := section.GetKey("log_dir"); err == nil {
		values.LogDir = strings.TrimSpace(key.String())
	}

	if err := values.Colors.parseColors(section); err != nil {
		return Values{}, err
	}
	return values, nil
}

func parseBool(section *ini.Section, name string, dst, set *bool) error {
	key, err := section.GetKey(name)
	if err != nil {
		return nil // not set
	}
	val, boolErr := key.Bool()
	if boolErr != nil {
		return fmt.Errorf("invalid %s: %w", name, boolErr)
	}
	*dst, *set = val, true
	return nil
}

func parseNonNegativeInt(section *ini.Section, name string, dst *int, set *bool) error {
	key, err := section.GetKey(name)
	if err != nil {
		return nil // not set
	}
	val, intErr := key.Int()
	if intErr != nil {
		return fmt.Errorf("invalid %s: %w", name, intErr)
	}
	if val < 0 {
		return fmt.Errorf("invalid %s: must be non-negative, got %d", name, val)
	}
	*dst, *set = val, true
	return nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	var res []string
	for p := range strings.SplitSeq(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// mergeFrom merges non-empty values from src into dst.
func (dst *Values) mergeFrom(src *Values) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.Browser != "" {
		dst.Browser = src.Browser
	}
	if src.HeadlessSet {
		dst.Headless = src.Headless
		dst.HeadlessSet = true
	}
	if src.SlowMoMsSet {
		dst.SlowMoMs = src.SlowMoMs
		dst.SlowMoMsSet = true
	}
	if src.IgnoreHTTPSErrorsSet {
		dst.IgnoreHTTPSErrors = src.IgnoreHTTPSErrors
		dst.IgnoreHTTPSErrorsSet = true
	}
	if src.TimeoutMsSet {
		dst.TimeoutMs = src.TimeoutMs
		dst.TimeoutMsSet = true
	}
	if src.NavTimeoutMsSet {
		dst.NavTimeoutMs = src.NavTimeoutMs
		dst.NavTimeoutMsSet = true
	}
	if src.PollIntervalMsSet {
		dst.PollIntervalMs = src.PollIntervalMs
		dst.PollIntervalMsSet = true
	}
	if src.PollMaxIntervalMsSet {
		dst.PollMaxIntervalMs = src.PollMaxIntervalMs
		dst.PollMaxIntervalMsSet = true
	}
	if src.PollBackoffSet {
		dst.PollBackoff = src.PollBackoff
		dst.PollBackoffSet = true
	}
	if len(src.Features) > 0 {
		dst.Features = src.Features
	}
	if src.TagsSet {
		dst.Tags = src.Tags
		dst.TagsSet = true
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	if src.ConcurrencySet {
		dst.Concurrency = src.Concurrency
		dst.ConcurrencySet = true
	}
	if src.StrictSet {
		dst.Strict = src.Strict
		dst.StrictSet = true
	}
	if src.SelectorsDir != "" {
		dst.SelectorsDir = src.SelectorsDir
	}
	if src.StaticDir != "" {
		dst.StaticDir = src.StaticDir
	}
	if src.LogDir != "" {
		dst.LogDir = src.LogDir
	}
	dst.Colors.mergeFrom(&src.Colors)
}

// stripComments removes lines starting with # (comment lines) from content.
// handles both Unix (LF) and Windows (CRLF) line endings.
func stripComments(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := make([]string, 0, strings.Count(content, "\n")+1)
	for line := range strings.SplitSeq(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
