package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// RGB is a 24-bit color from a #rrggbb value. The zero value means the color is not configured.
type RGB struct {
	R, G, B uint8
	Set     bool
}

// ColorConfig holds output colors: one per step status godog reports and one per log line kind.
// Pending steps share the undefined color.
type ColorConfig struct {
	Passed    RGB
	Failed    RGB
	Skipped   RGB
	Undefined RGB
	Info      RGB
	Warn      RGB
	Error     RGB
	Timestamp RGB
}

type colorKey struct {
	name string
	rgb  *RGB
}

// keys binds config keys to fields, in the order they appear in the defaults.
func (c *ColorConfig) keys() []colorKey {
	return []colorKey{
		{"color_passed", &c.Passed},
		{"color_failed", &c.Failed},
		{"color_skipped", &c.Skipped},
		{"color_undefined", &c.Undefined},
		{"color_info", &c.Info},
		{"color_warn", &c.Warn},
		{"color_error", &c.Error},
		{"color_timestamp", &c.Timestamp},
	}
}

// parseColors reads color_* keys of section. Empty values are left unset.
func (c *ColorConfig) parseColors(section *ini.Section) error {
	for _, k := range c.keys() {
		key, err := section.GetKey(k.name)
		if err != nil {
			continue
		}
		val := strings.TrimSpace(key.String())
		if val == "" {
			continue
		}
		rgb, err := ParseRGB(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", k.name, err)
		}
		*k.rgb = rgb
	}
	return nil
}

// mergeFrom takes every color set in src.
func (c *ColorConfig) mergeFrom(src *ColorConfig) {
	dst, from := c.keys(), src.keys()
	for i := range from {
		if from[i].rgb.Set {
			*dst[i].rgb = *from[i].rgb
		}
	}
}

// ParseRGB parses "#rrggbb".
func ParseRGB(s string) (RGB, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, fmt.Errorf("color %q is not in #rrggbb form", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), Set: true}, nil //nolint:gosec // masked by uint8
}
