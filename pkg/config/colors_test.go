package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRGB(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
		err  string
	}{
		{in: "#00ff00", want: RGB{G: 255, Set: true}},
		{in: "#8A8A8A", want: RGB{R: 138, G: 138, B: 138, Set: true}},
		{in: "#010203", want: RGB{R: 1, G: 2, B: 3, Set: true}},
		{in: "ff0000", err: `color "ff0000" is not in #rrggbb form`},
		{in: "#fff", err: `color "#fff" is not in #rrggbb form`},
		{in: "#gggggg", err: `color "#gggggg"`},
		{in: "#+fffff", err: `color "#+fffff"`},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRGB(tc.in)
			if tc.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValuesLoader_Load_Colors(t *testing.T) {
	values, err := newValuesLoader(defaultsFS).Load("", "")
	require.NoError(t, err)
	assert.Equal(t, ColorConfig{
		Passed:    RGB{G: 255, Set: true},
		Failed:    RGB{R: 255, Set: true},
		Skipped:   RGB{G: 255, B: 255, Set: true},
		Undefined: RGB{R: 255, G: 197, B: 109, Set: true},
		Info:      RGB{R: 180, G: 180, B: 180, Set: true},
		Warn:      RGB{R: 255, G: 197, B: 109, Set: true},
		Error:     RGB{R: 255, Set: true},
		Timestamp: RGB{R: 138, G: 138, B: 138, Set: true},
	}, values.Colors)

	tmpDir := t.TempDir()
	globalConfig := filepath.Join(tmpDir, "global-config")
	localConfig := filepath.Join(tmpDir, "local-config")
	require.NoError(t, os.WriteFile(globalConfig, []byte("color_passed = #ff0000\ncolor_error = #00ff00\ncolor_info =\n"), 0o600))
	require.NoError(t, os.WriteFile(localConfig, []byte("color_passed = #0000ff\n"), 0o600))

	values, err = newValuesLoader(defaultsFS).Load(localConfig, globalConfig)
	require.NoError(t, err)
	assert.Equal(t, RGB{B: 255, Set: true}, values.Colors.Passed, "local overrides global")
	assert.Equal(t, RGB{G: 255, Set: true}, values.Colors.Error, "global kept when local does not set it")
	assert.Equal(t, RGB{R: 180, G: 180, B: 180, Set: true}, values.Colors.Info, "empty value keeps embedded default")
	assert.Equal(t, RGB{G: 255, B: 255, Set: true}, values.Colors.Skipped, "embedded default")
}

func TestValuesLoader_Load_InvalidColor(t *testing.T) {
	for _, key := range []string{"color_passed", "color_failed", "color_skipped", "color_undefined", "color_timestamp"} {
		t.Run(key, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config")
			require.NoError(t, os.WriteFile(configPath, []byte(key+" = green"), 0o600))

			_, err := newValuesLoader(defaultsFS).Load("", configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid "+key)
		})
	}
}

func TestColorConfig_mergeFrom(t *testing.T) {
	dst := ColorConfig{Passed: RGB{G: 255, Set: true}, Failed: RGB{R: 255, Set: true}}
	dst.mergeFrom(&ColorConfig{Failed: RGB{R: 1, Set: true}, Warn: RGB{B: 9, Set: true}})
	assert.Equal(t, RGB{G: 255, Set: true}, dst.Passed)
	assert.Equal(t, RGB{R: 1, Set: true}, dst.Failed)
	assert.Equal(t, RGB{B: 9, Set: true}, dst.Warn)
	assert.False(t, dst.Timestamp.Set)
}
