package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesLoader_Load_EmbeddedOnly(t *testing.T) {
	values, err := newValuesLoader(defaultsFS).Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "https://localhost/app/wazuh#", values.BaseURL, "# is not an inline comment")
	assert.Equal(t, "chromium", values.Browser)
	assert.True(t, values.Headless)
	assert.True(t, values.HeadlessSet)
	assert.Equal(t, 0, values.SlowMoMs)
	assert.True(t, values.SlowMoMsSet)
	assert.True(t, values.IgnoreHTTPSErrors)
	assert.Equal(t, 4000, values.TimeoutMs)
	assert.Equal(t, 30000, values.NavTimeoutMs)
	assert.Equal(t, 100, values.PollIntervalMs)
	assert.Equal(t, 1000, values.PollMaxIntervalMs)
	assert.InDelta(t, 1.5, values.PollBackoff, 0.001)
	assert.Equal(t, []string{"features"}, values.Features)
	assert.Empty(t, values.Tags)
	assert.Equal(t, "pretty", values.Format)
	assert.Equal(t, 1, values.Concurrency)
	assert.True(t, values.Strict)
	assert.Empty(t, values.SelectorsDir)
	assert.Empty(t, values.StaticDir)
	assert.Equal(t, ".", values.LogDir)
}

func TestValuesLoader_Load_LocalOverridesGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	globalConfig := filepath.Join(tmpDir, "global-config")
	localConfig := filepath.Join(tmpDir, "local-config")

	globalContent := `
base_url = https://wazuh.global/app/wazuh#
browser = firefox
tags = @smoke
timeout_ms = 8000
features = features/rules.feature, features/decoders.feature
`
	localContent := `
browser = static
static_dir = testdata/wazuh
tags =
`
	require.NoError(t, os.WriteFile(globalConfig, []byte(globalContent), 0o600))
	require.NoError(t, os.WriteFile(localConfig, []byte(localContent), 0o600))

	values, err := newValuesLoader(defaultsFS).Load(localConfig, globalConfig)
	require.NoError(t, err)

	assert.Equal(t, "static", values.Browser, "local wins")
	assert.Equal(t, "testdata/wazuh", values.StaticDir)
	assert.Empty(t, values.Tags, "explicit empty local tags clear global ones")
	assert.Equal(t, "https://wazuh.global/app/wazuh#", values.BaseURL, "global wins over embedded")
	assert.Equal(t, 8000, values.TimeoutMs)
	assert.Equal(t, []string{"features/rules.feature", "features/decoders.feature"}, values.Features)
	assert.Equal(t, "pretty", values.Format, "embedded default")
}

func TestValuesLoader_Load_ExplicitZeroAndFalse(t *testing.T) {
	tmpDir := t.TempDir()
	globalConfig := filepath.Join(tmpDir, "config")
	require.NoError(t, os.WriteFile(globalConfig, []byte("headless = false\nstrict = false\ntimeout_ms = 0\n"), 0o600))

	values, err := newValuesLoader(defaultsFS).Load("", globalConfig)
	require.NoError(t, err)

	assert.False(t, values.Headless)
	assert.True(t, values.HeadlessSet)
	assert.False(t, values.Strict)
	assert.Equal(t, 0, values.TimeoutMs, "explicit zero preserved")
	assert.True(t, values.TimeoutMsSet)
}

func TestValuesLoader_Load_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		errPart string
	}{
		{name: "bad browser", config: "browser = safari", errPart: "invalid browser"},
		{name: "bad bool", config: "headless = maybe", errPart: "invalid headless"},
		{name: "bad int", config: "timeout_ms = soon", errPart: "invalid timeout_ms"},
		{name: "negative navigation timeout", config: "navigation_timeout_ms = -1", errPart: "invalid navigation_timeout_ms"},
		{name: "negative int", config: "poll_interval_ms = -5", errPart: "invalid poll_interval_ms: must be non-negative, got -5"},
		{name: "bad float", config: "poll_backoff = fast", errPart: "invalid poll_backoff"},
		{name: "small backoff", config: "poll_backoff = 0.5", errPart: "invalid poll_backoff: must be at least 1"},
		{name: "zero concurrency", config: "concurrency = 0", errPart: "invalid concurrency: must be positive"},
		{name: "bad strict", config: "strict = sometimes", errPart: "invalid strict"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config")
			require.NoError(t, os.WriteFile(configPath, []byte(tc.config), 0o600))

			_, err := newValuesLoader(defaultsFS).Load("", configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse global config")
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestValuesLoader_Load_AllCommentedConfigFallsBackToEmbedded(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config")
	content := "# browser = firefox\r\n  # timeout_ms = 1\r\n\r\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	values, err := newValuesLoader(defaultsFS).Load(configPath, "")
	require.NoError(t, err)
	assert.Equal(t, "chromium", values.Browser)
	assert.Equal(t, 4000, values.TimeoutMs)
}

func TestValues_mergeFrom(t *testing.T) {
	dst := Values{Browser: "chromium", Headless: true, HeadlessSet: true, Concurrency: 1, ConcurrencySet: true, Tags: "@all", TagsSet: true}
	src := Values{Headless: false, HeadlessSet: true, Concurrency: 4, ConcurrencySet: true, LogDir: "logs", PollBackoff: 2, PollBackoffSet: true,
		NavTimeoutMs: 60000, NavTimeoutMsSet: true, Colors: ColorConfig{Failed: RGB{R: 9, Set: true}}}
	dst.mergeFrom(&src)

	assert.Equal(t, 60000, dst.NavTimeoutMs)
	assert.Equal(t, RGB{R: 9, Set: true}, dst.Colors.Failed, "colors merge with values")
	assert.Equal(t, "chromium", dst.Browser, "unset string keeps value")
	assert.False(t, dst.Headless, "explicit false overrides")
	assert.Equal(t, 4, dst.Concurrency)
	assert.Equal(t, "logs", dst.LogDir)
	assert.Equal(t, "@all", dst.Tags, "unset tags keep value")
	assert.InDelta(t, 2.0, dst.PollBackoff, 0.001)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , ,"))
	assert.Equal(t, []string{"a", "b c"}, splitList(" a ,, b c ,"))
}

func TestStripComments(t *testing.T) {
	assert.Equal(t, "a = 1\n\nb = #2", stripComments("# top\na = 1\n\n  # indented\nb = #2"))
}
