package progress

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/uisteps/pkg/config"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	l, err := NewLogger(Config{Suite: "wazuh", Browser: "static", BaseURL: "http://wazuh.test", LogDir: t.TempDir(), NoColor: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	var buf bytes.Buffer
	l.stdout = &buf
	return l, &buf
}

func TestNewLogger(t *testing.T) {
	l, _ := newTestLogger(t)
	assert.Equal(t, "uisteps-wazuh.log", filepath.Base(l.Path()))

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "# UI Steps Run Log")
	assert.Contains(t, string(content), "Suite: wazuh")
	assert.Contains(t, string(content), "Browser: static")
	assert.Contains(t, string(content), "Base URL: http://wazuh.test")
	assert.Contains(t, string(content), "Started:")
}

func TestNewLogger_CreatesLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs", "nested")
	l, err := NewLogger(Config{Suite: "x", LogDir: dir, NoColor: true})
	require.NoError(t, err)
	require.NoError(t, l.Close())
	assert.FileExists(t, filepath.Join(dir, "uisteps-x.log"))
}

func TestLogger_Print(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Print("running %d scenarios", 3)

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "running 3 scenarios")
	assert.Contains(t, buf.String(), "running 3 scenarios")
	assert.Regexp(t, `^\[\d{2}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] running 3 scenarios\n$`, buf.String())
}

func TestLogger_Step(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Step(StatusPassed, "Given The wazuh app is loaded")
	l.Step(StatusFailed, "Then The rules table is displayed")

	out := buf.String()
	assert.Contains(t, out, "passed    Given The wazuh app is loaded")
	assert.Contains(t, out, "failed    Then The rules table is displayed")

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "failed    Then The rules table is displayed")
}

func TestLogger_ErrorAndWarn(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Error("something failed: %s", "reason")
	l.Warn("warning message")

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "ERROR: something failed: reason")
	assert.Contains(t, string(content), "WARN: warning message")
	assert.Contains(t, buf.String(), "ERROR: something failed: reason")
	assert.Contains(t, buf.String(), "WARN: warning message")
}

func TestLogger_PrintAligned(t *testing.T) {
	t.Setenv("COLUMNS", "100")
	l, buf := newTestLogger(t)

	l.PrintAligned("step failed: Then The rules table is displayed\nkind: not-visible\n\nexpected: visible\n")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Regexp(t, `^\[.+\] step failed: Then The rules table is displayed$`, lines[0])
	assert.Equal(t, strings.Repeat(" ", 20)+"kind: not-visible", lines[1])
	assert.Empty(t, lines[2])
	assert.Equal(t, strings.Repeat(" ", 20)+"expected: visible", lines[3])
}

func TestLogger_PrintAligned_WrapsLongLines(t *testing.T) {
	t.Setenv("COLUMNS", "60") // 40 columns of content
	l, buf := newTestLogger(t)

	l.PrintAligned(strings.Repeat("word ", 20))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Greater(t, len(lines), 1)
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, strings.Repeat(" ", 20)), "continuation is indented: %q", line)
	}
}

func TestLogger_PrintAligned_Empty(t *testing.T) {
	l, buf := newTestLogger(t)
	l.PrintAligned("\n\n")
	assert.Empty(t, buf.String())
}

func TestLogger_Colors(t *testing.T) {
	origNoColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = origNoColor }()

	colors := NewColors(config.ColorConfig{
		Passed:    config.RGB{G: 255, Set: true},
		Failed:    config.RGB{R: 255, Set: true},
		Timestamp: config.RGB{R: 138, G: 138, B: 138, Set: true},
	})
	l, err := NewLogger(Config{Suite: "colors", LogDir: t.TempDir(), Colors: colors})
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	var buf bytes.Buffer
	l.stdout = &buf
	l.Step(StatusPassed, "ok step")

	assert.Contains(t, buf.String(), "\033[")
	assert.Contains(t, buf.String(), "ok step")

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(content), "\033[", "log file stays plain")
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	l, buf := newTestLogger(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			for range 10 {
				l.Step(StatusPassed, "parallel step")
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 100, strings.Count(buf.String(), "parallel step"))
}

func TestLogger_Elapsed(t *testing.T) {
	l, _ := newTestLogger(t)
	// go-humanize returns "now" for very short durations
	assert.NotEmpty(t, l.Elapsed())
}

func TestLogger_Close(t *testing.T) {
	l, err := NewLogger(Config{Suite: "close", LogDir: t.TempDir(), NoColor: true})
	require.NoError(t, err)
	l.stdout = &bytes.Buffer{}

	l.Print("some output")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "second close is a no-op")

	content, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(content), "Completed:")
	assert.Contains(t, string(content), strings.Repeat("-", 60))
	assert.Equal(t, 1, strings.Count(string(content), "Completed:"))
}

func TestLogFilename(t *testing.T) {
	tests := []struct {
		dir, suite string
		want       string
	}{
		{"", "wazuh", "uisteps-wazuh.log"},
		{"", "", "uisteps.log"},
		{"", "Wazuh Dashboard: Rules", "uisteps-wazuh-dashboard-rules.log"},
		{"", "--", "uisteps.log"},
		{"logs", "wazuh", filepath.Join("logs", "uisteps-wazuh.log")},
	}

	for _, tc := range tests {
		t.Run(tc.suite, func(t *testing.T) {
			assert.Equal(t, tc.want, logFilename(tc.dir, tc.suite))
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{name: "fits", text: "short text", width: 20, want: "short text"},
		{name: "zero width", text: "short text", width: 0, want: "short text"},
		{name: "wraps", text: "one two three four", width: 9, want: "one two\nthree\nfour"},
		{name: "long word", text: "abcdefghijkl xy", width: 5, want: "abcdefghijkl\nxy"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, wrapText(tc.text, tc.width))
		})
	}
}

func TestRgbOr(t *testing.T) {
	origNoColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = origNoColor }()

	assert.Equal(t, color.RGB(1, 2, 3).Sprint("x"), rgbOr(config.RGB{R: 1, G: 2, B: 3, Set: true}, color.FgRed).Sprint("x"))
	assert.Equal(t, color.RGB(0, 0, 0).Sprint("x"), rgbOr(config.RGB{Set: true}, color.FgRed).Sprint("x"), "black is a color")
	assert.Equal(t, color.New(color.FgRed).Sprint("x"), rgbOr(config.RGB{}, color.FgRed).Sprint("x"))
}
