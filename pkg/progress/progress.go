// Package progress provides timestamped logging to a run log file and stdout with color support.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/umputun/uisteps/pkg/config"
)

// Status is a step or scenario outcome, used for color coding.
type Status string

// status values, named as godog reports them
const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusUndefined Status = "undefined"
	StatusPending   Status = "pending"
)

// Colors holds colors for each kind of output.
type Colors struct {
	passed    *color.Color
	failed    *color.Color
	skipped   *color.Color
	undefined *color.Color
	info      *color.Color
	warn      *color.Color
	err       *color.Color
	timestamp *color.Color
}

// NewColors makes colors from config. Colors not configured fall back to basic terminal colors.
func NewColors(cfg config.ColorConfig) *Colors {
	return &Colors{
		passed:    rgbOr(cfg.Passed, color.FgGreen),
		failed:    rgbOr(cfg.Failed, color.FgRed),
		skipped:   rgbOr(cfg.Skipped, color.FgCyan),
		undefined: rgbOr(cfg.Undefined, color.FgYellow),
		info:      rgbOr(cfg.Info, color.FgWhite),
		warn:      rgbOr(cfg.Warn, color.FgYellow),
		err:       rgbOr(cfg.Error, color.FgRed),
		timestamp: rgbOr(cfg.Timestamp, color.FgWhite),
	}
}

func rgbOr(c config.RGB, fallback color.Attribute) *color.Color {
	if !c.Set {
		return color.New(fallback)
	}
	return color.RGB(int(c.R), int(c.G), int(c.B))
}

// Info returns the color for informational output.
func (c *Colors) Info() *color.Color { return c.info }

// Warn returns the color for warnings.
func (c *Colors) Warn() *color.Color { return c.warn }

func (c *Colors) forStatus(s Status) *color.Color {
	switch s {
	case StatusPassed:
		return c.passed
	case StatusFailed:
		return c.failed
	case StatusSkipped:
		return c.skipped
	case StatusUndefined, StatusPending:
		return c.undefined
	default:
		return c.info
	}
}

// Logger writes timestamped output to both the run log file and stdout.
// Safe for concurrent use, scenarios running in parallel share one logger.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	stdout    io.Writer
	colors    *Colors
	startTime time.Time
}

// Config holds logger configuration.
type Config struct {
	Suite   string  // suite name, used to derive the log filename
	Browser string  // browser backend
	BaseURL string  // application under test
	LogDir  string  // directory of the run log, current dir if empty
	NoColor bool    // disable color output (sets color.NoColor globally)
	Colors  *Colors // nil for default colors
}

// NewLogger creates a logger writing to both a run log file and stdout.
func NewLogger(cfg Config) (*Logger, error) {
	if cfg.NoColor {
		color.NoColor = true
	}

	logPath := logFilename(cfg.LogDir, cfg.Suite)
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	f, err := os.Create(logPath) //nolint:gosec // path derived from suite name
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	colors := cfg.Colors
	if colors == nil {
		colors = NewColors(config.ColorConfig{})
	}
	l := &Logger{file: f, path: logPath, stdout: os.Stdout, colors: colors, startTime: time.Now()}

	l.writeFile("# UI Steps Run Log\n")
	l.writeFile("Suite: %s\n", cfg.Suite)
	l.writeFile("Browser: %s\n", cfg.Browser)
	l.writeFile("Base URL: %s\n", cfg.BaseURL)
	l.writeFile("Started: %s\n", l.startTime.Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the run log file path.
func (l *Logger) Path() string { return l.path }

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	l.line(l.colors.info, "", fmt.Sprintf(format, args...))
}

// Step writes one step result, status first.
func (l *Logger) Step(status Status, text string) {
	l.line(l.colors.forStatus(status), "", fmt.Sprintf("%-9s %s", status, text))
}

// Error writes an error message in red.
func (l *Logger) Error(format string, args ...any) {
	l.line(l.colors.err, "ERROR: ", fmt.Sprintf(format, args...))
}

// Warn writes a warning message in yellow.
func (l *Logger) Warn(format string, args ...any) {
	l.line(l.colors.warn, "WARN: ", fmt.Sprintf(format, args...))
}

func (l *Logger) line(c *color.Color, prefix, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format(timestampFormat)
	l.writeFile("[%s] %s%s\n", timestamp, prefix, msg)
	l.writeStdout("%s %s\n", l.colors.timestamp.Sprintf("[%s]", timestamp), c.Sprint(prefix+msg))
}

// getTerminalWidth returns terminal width, using COLUMNS env var or syscall.
// Defaults to 80 if detection fails. Returns content width (total - 20 for timestamp).
func getTerminalWidth() int {
	const minWidth = 40

	// try COLUMNS env var first
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return max(w-20, minWidth) // leave room for timestamp prefix
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return max(w-20, minWidth)
	}

	return 80 - 20 // default 80 columns minus timestamp
}

// wrapText wraps text to specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
			lineLen = len(word)
		case lineLen+1+len(word) <= width:
			result.WriteString(" ")
			lineLen += 1 + len(word)
		default:
			result.WriteString("\n")
			lineLen = len(word)
		}
		result.WriteString(word)
	}
	return result.String()
}

// PrintAligned writes multi-line text, e.g. a failure report. The first line is timestamped,
// continuation lines are indented to align with it and long lines are wrapped to terminal width.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	width := getTerminalWidth()
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) > width {
			lines = append(lines, strings.Split(wrapText(line, width), "\n")...)
			continue
		}
		lines = append(lines, line)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	timestamp := time.Now().Format(timestampFormat)
	tsPrefix := l.colors.timestamp.Sprintf("[%s]", timestamp)
	indent := strings.Repeat(" ", 20) // align with "[YY-MM-DD HH:MM:SS] "
	for i, line := range lines {
		switch {
		case line == "":
			l.writeFile("\n")
			l.writeStdout("\n")
		case i == 0:
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, l.colors.info.Sprint(line))
		default:
			l.writeFile("%s%s\n", indent, line)
			l.writeStdout("%s%s\n", indent, l.colors.info.Sprint(line))
		}
	}
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes footer and closes the run log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// logFilename returns uisteps-<suite>.log in dir, suite name reduced to safe characters.
func logFilename(dir, suite string) string {
	stem := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(suite), "-"), "-")
	name := "uisteps.log"
	if stem != "" {
		name = fmt.Sprintf("uisteps-%s.log", stem)
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
