// Package suite runs Gherkin features through godog with one browser session per scenario.
package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cucumber/godog"

	"github.com/umputun/uisteps/pkg/browser"
	"github.com/umputun/uisteps/pkg/driver"
	"github.com/umputun/uisteps/pkg/progress"
	"github.com/umputun/uisteps/pkg/selector"
	"github.com/umputun/uisteps/pkg/steps"
)

// Logger is the run log used by the suite, implemented by progress.Logger.
type Logger interface {
	Print(format string, args ...any)
	Step(status progress.Status, text string)
	PrintAligned(text string)
}

// Params configures a suite run.
type Params struct {
	Name        string
	Registry    *steps.Registry
	Opener      browser.Opener
	BaseURL     string
	Driver      driver.Options
	Logger      Logger
	Paths       []string        // feature files and directories
	Features    []godog.Feature // inline features, used instead of Paths when set
	Tags        string
	Format      string // godog formatter, pretty if empty
	Concurrency int
	Strict      bool
	Randomize   int64
	NoColors    bool
	Output      io.Writer // formatter output, io.Discard if nil
}

// Result summarizes a finished run.
type Result struct {
	Passed int
	Failed int
}

// Suite runs features. It is safe to run it more than once, e.g. from the watcher.
type Suite struct {
	p Params

	mu     sync.Mutex
	errs   []error // setup errors raised inside scenario initialization
	passed atomic.Int32
	failed atomic.Int32
}

// New validates params and makes a suite.
func New(p Params) (*Suite, error) {
	if p.Registry == nil {
		return nil, errors.New("suite: step registry is required")
	}
	if p.Opener == nil {
		return nil, errors.New("suite: browser opener is required")
	}
	if p.Logger == nil {
		return nil, errors.New("suite: logger is required")
	}
	if len(p.Paths) == 0 && len(p.Features) == 0 {
		return nil, errors.New("suite: no features to run")
	}
	if err := p.Registry.Bindable(); err != nil {
		return nil, fmt.Errorf("suite: %w", err)
	}
	if p.Format == "" {
		p.Format = "pretty"
	}
	if p.Concurrency <= 0 {
		p.Concurrency = 1
	}
	if p.Output == nil {
		p.Output = io.Discard
	}
	return &Suite{p: p}, nil
}

// Run executes all features and returns godog's exit status: 0 when every scenario passed,
// non-zero otherwise. A failing scenario does not stop the others.
func (s *Suite) Run(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.errs = nil
	s.mu.Unlock()
	s.passed.Store(0)
	s.failed.Store(0)

	opts := godog.Options{
		Format:         s.p.Format,
		Paths:          s.p.Paths,
		Tags:           s.p.Tags,
		Strict:         s.p.Strict,
		Concurrency:    s.p.Concurrency,
		Randomize:      s.p.Randomize,
		NoColors:       s.p.NoColors,
		Output:         s.p.Output,
		DefaultContext: ctx,
	}
	if len(s.p.Features) > 0 {
		opts.Paths = nil
		opts.FeatureContents = s.p.Features
	}

	status := godog.TestSuite{
		Name:                s.p.Name,
		ScenarioInitializer: s.initScenario,
		Options:             &opts,
	}.Run()

	res := s.Result()
	s.p.Logger.Print("scenarios: %d passed, %d failed", res.Passed, res.Failed)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		return status, fmt.Errorf("run suite: %w", errors.Join(s.errs...))
	}
	if err := ctx.Err(); err != nil {
		return status, fmt.Errorf("run suite: %w", err)
	}
	return status, nil
}

// Result returns scenario counts of the last run.
func (s *Suite) Result() Result {
	return Result{Passed: int(s.passed.Load()), Failed: int(s.failed.Load())}
}

// initScenario is called by godog for every scenario, all state here belongs to one scenario.
func (s *Suite) initScenario(sc *godog.ScenarioContext) {
	var (
		session  browser.Session
		drv      *driver.Driver
		finished bool
	)

	sc.Before(func(ctx context.Context, scn *godog.Scenario) (context.Context, error) {
		if err := ctx.Err(); err != nil {
			return ctx, fmt.Errorf("scenario %q: %w", scn.Name, err)
		}
		sess, err := s.p.Opener.Open(ctx)
		if err != nil {
			return ctx, fmt.Errorf("open session for scenario %q: %w", scn.Name, err)
		}
		session, drv = sess, driver.New(sess, s.p.BaseURL, s.p.Driver)
		s.p.Logger.Print("scenario %q, session %s", scn.Name, sess.ID())
		return ctx, nil
	})

	sc.After(func(ctx context.Context, scn *godog.Scenario, err error) (context.Context, error) {
		if finished {
			return ctx, nil
		}
		finished = true
		if err != nil {
			s.failed.Add(1)
		} else {
			s.passed.Add(1)
		}
		if session == nil {
			return ctx, nil
		}
		closeErr := session.Close()
		session, drv = nil, nil
		if closeErr != nil {
			return ctx, fmt.Errorf("close session of scenario %q: %w", scn.Name, closeErr)
		}
		return ctx, nil
	})

	sc.StepContext().After(func(ctx context.Context, st *godog.Step, status godog.StepResultStatus, err error) (context.Context, error) {
		s.p.Logger.Step(progress.Status(status.String()), stepLine(st))
		if status == godog.StepFailed && err != nil {
			s.p.Logger.PrintAligned(Report(st.Text, err))
		}
		return ctx, nil
	})

	if err := s.p.Registry.Bind(sc, func() *driver.Driver { return drv }); err != nil {
		s.mu.Lock()
		s.errs = append(s.errs, err)
		s.mu.Unlock()
	}
}

// stepLine prefixes the step text with its phase when godog knows it.
func stepLine(st *godog.Step) string {
	if phase, ok := steps.PhaseOf(string(st.Type)); ok {
		return phase.String() + " " + st.Text
	}
	return st.Text
}

// Report formats a step failure: step text, error kind, message and, for assertions,
// the expected and actual values.
func Report(stepText string, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "step failed: %s\n", stepText)
	fmt.Fprintf(&sb, "kind: %s\n", ErrorKind(err))
	fmt.Fprintf(&sb, "error: %v\n", err)
	var ae *driver.AssertionError
	if errors.As(err, &ae) {
		fmt.Fprintf(&sb, "expected: %s\n", ae.Expected)
		fmt.Fprintf(&sb, "actual: %s\n", ae.Actual)
	}
	return sb.String()
}

// ErrorKind names the kind of a step error, covering selector and registry errors on top of
// driver.Kind.
func ErrorKind(err error) string {
	var (
		ue *selector.UnknownElementError
		up *selector.UnknownPageError
		us *steps.UndefinedStepError
		as *steps.AmbiguousStepError
	)
	switch {
	case errors.As(err, &ue):
		return "UnknownElementError"
	case errors.As(err, &up):
		return "UnknownPageError"
	case errors.As(err, &us):
		return "UndefinedStepError"
	case errors.As(err, &as):
		return "AmbiguousStepError"
	default:
		return driver.Kind(err)
	}
}
