// Package main provides uisteps - BDD step runner for the Wazuh dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/uisteps/pkg/browser"
	"github.com/umputun/uisteps/pkg/config"
	"github.com/umputun/uisteps/pkg/driver"
	"github.com/umputun/uisteps/pkg/pages"
	"github.com/umputun/uisteps/pkg/progress"
	"github.com/umputun/uisteps/pkg/render"
	"github.com/umputun/uisteps/pkg/selector"
	"github.com/umputun/uisteps/pkg/stepdefs"
	"github.com/umputun/uisteps/pkg/steps"
	"github.com/umputun/uisteps/pkg/suite"
	"github.com/umputun/uisteps/pkg/watch"
)

// opts holds all command-line options.
type opts struct {
	ConfigDir   string        `long:"config-dir" env:"UISTEPS_CONFIG_DIR" description:"global config directory"`
	Browser     string        `short:"b" long:"browser" description:"browser: chromium, firefox, webkit, chromedp or static"`
	Headed      bool          `long:"headed" description:"show the browser window"`
	BaseURL     string        `short:"u" long:"base-url" description:"wazuh app url"`
	Tags        string        `short:"t" long:"tags" description:"run scenarios matching tag expression"`
	Format      string        `short:"f" long:"format" description:"godog output format"`
	Concurrency int           `short:"c" long:"concurrency" description:"number of scenarios run in parallel"`
	Timeout     time.Duration `long:"timeout" description:"wait timeout of element and url checks"`
	ListSteps   bool          `long:"list-steps" description:"print available steps and exit"`
	Watch       bool          `short:"w" long:"watch" description:"re-run features on change"`
	Init        bool          `long:"init" description:"write default config and exit"`
	Install     bool          `long:"install" description:"install the playwright browser and exit"`
	Debug       bool          `short:"d" long:"debug" description:"enable debug logging"`
	NoColor     bool          `long:"no-color" description:"disable color output"`
	Version     bool          `short:"v" long:"version" description:"print version and exit"`
}

var revision = "unknown"

func main() {
	fmt.Printf("uisteps %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.Usage = "[OPTIONS] [features...]"

	args, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}

	restore := disableCtrlCEcho()

	// setup context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code, err := run(ctx, o, args)
	cancel()
	restore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, o opts, args []string) (int, error) {
	if o.Init {
		if err := config.Install(o.ConfigDir); err != nil {
			return 1, fmt.Errorf("install config: %w", err)
		}
		dir := o.ConfigDir
		if dir == "" {
			dir = config.DefaultConfigDir()
		}
		fmt.Printf("config written to %s\n", dir)
		return 0, nil
	}

	cfg, err := config.Load(o.ConfigDir)
	if err != nil {
		return 1, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, o, args)
	colors := progress.NewColors(cfg.Colors)

	kind, err := browser.ParseKind(cfg.Browser)
	if err != nil {
		return 1, err
	}

	if o.Install {
		if err := browser.Install(kind); err != nil {
			return 1, err
		}
		colors.Info().Printf("installed %s\n", kind)
		return 0, nil
	}

	reg, err := buildRegistry(cfg.SelectorsDir)
	if err != nil {
		return 1, err
	}

	if o.ListSteps {
		if err := render.WriteCatalog(os.Stdout, reg, o.NoColor); err != nil {
			return 1, err
		}
		return 0, nil
	}

	opener, closeBrowser, err := openBrowser(kind, cfg)
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := closeBrowser(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: close browser: %v\n", err)
		}
	}()

	log, err := progress.NewLogger(progress.Config{
		Suite:   suiteName(cfg.Features),
		Browser: string(kind),
		BaseURL: cfg.BaseURL,
		LogDir:  cfg.LogDir,
		NoColor: o.NoColor,
		Colors:  colors,
	})
	if err != nil {
		return 1, fmt.Errorf("create run logger: %w", err)
	}
	defer log.Close()

	if o.Debug {
		d := driverOptions(cfg)
		log.Print("config dir: %s, selectors: %s", cfg.ConfigDir(), cfg.SelectorsDir)
		log.Print("features: %v, tags: %q, concurrency: %d", cfg.Features, cfg.Tags, cfg.Concurrency)
		log.Print("wait timeout %v, interval %v..%v, backoff %.1f", d.Timeout, d.Interval, d.MaxInterval, d.Backoff)
		log.Print("navigation timeout %v", time.Duration(cfg.NavTimeoutMs)*time.Millisecond)
	}

	s, err := suite.New(suite.Params{
		Name:        suiteName(cfg.Features),
		Registry:    reg,
		Opener:      opener,
		BaseURL:     cfg.BaseURL,
		Driver:      driverOptions(cfg),
		Logger:      log,
		Paths:       cfg.Features,
		Tags:        cfg.Tags,
		Format:      cfg.Format,
		Concurrency: cfg.Concurrency,
		Strict:      cfg.Strict,
		NoColors:    o.NoColor,
		Output:      os.Stdout,
	})
	if err != nil {
		return 1, err
	}

	colors.Info().Printf("run log: %s\n\n", log.Path())
	if !o.Watch {
		return s.Run(ctx)
	}
	return watchAndRun(ctx, s, cfg.Features, log)
}

// watchAndRun runs the suite once and again on every feature change, until ctx is canceled.
func watchAndRun(ctx context.Context, s *suite.Suite, paths []string, log *progress.Logger) (int, error) {
	w, err := watch.New(paths, watch.DefaultDebounce)
	if err != nil {
		return 1, err
	}
	watchErr := make(chan error, 1)
	go func() { watchErr <- w.Start(ctx) }()

	for {
		status, err := s.Run(ctx)
		if ctx.Err() != nil {
			return status, nil
		}
		if err != nil {
			log.Error("run failed: %v", err)
		}
		log.Print("completed in %s, watching %v for changes", log.Elapsed(), paths)

		select {
		case <-ctx.Done():
			return status, nil
		case err := <-watchErr:
			if err != nil {
				return 1, err
			}
			return status, nil
		case name := <-w.Changes():
			log.Print("%s changed, re-running", name)
		}
	}
}

// applyFlags overrides config values with the flags given on the command line.
func applyFlags(cfg *config.Config, o opts, features []string) {
	if o.Browser != "" {
		cfg.Browser = o.Browser
	}
	if o.Headed {
		cfg.Headless = false
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	if o.Tags != "" {
		cfg.Tags = o.Tags
	}
	if o.Format != "" {
		cfg.Format = o.Format
	}
	if o.Concurrency > 0 {
		cfg.Concurrency = o.Concurrency
	}
	if o.Timeout > 0 {
		cfg.TimeoutMs = int(o.Timeout / time.Millisecond)
	}
	if len(features) > 0 {
		cfg.Features = features
	}
}

// driverOptions converts polling config to driver options. Zero values fall back to driver defaults.
func driverOptions(cfg *config.Config) driver.Options {
	return driver.Options{
		Timeout:     time.Duration(cfg.TimeoutMs) * time.Millisecond,
		Interval:    time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		MaxInterval: time.Duration(cfg.PollMaxIntervalMs) * time.Millisecond,
		Backoff:     cfg.PollBackoff,
	}
}

// buildRegistry builds the selector catalog with overrides from selectorsDir and registers
// all step definitions.
func buildRegistry(selectorsDir string) (*steps.Registry, error) {
	overrides, err := selector.LoadOverrides(selectorsDir)
	if err != nil {
		return nil, err
	}
	cat, err := pages.Catalog(overrides...)
	if err != nil {
		return nil, err
	}
	b := steps.NewBuilder()
	if err := stepdefs.Register(b, cat); err != nil {
		return nil, err
	}
	reg, err := b.Build()
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// openBrowser starts the configured backend. The returned func releases it.
func openBrowser(kind browser.Kind, cfg *config.Config) (browser.Opener, func() error, error) {
	switch {
	case kind == browser.KindStatic:
		if cfg.StaticDir == "" {
			return nil, nil, errors.New("static_dir is required for the static browser")
		}
		st, err := browser.LoadStatic(cfg.BaseURL, cfg.StaticDir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() error { return nil }, nil
	case kind == browser.KindChromedp:
		c, err := browser.LaunchChromedp(chromedpOptions(cfg))
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case kind.IsPlaywright():
		p, err := browser.Launch(launchOptions(kind, cfg))
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported browser %s", kind)
	}
}

func launchOptions(kind browser.Kind, cfg *config.Config) browser.LaunchOptions {
	return browser.LaunchOptions{
		Kind:              kind,
		Headless:          cfg.Headless,
		SlowMo:            time.Duration(cfg.SlowMoMs) * time.Millisecond,
		BaseURL:           cfg.BaseURL,
		IgnoreHTTPSErrors: cfg.IgnoreHTTPSErrors,
		NavigationTimeout: time.Duration(cfg.NavTimeoutMs) * time.Millisecond,
	}
}

func chromedpOptions(cfg *config.Config) browser.ChromedpOptions {
	return browser.ChromedpOptions{
		Headless:          cfg.Headless,
		IgnoreHTTPSErrors: cfg.IgnoreHTTPSErrors,
		NavigationTimeout: time.Duration(cfg.NavTimeoutMs) * time.Millisecond,
	}
}

// suiteName derives the run name from the feature paths, used for the log file name.
func suiteName(features []string) string {
	if len(features) != 1 {
		return "features"
	}
	name := filepath.Base(features[0])
	name = name[:len(name)-len(filepath.Ext(name))]
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "features"
	}
	return name
}
