// Package bootstrap runs the startup sequence around the GUI application:
// environment, stream redirection, logging, telemetry, native library
// preloading, the thread-dump hook and the crash interceptor, in that order,
// and finally the application itself.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
	"github.com/zorak1103/bootguard/internal/config"
	"github.com/zorak1103/bootguard/internal/crash"
	"github.com/zorak1103/bootguard/internal/crashlog"
	"github.com/zorak1103/bootguard/internal/environ"
	"github.com/zorak1103/bootguard/internal/gui"
	"github.com/zorak1103/bootguard/internal/lifecycle"
	"github.com/zorak1103/bootguard/internal/logging"
	"github.com/zorak1103/bootguard/internal/notification"
	"github.com/zorak1103/bootguard/internal/redirect"
	"github.com/zorak1103/bootguard/internal/sanitize"
	"github.com/zorak1103/bootguard/internal/telemetry"
	"github.com/zorak1103/bootguard/internal/threaddump"
)

// CrashReportDir is the directory inside the per-application directory that
// keeps one Markdown file per crash.
const CrashReportDir = "crash-reports"

// Host is the GUI application as the bootstrap drives it.
type Host interface {
	lifecycle.Application
	Post(task func())
	ShowSplash(text string) lifecycle.Splash
	CloseSplash()
	Run() int
}

// Options describe one launch.
type Options struct {
	Config *config.Config
	Debug  bool
	// Args are passed to the application untouched.
	Args []string
	// EntryPoint is the path the process was started as.
	EntryPoint string
	// Executable is the resolved path of the running binary.
	Executable string
	Version    string
}

// Bootstrapper runs the startup sequence once.
type Bootstrapper struct {
	opts     Options
	platform environ.Platform
	env      environ.Env
	tracker  *lifecycle.Tracker
	logger   zerolog.Logger

	configureEnv func(c *environ.Configurator, modules []string) []string
	applyStreams func(redirect.Binding) (*redirect.Streams, error)
	preloadGL    func(environ.Platform, environ.Env, string) error
	loadMesh     func(environ.Platform, environ.Env, string, string) error
	installDump  func(stderr, stdout *os.File) *threaddump.Hook
	install      func(*crash.Interceptor) error
	newHost      func(gui.Options, *lifecycle.Tracker) (Host, error)
	standalone   func() (lifecycle.Application, error)
	presenter    crash.Presenter
	homeDir      func() (string, error)
	exit         func(int)

	// Populated while running.
	modulePath  []string
	binding     redirect.Binding
	streams     *redirect.Streams
	reporter    *telemetry.Reporter
	dump        *threaddump.Hook
	interceptor *crash.Interceptor
	host        Host
}

// New creates a Bootstrapper bound to the real process.
func New(opts Options) *Bootstrapper {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	id := opts.Config.App.ID
	return &Bootstrapper{
		opts:         opts,
		platform:     environ.Current(),
		env:          environ.Process(),
		tracker:      lifecycle.Default,
		logger:       logging.WithComponent("bootstrap"),
		configureEnv: configureOnce,
		applyStreams: redirect.Apply,
		preloadGL:    environ.PreloadGL,
		loadMesh:     environ.LoadWidened,
		installDump:  threaddump.Install,
		install:      crash.Install,
		newHost: func(o gui.Options, t *lifecycle.Tracker) (Host, error) {
			a, err := gui.New(o, t)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
		standalone: func() (lifecycle.Application, error) {
			return gui.NewStandalone(id + ".crash")
		},
		presenter: gui.NewCrashDialog(opts.Config.App.Title),
		homeDir:   os.UserHomeDir,
		exit:      os.Exit,
	}
}

var (
	envOnce   sync.Once
	envResult []string
)

// configureOnce applies the environment plan at most once per process.
func configureOnce(c *environ.Configurator, modules []string) []string {
	envOnce.Do(func() {
		envResult = c.Configure(modules)
	})
	return envResult
}

// Run executes the startup sequence and the application. It returns the
// application's exit status. Run must be called on the main goroutine, which
// owns the event loop.
func (b *Bootstrapper) Run() (code int) {
	b.prepare()
	defer func() {
		if r := recover(); r != nil {
			b.interceptor.HandleMainPanic(r, debug.Stack())
			code = crash.ExitCrash
		}
	}()
	return b.launch()
}

// prepare performs every step up to and including installing the crash
// interceptor. None of them aborts startup.
func (b *Bootstrapper) prepare() {
	cfg := b.opts.Config
	packaged := cfg.IsPackaged()
	exeDir := filepath.Dir(b.opts.Executable)

	configurator := environ.NewConfigurator(b.platform, packaged, exeDir, cfg.Env.ModulePathVar)
	configurator.Env = b.env
	configurator.HomeDir = b.homeDir
	b.modulePath = b.configureEnv(configurator, cfg.Env.ModulePaths)

	b.binding = redirect.Decide(redirect.Options{
		Debug:      b.opts.Debug,
		Packaged:   packaged,
		EntryPoint: b.opts.EntryPoint,
		AppName:    cfg.App.Name,
		Platform:   b.platform,
		Env:        b.env,
		HomeDir:    b.homeDir,
	})
	streams, err := b.applyStreams(b.binding)
	redirected := streams != nil
	if !redirected {
		streams = &redirect.Streams{Stdout: os.Stdout, Stderr: os.Stderr}
	}
	b.streams = streams

	level := cfg.Log.Level
	if b.opts.Debug {
		level = "debug"
	}
	logging.Configure(logging.Config{
		Level:   level,
		Output:  b.streams.Stderr,
		Service: cfg.App.Name,
		Version: b.opts.Version,
	})
	b.logger = logging.WithComponent("bootstrap")

	switch {
	case err != nil && redirected:
		b.logger.Warn().Err(err).Str("event", "streams.rebind_partial").Str("dir", b.binding.Dir).Msg("writing to log files, native output keeps inherited descriptors")
	case err != nil:
		b.logger.Warn().Err(err).Str("event", "streams.redirect_failed").Str("dir", b.binding.Dir).Msg("keeping inherited streams")
	case b.binding.Redirected():
		b.logger.Info().Str("event", "streams.redirected").Str("dir", b.binding.Dir).Msg("standard streams redirected")
	default:
		b.logger.Debug().Str("event", "streams.inherited").Str("reason", b.binding.Reason()).Msg("standard streams not redirected")
	}
	b.logger.Debug().Str("event", "env.configured").Strs("module_path", b.modulePath).Bool("packaged", packaged).Msg("environment configured")

	scrubber := sanitize.Current()
	b.reporter = telemetry.MaybeInit(telemetry.Options{
		Enabled:    cfg.Telemetry.Enabled,
		DSN:        cfg.Telemetry.DSN,
		ServerName: cfg.Telemetry.ServerName,
		AppName:    cfg.App.Name,
		Version:    b.opts.Version,
		Scrubber:   scrubber,
	})
	b.reporter.Breadcrumb("bootstrap", "telemetry initialized")

	if err := b.preloadGL(b.platform, b.env, cfg.Env.GLLibrary); err != nil {
		b.logger.Debug().Err(err).Str("event", "gl.preload_skipped").Msg("GL library not preloaded")
	}

	b.dump = b.installDump(b.streams.Stderr, b.streams.Stdout)

	b.interceptor = crash.New(crash.Options{
		Lifecycle:    b.tracker,
		Presenter:    b.presenter,
		Standalone:   b.standalone,
		Sinks:        b.sinks(scrubber),
		Diagnostics:  b.streams.Stderr,
		Exit:         b.exit,
		FlushTimeout: cfg.Crash.FlushTimeout,
	})
	if err := b.install(b.interceptor); err != nil {
		if !errors.Is(err, crash.ErrAlreadyInstalled) {
			b.logger.Warn().Err(err).Str("event", "crash.install_failed").Msg("crash interceptor not installed")
		} else if existing := crash.Installed(); existing != nil {
			b.interceptor = existing
		}
	}
	b.reporter.Breadcrumb("bootstrap", "crash interceptor installed")
}

// sinks builds the crash sinks in delivery order.
func (b *Bootstrapper) sinks(scrubber sanitize.Scrubber) []crash.Sink {
	cfg := b.opts.Config
	reportDir := ""
	if b.binding.Redirected() {
		reportDir = filepath.Join(b.binding.Dir, CrashReportDir)
	}
	sinks := []crash.Sink{
		crashlog.NewLogger(b.streams.Stderr, reportDir),
		b.reporter,
	}

	notifier, err := notification.NewNotifier(cfg, b.opts.Version, scrubber)
	if err != nil {
		b.logger.Warn().Err(err).Str("event", "notification.disabled").Msg("crash notifications disabled")
		return sinks
	}
	if notifier.IsEnabled() {
		sinks = append(sinks, notifier)
	}
	return sinks
}

// launch loads the mesh library, constructs the application, shows the
// splash and runs the event loop.
func (b *Bootstrapper) launch() int {
	cfg := b.opts.Config

	if cfg.IsPackaged() {
		dir := environ.MeshLibraryDir(b.platform, filepath.Dir(b.opts.Executable))
		if err := b.loadMesh(b.platform, b.env, dir, cfg.Env.MeshLibrary); err != nil {
			b.logger.Debug().Err(err).Str("event", "mesh.load_skipped").Str("dir", dir).Msg("mesh library not preloaded")
		}
	}

	if b.interceptor.Serve() {
		return crash.ExitCrash
	}

	host, err := b.newHost(gui.Options{
		ID:         cfg.App.ID,
		Title:      cfg.App.Title,
		Args:       b.opts.Args,
		ModulePath: b.modulePath,
	}, b.tracker)
	if err != nil {
		b.interceptor.HandleMainError(fmt.Errorf("create application: %w", err), debug.Stack())
		return crash.ExitCrash
	}
	b.host = host
	b.reporter.Breadcrumb("bootstrap", "application constructed")

	host.ShowSplash("Loading " + cfg.App.Title + "...")
	host.Post(host.CloseSplash)

	if b.interceptor.EnterLoop() {
		return crash.ExitCrash
	}
	b.logger.Info().Str("event", "app.run").Int("args", len(b.opts.Args)).Msg("starting event loop")
	code := b.runLoop(host)
	b.logger.Info().Str("event", "app.exit").Int("code", code).Msg("event loop finished")

	b.shutdown()
	return code
}

// runLoop runs the event loop and records its end, including when a panic
// unwinds out of it.
func (b *Bootstrapper) runLoop(host Host) int {
	defer b.interceptor.LoopExited()
	return host.Run()
}

func (b *Bootstrapper) shutdown() {
	if b.dump != nil {
		b.dump.Stop()
	}
	b.reporter.Flush(b.opts.Config.Crash.FlushTimeout)
}

// ModulePath returns the effective module search path after Run started.
func (b *Bootstrapper) ModulePath() []string {
	return b.modulePath
}
