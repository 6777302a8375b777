package environ

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/zorak1103/bootguard/internal/logging"
)

// Configurator reads the inherited environment, computes the plan and applies
// it. The zero value is not usable; build one with NewConfigurator.
type Configurator struct {
	Platform      Platform
	Packaged      bool
	ExeDir        string
	ModulePathVar string

	Env     Env
	Chdir   func(dir string) error
	HomeDir func() (string, error)
	Resolve func(path string) string
	Logger  zerolog.Logger
}

// NewConfigurator returns a Configurator bound to the real process.
func NewConfigurator(platform Platform, packaged bool, exeDir, modulePathVar string) *Configurator {
	return &Configurator{
		Platform:      platform,
		Packaged:      packaged,
		ExeDir:        exeDir,
		ModulePathVar: modulePathVar,
		Env:           Process(),
		Chdir:         os.Chdir,
		HomeDir:       os.UserHomeDir,
		Resolve:       realPath,
		Logger:        logging.WithComponent("environ"),
	}
}

// Inputs snapshots the parts of the environment Compute depends on.
func (c *Configurator) Inputs() Inputs {
	in := Inputs{
		Platform:      c.Platform,
		Packaged:      c.Packaged,
		ExeDir:        c.ExeDir,
		ModulePathVar: c.ModulePathVar,
	}
	in.SearchPath, _ = c.Env.LookupEnv("PATH")

	if c.ModulePathVar == "" {
		return in
	}
	raw, ok := c.Env.LookupEnv(c.ModulePathVar)
	if !ok {
		return in
	}
	in.HasModulePath = true
	for _, p := range splitList(raw, c.Platform.ListSeparator()) {
		in.InheritedModulePath = append(in.InheritedModulePath, c.Resolve(p))
	}
	return in
}

// Plan computes the plan for the current environment without applying it.
func (c *Configurator) Plan() Plan {
	return Compute(c.Inputs())
}

// Configure applies the plan and, for packaged Linux and macOS builds,
// switches to the user's home directory. It returns the effective module
// search path. Running it again on the result leaves everything unchanged.
func (c *Configurator) Configure(modules []string) []string {
	plan := c.Plan()
	out, err := Apply(plan, c.Platform, c.Env, modules)
	if err != nil {
		c.Logger.Warn().Err(err).Str("event", "env.edit_failed").Msg("some environment edits could not be applied")
	}
	c.Logger.Debug().
		Str("event", "env.plan_applied").
		Int("edits", len(plan)).
		Strs("module_path", out).
		Msg("environment plan applied")

	if c.Packaged && (c.Platform == Linux || c.Platform == Darwin) {
		c.chdirHome()
	}
	return out
}

// chdirHome moves away from a possibly root-owned mount directory; some
// desktop integration APIs refuse to work from there.
func (c *Configurator) chdirHome() {
	home, err := c.HomeDir()
	if err != nil || home == "" {
		c.Logger.Warn().Err(err).Str("event", "env.home_unknown").Msg("cannot resolve home directory")
		return
	}
	if err := c.Chdir(home); err != nil {
		c.Logger.Warn().Err(err).Str("event", "env.chdir_failed").Str("dir", home).Msg("cannot change working directory")
	}
}

// AppDataDir resolves the per-application diagnostics directory:
// %APPDATA%/<app> on Windows (falling back to the current directory),
// ~/Library/Logs/<app> on macOS and ~/.local/share/<app> elsewhere.
func AppDataDir(platform Platform, appName string, env Env, homeDir func() (string, error)) string {
	if platform == Windows {
		base, ok := env.LookupEnv("APPDATA")
		if !ok || base == "" {
			base = "."
		}
		return filepath.Join(base, appName)
	}

	home, err := homeDir()
	if err != nil || home == "" {
		home = "."
	}
	if platform == Darwin {
		return filepath.Join(home, "Library", "Logs", appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

func realPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
