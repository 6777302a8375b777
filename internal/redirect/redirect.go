// Package redirect rebinds the process standard output and error streams to
// files in the per-application directory for packaged GUI builds, where no
// console is attached.
package redirect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zorak1103/bootguard/internal/environ"
	apperrors "github.com/zorak1103/bootguard/internal/errors"
)

// File names inside the per-application directory.
const (
	StdoutFile = "stdout.log"
	StderrFile = "stderr.log"
)

// Options describe the process the decision is made for.
type Options struct {
	Debug      bool
	Packaged   bool
	EntryPoint string // path of the executable or launcher script
	AppName    string
	Platform   environ.Platform
	Env        environ.Env
	HomeDir    func() (string, error)
}

// Binding is the outcome of Decide.
type Binding struct {
	// Dir is the target directory, empty when the streams stay untouched.
	Dir string

	Debug    bool
	CLI      bool
	Packaged bool
}

// Redirected reports whether the streams are to be rebound.
func (b Binding) Redirected() bool {
	return b.Dir != ""
}

// Reason explains why the streams stay untouched, or returns "".
func (b Binding) Reason() string {
	switch {
	case b.Redirected():
		return ""
	case b.Debug:
		return "debug mode"
	case !b.Packaged:
		return "not a packaged build"
	case b.CLI:
		return "command-line entry point"
	default:
		return "no target directory"
	}
}

// Decide chooses where the standard streams go. Debug mode, unpackaged builds
// and command-line entry points (the executable's base name contains "cli" in
// any case) keep the inherited streams.
func Decide(opts Options) Binding {
	b := Binding{
		Debug:    opts.Debug,
		Packaged: opts.Packaged,
		CLI:      IsCLIEntryPoint(opts.EntryPoint),
	}
	if b.Debug || !b.Packaged || b.CLI {
		return b
	}

	env := opts.Env
	if env == nil {
		env = environ.Process()
	}
	home := opts.HomeDir
	if home == nil {
		home = os.UserHomeDir
	}
	b.Dir = environ.AppDataDir(opts.Platform, opts.AppName, env, home)
	return b
}

// IsCLIEntryPoint reports whether path names a command-line variant.
func IsCLIEntryPoint(path string) bool {
	base := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	return strings.Contains(strings.ToLower(base), "cli")
}

// Streams holds the files the standard streams were rebound to. They stay
// open for the life of the process.
type Streams struct {
	Stdout *os.File
	Stderr *os.File
}

// Apply creates the directory if needed and rebinds stdout and stderr to
// truncated files inside it. A binding that does not redirect returns the
// current streams unchanged.
func Apply(b Binding) (*Streams, error) {
	if !b.Redirected() {
		return &Streams{Stdout: os.Stdout, Stderr: os.Stderr}, nil
	}
	if err := os.MkdirAll(b.Dir, 0o750); err != nil {
		return nil, &apperrors.StreamError{Path: b.Dir, Op: "mkdir", Err: err}
	}

	stdout, err := openLog(filepath.Join(b.Dir, StdoutFile))
	if err != nil {
		return nil, err
	}
	stderr, err := openLog(filepath.Join(b.Dir, StderrFile))
	if err != nil {
		_ = stdout.Close()
		return nil, err
	}

	streams := &Streams{Stdout: stdout, Stderr: stderr}
	if err := rebind(streams); err != nil {
		return streams, fmt.Errorf("rebind standard streams: %w", err)
	}
	return streams, nil
}

// openLog truncates path once and opens it append-only so writes from
// several handles never overwrite each other.
func openLog(path string) (*os.File, error) {
	// #nosec G304 -- path is built from the per-application directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_APPEND, 0o640)
	if err != nil {
		return nil, &apperrors.StreamError{Path: path, Op: "open", Err: err}
	}
	return f, nil
}
