// Package environ computes and applies the process environment adjustments
// that must happen before any native library or GUI code runs: dynamic
// library search paths, the module search path and the working directory.
//
// Every adjustment fails open. A missing variable or a failed edit is reported
// to the caller for logging and never aborts startup.
package environ

import (
	"os"
	"runtime"
	"strings"
)

// Platform identifies the operating system family a plan is computed for.
type Platform string

// Supported platforms.
const (
	Windows Platform = "windows"
	Linux   Platform = "linux"
	Darwin  Platform = "darwin"
)

// Current returns the platform the process is running on.
func Current() Platform {
	return Platform(runtime.GOOS)
}

// ListSeparator returns the separator used by search-path variables on p.
func (p Platform) ListSeparator() string {
	if p == Windows {
		return ";"
	}
	return ":"
}

// LibraryPathVar names the variable the dynamic loader consults for fallback
// library directories, or "" when p has none.
func (p Platform) LibraryPathVar() string {
	switch p {
	case Linux:
		return "LD_LIBRARY_PATH"
	case Darwin:
		return "DYLD_FALLBACK_LIBRARY_PATH"
	default:
		return ""
	}
}

// Env is the view of the process environment the configurator edits.
type Env interface {
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
	Unsetenv(key string) error
}

type processEnv struct{}

func (processEnv) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }
func (processEnv) Setenv(key, value string) error      { return os.Setenv(key, value) }
func (processEnv) Unsetenv(key string) error           { return os.Unsetenv(key) }

// Process returns an Env backed by the real process environment.
func Process() Env {
	return processEnv{}
}

// splitList splits a search-path value, dropping empty entries.
func splitList(value, sep string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinList(entries []string, sep string) string {
	return strings.Join(entries, sep)
}
