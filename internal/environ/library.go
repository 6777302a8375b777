package environ

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	apperrors "github.com/zorak1103/bootguard/internal/errors"
)

// ErrLibraryNotFound is returned when no candidate file exists for a library.
var ErrLibraryNotFound = errors.New("library not found")

// dlopen loads a shared library into the process with global symbol
// visibility. Tests replace it.
var dlopen = openLibrary

// WithWidened appends dir to the search-path variable key for the duration of
// fn. The exact original value is restored on every exit path, including a
// failing or panicking fn; a variable that was unset before is unset again.
func WithWidened(env Env, platform Platform, key, dir string, fn func() error) (err error) {
	original, had := env.LookupEnv(key)
	defer func() {
		var restoreErr error
		if had {
			restoreErr = env.Setenv(key, original)
		} else {
			restoreErr = env.Unsetenv(key)
		}
		if restoreErr != nil {
			err = errors.Join(err, &apperrors.EnvironmentError{Var: key, Op: "restore", Err: restoreErr})
		}
	}()

	sep := platform.ListSeparator()
	entries := splitList(original, sep)
	if !slices.Contains(entries, dir) {
		entries = append(entries, dir)
	}
	if setErr := env.Setenv(key, joinList(entries, sep)); setErr != nil {
		// Fail open: the load may still succeed through the default search.
		return errors.Join(&apperrors.EnvironmentError{Var: key, Op: "widen", Err: setErr}, fn())
	}
	return fn()
}

// Locate searches the directories listed in key, then the platform's default
// library directories, for a file implementing library name.
func Locate(platform Platform, env Env, key, name string) (string, bool) {
	var dirs []string
	if key != "" {
		if value, ok := env.LookupEnv(key); ok {
			dirs = splitList(value, platform.ListSeparator())
		}
	}
	dirs = append(dirs, defaultLibraryDirs(platform)...)

	for _, dir := range dirs {
		for _, file := range libraryFileNames(platform, name) {
			candidate := filepath.Join(dir, file)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

func libraryFileNames(platform Platform, name string) []string {
	switch platform {
	case Darwin:
		return []string{"lib" + name + ".dylib", "lib" + name + ".1.dylib"}
	case Windows:
		return []string{name + ".dll", "lib" + name + ".dll"}
	default:
		return []string{"lib" + name + ".so", "lib" + name + ".so.1"}
	}
}

func defaultLibraryDirs(platform Platform) []string {
	switch platform {
	case Linux:
		return []string{"/usr/local/lib", "/usr/lib", "/usr/lib64", "/usr/lib/x86_64-linux-gnu", "/usr/lib/aarch64-linux-gnu", "/lib"}
	case Darwin:
		return []string{"/usr/local/lib", "/usr/lib"}
	default:
		return nil
	}
}

// PreloadGL loads the system GL library with global symbol visibility before
// any toolkit does, which keeps some vendor drivers from resolving the wrong
// symbols. GLES-only hardware has no libGL; that is a supported configuration,
// so the returned error is informational only. It never panics.
//
// The library path is not widened first: only the system driver is wanted.
func PreloadGL(platform Platform, env Env, name string) (err error) {
	if platform != Linux || name == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("preload lib%s: %v", name, r)
		}
	}()

	path, ok := Locate(platform, env, platform.LibraryPathVar(), name)
	if !ok {
		// Let the dynamic loader try its own cache.
		path = "lib" + name + ".so.1"
	}
	return dlopen(path)
}

// MeshLibraryDir returns the packaged directory that holds the mesh loader's
// native library: <prefix>/bin on Linux and <prefix>/MacOS on macOS, where the
// prefix is the parent of the executable's directory.
func MeshLibraryDir(platform Platform, exeDir string) string {
	prefix := filepath.Dir(exeDir)
	switch platform {
	case Linux:
		return filepath.Join(prefix, "bin")
	case Darwin:
		return filepath.Join(prefix, "MacOS")
	default:
		return ""
	}
}

// LoadWidened loads library name while the platform's fallback library
// variable temporarily includes dir.
func LoadWidened(platform Platform, env Env, dir, name string) error {
	key := platform.LibraryPathVar()
	if key == "" || dir == "" || name == "" {
		return nil
	}
	return WithWidened(env, platform, key, dir, func() error {
		path, ok := Locate(platform, env, key, name)
		if !ok {
			return fmt.Errorf("%w: lib%s", ErrLibraryNotFound, name)
		}
		return dlopen(path)
	})
}
