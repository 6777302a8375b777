//go:build unix

package redirect

import (
	"errors"
	"os"

	apperrors "github.com/zorak1103/bootguard/internal/errors"
	"golang.org/x/sys/unix"
)

// dup2 is replaced in tests so they do not rebind the test binary's streams.
var dup2 = unix.Dup2

// rebind duplicates the files onto descriptors 1 and 2 so output written by
// native code lands in them too. When that fails the Go-level streams are
// still swapped.
func rebind(s *Streams) error {
	var errs []error
	if err := dup2(int(s.Stdout.Fd()), 1); err != nil {
		errs = append(errs, &apperrors.StreamError{Path: s.Stdout.Name(), Op: "dup2", Err: err})
		os.Stdout = s.Stdout
	}
	if err := dup2(int(s.Stderr.Fd()), 2); err != nil {
		errs = append(errs, &apperrors.StreamError{Path: s.Stderr.Name(), Op: "dup2", Err: err})
		os.Stderr = s.Stderr
	}
	return errors.Join(errs...)
}
