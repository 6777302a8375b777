//go:build windows

package redirect

import (
	"errors"
	"os"

	apperrors "github.com/zorak1103/bootguard/internal/errors"
	"golang.org/x/sys/windows"
)

var setStdHandle = windows.SetStdHandle

// rebind swaps the Go-level streams and points the Win32 standard handles at
// the files for native code.
func rebind(s *Streams) error {
	os.Stdout = s.Stdout
	os.Stderr = s.Stderr

	var errs []error
	if err := setStdHandle(windows.STD_OUTPUT_HANDLE, windows.Handle(s.Stdout.Fd())); err != nil {
		errs = append(errs, &apperrors.StreamError{Path: s.Stdout.Name(), Op: "set std handle", Err: err})
	}
	if err := setStdHandle(windows.STD_ERROR_HANDLE, windows.Handle(s.Stderr.Fd())); err != nil {
		errs = append(errs, &apperrors.StreamError{Path: s.Stderr.Name(), Op: "set std handle", Err: err})
	}
	return errors.Join(errs...)
}
