//go:build unix

package threaddump

import (
	"os"

	"golang.org/x/sys/unix"
)

// sharesDescriptorTwo reports whether f is the file open on descriptor 2,
// as it is after the standard streams were rebound with dup2.
var sharesDescriptorTwo = func(f *os.File) bool {
	var fd2, target unix.Stat_t
	if err := unix.Fstat(2, &fd2); err != nil {
		return false
	}
	if err := unix.Fstat(int(f.Fd()), &target); err != nil {
		return false
	}
	return fd2.Dev == target.Dev && fd2.Ino == target.Ino
}
