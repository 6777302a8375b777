//go:build !unix

package threaddump

import "os"

var sharesDescriptorTwo = func(*os.File) bool { return false }
