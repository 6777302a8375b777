//go:build darwin || linux

package environ

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// openLibrary keeps the handle open for the life of the process.
func openLibrary(path string) error {
	if _, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL); err != nil {
		return fmt.Errorf("dlopen %s: %w", path, err)
	}
	return nil
}
