//go:build !darwin && !linux

package environ

import (
	"errors"
	"fmt"
)

func openLibrary(path string) error {
	return fmt.Errorf("dlopen %s: %w", path, errors.ErrUnsupported)
}
