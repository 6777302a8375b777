//go:build nosentry

package telemetry

import (
	"errors"
	"time"

	"github.com/zorak1103/bootguard/internal/crash"
)

const available = false

func initClient(Options, string) error {
	return errors.New("client unavailable")
}

func captureCrash(*crash.Context) {}

func flushClient(time.Duration) bool { return true }

func addBreadcrumb(string, string) {}
