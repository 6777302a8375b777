//go:build unix

package threaddump

import (
	"os"
	"os/signal"
	"syscall"
)

// watch dumps all stacks on SIGUSR1 until the returned stop function runs.
func watch(h *Hook) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	exited := make(chan struct{})
	signal.Notify(sigs, syscall.SIGUSR1)

	go func() {
		defer close(exited)
		for {
			select {
			case <-sigs:
				h.logger.Info().Str("event", "threaddump.requested").Msg("dumping goroutine stacks")
				h.Dump()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
		<-exited
	}
}
