//go:build !nosentry

package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/zorak1103/bootguard/internal/crash"
	"github.com/zorak1103/bootguard/internal/sanitize"
)

const available = true

func clientOptions(opts Options, environment string) sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:            opts.DSN,
		Environment:    environment,
		Release:        opts.AppName + "@" + opts.Version,
		ServerName:     opts.ServerName,
		MaxBreadcrumbs: maxBreadcrumbs,
		// The bootstrap decides what is captured; no automatic integrations.
		Integrations: func([]sentry.Integration) []sentry.Integration {
			return nil
		},
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrubEvent(event, opts.Scrubber)
		},
	}
}

func initClient(opts Options, environment string) error {
	if err := sentry.Init(clientOptions(opts, environment)); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// crashEvent converts a crash into a fatal event.
func crashEvent(c *crash.Context) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = sentry.LevelFatal
	event.EventID = sentry.EventID(hexID(c))
	event.Timestamp = c.Time
	event.Message = c.Message
	event.Exception = []sentry.Exception{{
		Type:  c.Kind.String(),
		Value: c.Message,
	}}
	event.Tags = map[string]string{
		"lifecycle":  c.State.String(),
		"crash.kind": c.Kind.String(),
	}
	event.Contexts = map[string]sentry.Context{
		"crash": {
			"id":          c.ID.String(),
			"has_started": c.HasStarted,
			"splash":      c.Splash,
			"trace":       c.Trace,
		},
	}
	return event
}

// hexID renders the crash id the way the client expects event ids.
func hexID(c *crash.Context) string {
	return fmt.Sprintf("%x", c.ID[:])
}

func scrubEvent(event *sentry.Event, s sanitize.Scrubber) *sentry.Event {
	if event == nil {
		return nil
	}
	event.Message = s.Scrub(event.Message)
	event.ServerName = s.Scrub(event.ServerName)
	for i := range event.Exception {
		event.Exception[i].Value = s.Scrub(event.Exception[i].Value)
	}
	if crashCtx, ok := event.Contexts["crash"]; ok {
		if trace, ok := crashCtx["trace"].(string); ok {
			crashCtx["trace"] = s.Scrub(trace)
		}
	}
	for i := range event.Breadcrumbs {
		event.Breadcrumbs[i].Message = s.Scrub(event.Breadcrumbs[i].Message)
	}
	return event
}

func captureCrash(c *crash.Context) {
	sentry.CaptureEvent(crashEvent(c))
}

func flushClient(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

func addBreadcrumb(category, message string) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	})
}
