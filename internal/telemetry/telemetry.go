// Package telemetry gates the optional crash-reporting client. The client is
// disabled silently when it is compiled out, has no DSN or fails to start.
package telemetry

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zorak1103/bootguard/internal/crash"
	"github.com/zorak1103/bootguard/internal/logging"
	"github.com/zorak1103/bootguard/internal/sanitize"
)

// Deployment environments reported with every event.
const (
	EnvDevelopment = "development"
	EnvNightly     = "nightly"
	EnvProduction  = "production"
)

const maxBreadcrumbs = 300

// Environment classifies a version string. "master" is a development build,
// a third dotted component of exactly "99" marks a nightly, anything else
// (including malformed versions) is production.
func Environment(version string) string {
	if version == "master" {
		return EnvDevelopment
	}
	parts := strings.Split(version, ".")
	if len(parts) >= 3 && parts[2] == "99" {
		return EnvNightly
	}
	return EnvProduction
}

// Options configure the client.
type Options struct {
	Enabled    bool
	DSN        string
	ServerName string
	AppName    string
	Version    string
	Scrubber   sanitize.Scrubber
}

// Reporter forwards crashes to the client. A nil or disabled Reporter is a
// no-op, so callers never check whether telemetry is on.
type Reporter struct {
	enabled     bool
	reason      string
	environment string
	scrubber    sanitize.Scrubber
	logger      zerolog.Logger

	mu sync.Mutex
}

// MaybeInit starts the client when it is available and configured.
func MaybeInit(opts Options) *Reporter {
	r := &Reporter{
		environment: Environment(opts.Version),
		scrubber:    opts.Scrubber,
		logger:      logging.WithComponent("telemetry"),
	}

	switch {
	case !available:
		r.reason = "client unavailable"
	case !opts.Enabled:
		r.reason = "disabled by configuration"
	case strings.TrimSpace(opts.DSN) == "":
		r.reason = "no dsn configured"
	default:
		if err := initClient(opts, r.environment); err != nil {
			r.reason = "init failed: " + err.Error()
			r.logger.Debug().Err(err).Str("event", "telemetry.init_failed").Msg("crash reporting disabled")
			return r
		}
		r.enabled = true
	}

	r.logger.Debug().
		Str("event", "telemetry.gate").
		Bool("enabled", r.enabled).
		Str("environment", r.environment).
		Str("reason", r.reason).
		Msg("telemetry gate evaluated")
	return r
}

// Enabled reports whether events are sent.
func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// Reason explains why the reporter is disabled.
func (r *Reporter) Reason() string {
	if r == nil {
		return "not initialized"
	}
	return r.reason
}

// EnvironmentName returns the environment events are tagged with.
func (r *Reporter) EnvironmentName() string {
	if r == nil {
		return ""
	}
	return r.environment
}

// Capture implements crash.Sink.
func (r *Reporter) Capture(c *crash.Context) {
	if !r.Enabled() || c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	captureCrash(c)
}

// Flush implements crash.Sink.
func (r *Reporter) Flush(timeout time.Duration) {
	if !r.Enabled() {
		return
	}
	if !flushClient(timeout) {
		r.logger.Warn().Str("event", "telemetry.flush_timeout").Dur("timeout", timeout).Msg("pending events not delivered")
	}
}

// Breadcrumb records a bootstrap step.
func (r *Reporter) Breadcrumb(category, message string) {
	if !r.Enabled() {
		return
	}
	addBreadcrumb(category, r.scrubber.Scrub(message))
}
