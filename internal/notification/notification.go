// Package notification handles sending crash notifications to external services.
package notification

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/rs/zerolog"
	"github.com/zorak1103/bootguard/internal/config"
	"github.com/zorak1103/bootguard/internal/crash"
	"github.com/zorak1103/bootguard/internal/logging"
	"github.com/zorak1103/bootguard/internal/sanitize"
)

// maxTraceLines caps how much of the stack trace goes into a message.
const maxTraceLines = 20

// Notifier handles sending notifications via Shoutrrr
type Notifier struct {
	enabled     bool
	shoutrrrURL string
	appTitle    string
	version     string
	scrubber    sanitize.Scrubber
	logger      zerolog.Logger

	send func(url, message string) error
	wg   sync.WaitGroup
}

// NewNotifier initializes a Shoutrrr-based notification client from config.
func NewNotifier(cfg *config.Config, version string, scrubber sanitize.Scrubber) (*Notifier, error) {
	n := &Notifier{
		appTitle: cfg.App.Title,
		version:  version,
		scrubber: scrubber,
		logger:   logging.WithComponent("notification"),
		send:     shoutrrr.Send,
	}
	if !cfg.Notification.Enabled {
		return n, nil
	}

	url := strings.TrimSpace(cfg.Notification.ShoutrrURL)
	if url == "" {
		return n, fmt.Errorf("notification enabled but shoutrrr_url not configured: provide URL in format 'service://credentials' (e.g., slack://token@channel, discord://token@webhookid)")
	}

	n.enabled = true
	n.shoutrrrURL = url
	return n, nil
}

// IsEnabled reports whether notifications are configured and active.
func (n *Notifier) IsEnabled() bool {
	return n != nil && n.enabled
}

// Capture implements crash.Sink. The message is sent in the background; Flush
// waits for it.
func (n *Notifier) Capture(c *crash.Context) {
	if !n.IsEnabled() || c == nil {
		return
	}
	message := n.scrubber.Scrub(FormatCrashSummary(c, n.appTitle, n.version))

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.logger.Warn().Str("event", "notification.panic").Interface("panic", r).Msg("notification sender panicked")
			}
		}()
		if err := n.send(n.shoutrrrURL, message); err != nil {
			n.logger.Warn().
				Err(fmt.Errorf("notification failed to send via %s (crash: %s): %w", serviceType(n.shoutrrrURL), c.ID, err)).
				Str("event", "notification.failed").
				Msg("crash notification not delivered")
		}
	}()
}

// Flush implements crash.Sink. It waits for pending messages up to timeout.
func (n *Notifier) Flush(timeout time.Duration) {
	if !n.IsEnabled() {
		return
	}
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		n.logger.Warn().Str("event", "notification.flush_timeout").Dur("timeout", timeout).Msg("pending notifications abandoned")
	}
}

// FormatCrashSummary builds the plain-text message for c.
func FormatCrashSummary(c *crash.Context, appTitle, version string) string {
	phase := "while running"
	if c.Early() {
		phase = "during startup"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💥 %s %s crashed %s\n", appTitle, version, phase)
	fmt.Fprintf(&sb, "📅 Time: %s\n", c.Time.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "🆔 Crash: %s\n", c.ID)
	fmt.Fprintf(&sb, "⚠️  %s: %s\n", c.Kind, c.Message)

	if trace := strings.TrimSpace(c.Trace); trace != "" {
		lines := strings.Split(trace, "\n")
		if len(lines) > maxTraceLines {
			lines = append(lines[:maxTraceLines], "...")
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(lines, "\n"))
	}
	return sb.String()
}

// serviceType extracts the scheme of a shoutrrr URL (e.g., "slack://..." -> "slack").
func serviceType(url string) string {
	if idx := strings.Index(url, "://"); idx > 0 {
		return url[:idx]
	}
	return "unknown"
}
