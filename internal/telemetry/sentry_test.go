//go:build !nosentry

package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorak1103/bootguard/internal/crash"
	"github.com/zorak1103/bootguard/internal/lifecycle"
	"github.com/zorak1103/bootguard/internal/sanitize"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(Options{
		DSN:        "https://key@example.invalid/1",
		ServerName: "cura",
		AppName:    "cura",
		Version:    "5.2.99",
	}, EnvNightly)

	assert.Equal(t, "https://key@example.invalid/1", opts.Dsn)
	assert.Equal(t, EnvNightly, opts.Environment)
	assert.Equal(t, "cura@5.2.99", opts.Release)
	assert.Equal(t, "cura", opts.ServerName)
	assert.Equal(t, 300, opts.MaxBreadcrumbs)
	require.NotNil(t, opts.Integrations)
	assert.Empty(t, opts.Integrations([]sentry.Integration{}), "default integrations are disabled")
	require.NotNil(t, opts.BeforeSend)
}

func TestMaybeInit_InvalidDSN(t *testing.T) {
	r := MaybeInit(Options{Enabled: true, DSN: "::not a dsn", Version: "5.2.1"})
	assert.False(t, r.Enabled())
	assert.Contains(t, r.Reason(), "init failed")
}

func TestCrashEvent(t *testing.T) {
	c := &crash.Context{
		ID:         uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Time:       time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Kind:       crash.KindFatal,
		Err:        errors.New("index out of range"),
		Message:    "index out of range",
		Trace:      "goroutine 1 [running]:",
		State:      lifecycle.Started,
		HasStarted: true,
	}

	event := crashEvent(c)

	assert.Equal(t, sentry.LevelFatal, event.Level)
	assert.Equal(t, sentry.EventID("0f8fad5bd9cb469fa16570867728950e"), event.EventID)
	assert.Equal(t, c.Time, event.Timestamp)
	assert.Equal(t, "started", event.Tags["lifecycle"])
	assert.Equal(t, "runtime error", event.Tags["crash.kind"])
	require.Len(t, event.Exception, 1)
	assert.Equal(t, "index out of range", event.Exception[0].Value)
	assert.Equal(t, "goroutine 1 [running]:", event.Contexts["crash"]["trace"])
	assert.Equal(t, true, event.Contexts["crash"]["has_started"])
}

func TestScrubEvent(t *testing.T) {
	s := sanitize.Scrubber{Home: "/home/maker", User: "maker"}
	event := crashEvent(&crash.Context{
		ID:      uuid.New(),
		Message: "open /home/maker/.local/share/cura/cura.cfg failed",
		Trace:   "/home/maker/src/plugin.go:12",
	})
	event.Breadcrumbs = []*sentry.Breadcrumb{{Message: "loaded /home/maker/plugins"}}

	got := scrubEvent(event, s)

	assert.Equal(t, "open ~/.local/share/cura/cura.cfg failed", got.Message)
	assert.Equal(t, "open ~/.local/share/cura/cura.cfg failed", got.Exception[0].Value)
	assert.Equal(t, "~/src/plugin.go:12", got.Contexts["crash"]["trace"])
	assert.Equal(t, "loaded ~/plugins", got.Breadcrumbs[0].Message)
	assert.Nil(t, scrubEvent(nil, s))
}
