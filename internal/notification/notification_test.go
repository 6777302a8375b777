package notification

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorak1103/bootguard/internal/config"
	"github.com/zorak1103/bootguard/internal/crash"
	"github.com/zorak1103/bootguard/internal/lifecycle"
	"github.com/zorak1103/bootguard/internal/sanitize"
)

func testConfig(enabled bool, url string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Title: "Ultimaker Cura"},
		Notification: config.NotificationConfig{
			Enabled:    enabled,
			ShoutrrURL: url,
		},
	}
}

func sampleCrash() *crash.Context {
	return &crash.Context{
		ID:      uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e"),
		Time:    time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		Kind:    crash.KindError,
		Message: "cannot read /home/maker/.config/cura/cura.cfg",
		Trace:   "goroutine 1 [running]:\nmain.main()",
		State:   lifecycle.Constructed,
	}
}

func TestNewNotifier(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.Config
		wantEnabled bool
		wantErr     bool
	}{
		{
			name:        "notifications disabled",
			cfg:         testConfig(false, ""),
			wantEnabled: false,
		},
		{
			name:        "notifications disabled with URL set",
			cfg:         testConfig(false, "slack://token@channel"),
			wantEnabled: false,
		},
		{
			name:        "notifications enabled without URL",
			cfg:         testConfig(true, "   "),
			wantEnabled: false,
			wantErr:     true,
		},
		{
			name:        "notifications enabled with URL",
			cfg:         testConfig(true, "slack://token@channel"),
			wantEnabled: true,
		},
		{
			name:        "notifications enabled with discord URL",
			cfg:         testConfig(true, "discord://token@id"),
			wantEnabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier, err := NewNotifier(tt.cfg, "5.2.1", sanitize.Scrubber{})

			if (err != nil) != tt.wantErr {
				t.Errorf("NewNotifier() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if notifier == nil {
				t.Fatal("NewNotifier() returned nil notifier")
			}
			if notifier.IsEnabled() != tt.wantEnabled {
				t.Errorf("NewNotifier() enabled = %v, want %v", notifier.IsEnabled(), tt.wantEnabled)
			}
		})
	}
}

func TestNewNotifier_ErrorMessage(t *testing.T) {
	_, err := NewNotifier(testConfig(true, ""), "5.2.1", sanitize.Scrubber{})
	require.Error(t, err)

	for _, want := range []string{"shoutrrr_url not configured", "service://credentials", "slack://"} {
		assert.Contains(t, err.Error(), want)
	}
}

type recordingSender struct {
	mu       sync.Mutex
	urls     []string
	messages []string
	err      error
	block    chan struct{}
}

func (s *recordingSender) send(url, message string) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
	s.messages = append(s.messages, message)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func TestNotifier_CaptureSendsScrubbedSummary(t *testing.T) {
	n, err := NewNotifier(testConfig(true, "slack://token@channel"), "5.2.1", sanitize.Scrubber{Home: "/home/maker", User: "maker"})
	require.NoError(t, err)
	sender := &recordingSender{}
	n.send = sender.send

	n.Capture(sampleCrash())
	n.Flush(time.Second)

	require.Equal(t, 1, sender.count())
	assert.Equal(t, "slack://token@channel", sender.urls[0])
	msg := sender.messages[0]
	assert.Contains(t, msg, "Ultimaker Cura 5.2.1 crashed during startup")
	assert.Contains(t, msg, "~/.config/cura/cura.cfg")
	assert.NotContains(t, msg, "/home/maker")
}

func TestNotifier_CaptureDisabled(t *testing.T) {
	n, err := NewNotifier(testConfig(false, "slack://token@channel"), "5.2.1", sanitize.Scrubber{})
	require.NoError(t, err)
	sender := &recordingSender{}
	n.send = sender.send

	n.Capture(sampleCrash())
	n.Flush(time.Second)

	assert.Zero(t, sender.count())
}

func TestNotifier_SendFailureIsLoggedNotRaised(t *testing.T) {
	n, err := NewNotifier(testConfig(true, "discord://token@id"), "5.2.1", sanitize.Scrubber{})
	require.NoError(t, err)
	sender := &recordingSender{err: errors.New("connection refused")}
	n.send = sender.send

	assert.NotPanics(t, func() {
		n.Capture(sampleCrash())
		n.Flush(time.Second)
	})
	assert.Equal(t, 1, sender.count())
}

func TestNotifier_FlushTimesOut(t *testing.T) {
	n, err := NewNotifier(testConfig(true, "slack://token@channel"), "5.2.1", sanitize.Scrubber{})
	require.NoError(t, err)
	sender := &recordingSender{block: make(chan struct{})}
	n.send = sender.send
	defer func() {
		close(sender.block)
		n.Flush(time.Second)
	}()

	n.Capture(sampleCrash())

	start := time.Now()
	n.Flush(20 * time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, sender.count())
}

func TestFormatCrashSummary(t *testing.T) {
	c := sampleCrash()
	c.State = lifecycle.Started
	c.HasStarted = true
	c.Trace = strings.Repeat("frame\n", 50)

	msg := FormatCrashSummary(c, "Ultimaker Cura", "5.2.1")

	assert.Contains(t, msg, "crashed while running")
	assert.Contains(t, msg, "Time: 2026-10-18 09:30:00")
	assert.Contains(t, msg, "Crash: 0f8fad5b-d9cb-469f-a165-70867728950e")
	assert.Contains(t, msg, "error: cannot read")
	assert.Equal(t, maxTraceLines, strings.Count(msg, "frame"))
	assert.True(t, strings.HasSuffix(msg, "..."))
}

func TestServiceType(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"slack://token@channel", "slack"},
		{"discord://token@id", "discord"},
		{"no-scheme", "unknown"},
		{"://missing", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := serviceType(tt.url); got != tt.want {
				t.Errorf("serviceType(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
