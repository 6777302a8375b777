// Package crashlog records crashes as Markdown. Every record goes to the
// diagnostic stream; when a directory is configured a copy is also kept as a
// file named after the crash time and id.
package crashlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zorak1103/bootguard/internal/crash"
	"github.com/zorak1103/bootguard/internal/sanitize"
)

// Logger handles writing crash records.
type Logger struct {
	w   io.Writer
	dir string

	mu sync.Mutex
}

// NewLogger creates a Logger writing to w and, if dir is not empty, to one
// file per crash inside dir.
func NewLogger(w io.Writer, dir string) *Logger {
	return &Logger{w: w, dir: dir}
}

// Capture implements crash.Sink. Write errors are ignored: there is nowhere
// left to report them.
func (l *Logger) Capture(c *crash.Context) {
	if l == nil || c == nil {
		return
	}
	content := FormatMarkdown(c)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w != nil {
		_, _ = io.WriteString(l.w, content)
	}
	if l.dir != "" {
		_, _ = l.writeFile(c, content)
	}
}

// Flush implements crash.Sink.
func (l *Logger) Flush(time.Duration) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.w.(*os.File); ok {
		_ = f.Sync()
	}
}

// writeFile stores content at {dir}/{timestamp}-{id}.md.
func (l *Logger) writeFile(c *crash.Context, content string) (string, error) {
	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create crash directory %s: %w", l.dir, err)
	}
	name := fmt.Sprintf("%s-%s.md", c.Time.UTC().Format("2006-01-02T15-04-05Z"), c.ID)
	path := filepath.Join(l.dir, sanitize.FileName(name))

	// Write with owner-only permissions; traces may contain local paths.
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write crash record %s: %w", path, err)
	}
	return path, nil
}

// FormatMarkdown renders c as a Markdown crash record.
func FormatMarkdown(c *crash.Context) string {
	phase := "while running"
	if c.Early() {
		phase = "during startup"
	}

	var sb strings.Builder
	sb.WriteString("# Crash Report\n\n")
	fmt.Fprintf(&sb, "**ID**: %s\n", c.ID)
	fmt.Fprintf(&sb, "**Timestamp**: %s\n", c.Time.Format(time.RFC3339))
	fmt.Fprintf(&sb, "**Kind**: %s\n", c.Kind)
	fmt.Fprintf(&sb, "**Lifecycle**: %s (%s)\n", c.State, phase)
	fmt.Fprintf(&sb, "**Splash open**: %t\n\n", c.Splash)
	sb.WriteString("## Message\n\n")
	sb.WriteString(c.Message)
	sb.WriteString("\n\n## Stack Trace\n\n```\n")
	sb.WriteString(strings.TrimRight(c.Trace, "\n"))
	sb.WriteString("\n```\n")
	return sb.String()
}
