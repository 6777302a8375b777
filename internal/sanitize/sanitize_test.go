package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	tests := []struct {
		name string
		text string
		home string
		user string
		want string
	}{
		{
			name: "unix home",
			text: "open /home/maker/.local/share/cura/cura.cfg: permission denied",
			home: "/home/maker",
			user: "maker",
			want: "open ~/.local/share/cura/cura.cfg: permission denied",
		},
		{
			name: "windows home with backslashes",
			text: `C:\Users\maker\AppData\Roaming\cura\stderr.log`,
			home: `C:\Users\maker`,
			user: "maker",
			want: `~\AppData\Roaming\cura\stderr.log`,
		},
		{
			name: "windows home written with forward slashes",
			text: "C:/Users/maker/AppData",
			home: `C:\Users\maker`,
			user: "maker",
			want: "~/AppData",
		},
		{
			name: "user name outside home",
			text: "printer owned by maker on /srv/maker",
			home: "/home/maker",
			user: "maker",
			want: "printer owned by <user> on /srv/<user>",
		},
		{
			name: "short values ignored",
			text: "/ab/cd",
			home: "/",
			user: "ab",
			want: "/ab/cd",
		},
		{
			name: "empty values",
			text: "nothing to scrub",
			want: "nothing to scrub",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paths(tt.text, tt.home, tt.user))
		})
	}
}

func TestScrubber_Scrub(t *testing.T) {
	s := Scrubber{Home: "/Users/maker", User: "maker"}
	assert.Equal(t, "~/Library/Logs/cura", s.Scrub("/Users/maker/Library/Logs/cura"))
}

func TestCurrent_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { _ = Current() })
}

func TestFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2026-10-18T10:00:00Z", "2026-10-18T10_00_00Z"},
		{`a/b\c`, "a_b_c"},
		{"crash?*<>|\"", "crash______"},
		{"tab\there", "tab_here"},
		{"plain-name_1.md", "plain-name_1.md"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.input))
		})
	}
}
