// Package sanitize scrubs personal data from crash reports and builds safe
// file names.
package sanitize

import (
	"os"
	"os/user"
	"strings"
)

// Scrubber replaces the user's home directory and account name in text that
// leaves the machine.
type Scrubber struct {
	Home string
	User string
}

// Current returns a Scrubber for the account running the process. Unknown
// values are left empty and skipped.
func Current() Scrubber {
	var s Scrubber
	if home, err := os.UserHomeDir(); err == nil {
		s.Home = home
	}
	if u, err := user.Current(); err == nil {
		s.User = u.Username
		// Windows account names carry the domain.
		if i := strings.LastIndexAny(s.User, `\`); i >= 0 {
			s.User = s.User[i+1:]
		}
	}
	return s
}

// Scrub applies Paths with the scrubber's values.
func (s Scrubber) Scrub(text string) string {
	return Paths(text, s.Home, s.User)
}

// Paths replaces every occurrence of home with "~" and then every remaining
// occurrence of userName with "<user>". Both forward and backslash spellings
// of home are replaced. Empty or very short values are ignored.
func Paths(text, home, userName string) string {
	if home != "" && len(home) > 1 {
		text = strings.ReplaceAll(text, home, "~")
		if alt := strings.ReplaceAll(home, `\`, "/"); alt != home {
			text = strings.ReplaceAll(text, alt, "~")
		}
		if alt := strings.ReplaceAll(home, "/", `\`); alt != home {
			text = strings.ReplaceAll(text, alt, "~")
		}
	}
	if len(userName) > 2 {
		text = strings.ReplaceAll(text, userName, "<user>")
	}
	return text
}

// FileName converts name into a string safe to use as a single path element.
func FileName(name string) string {
	invalid := `/\:*?"<>|`
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalid, r) || r < 0x20 {
			return '_'
		}
		return r
	}, name)
}
