package version

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	originalVersion := Version
	defer func() { Version = originalVersion }()

	tests := []struct {
		name    string
		version string
		want    string
	}{
		{name: "development build", version: "master", want: "master"},
		{name: "release", version: "5.2.1", want: "5.2.1"},
		{name: "nightly", version: "5.3.99", want: "5.3.99"},
		{name: "pre-release", version: "5.3.0-beta.1", want: "5.3.0-beta.1"},
		{name: "empty version", version: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			if got := GetVersion(); got != tt.want {
				t.Errorf("GetVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetFullVersion(t *testing.T) {
	originalVersion := Version
	originalBuildDate := BuildDate
	originalGitCommit := GitCommit
	defer func() {
		Version = originalVersion
		BuildDate = originalBuildDate
		GitCommit = originalGitCommit
	}()

	tests := []struct {
		name      string
		version   string
		buildDate string
		gitCommit string
		want      string
	}{
		{
			name:      "default values",
			version:   "master",
			buildDate: "unknown",
			gitCommit: "unknown",
			want:      "master (build: unknown, commit: unknown)",
		},
		{
			name:      "installer release",
			version:   "5.2.1",
			buildDate: "2024-01-15T10:30:00Z",
			gitCommit: "abc123def",
			want:      "5.2.1 (build: 2024-01-15T10:30:00Z, commit: abc123def)",
		},
		{
			name:      "empty values",
			version:   "",
			buildDate: "",
			gitCommit: "",
			want:      " (build: , commit: )",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			BuildDate = tt.buildDate
			GitCommit = tt.gitCommit

			if got := GetFullVersion(); got != tt.want {
				t.Errorf("GetFullVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetFullVersion_ContainsComponents(t *testing.T) {
	originalVersion := Version
	originalBuildDate := BuildDate
	originalGitCommit := GitCommit
	defer func() {
		Version = originalVersion
		BuildDate = originalBuildDate
		GitCommit = originalGitCommit
	}()

	Version = "5.2.1"
	BuildDate = "2024-12-01"
	GitCommit = "1234567"

	fullVersion := GetFullVersion()
	for _, part := range []string{Version, BuildDate, GitCommit, "build:", "commit:"} {
		if !strings.Contains(fullVersion, part) {
			t.Errorf("GetFullVersion() = %q, should contain %q", fullVersion, part)
		}
	}
}

func TestIsPackaged(t *testing.T) {
	original := Packaged
	defer func() { Packaged = original }()

	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"false", false},
		{"", false},
		{"TRUE", false},
		{"1", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			Packaged = tt.value
			if got := IsPackaged(); got != tt.want {
				t.Errorf("IsPackaged() with Packaged=%q = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestDefaultValues(t *testing.T) {
	if Version == "" && BuildDate == "" && GitCommit == "" {
		t.Error("At least one version variable should have a default value")
	}
}
