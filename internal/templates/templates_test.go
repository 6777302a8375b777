package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorak1103/bootguard/internal/config"
)

func TestConfigYAML_NotEmpty(t *testing.T) {
	if len(ConfigYAML) == 0 {
		t.Error("Expected ConfigYAML to be non-empty")
	}
}

func TestConfigYAML_ContainsSections(t *testing.T) {
	content := string(ConfigYAML)

	expectedSections := []string{
		"app:",
		"env:",
		"telemetry:",
		"notification:",
		"crash:",
		"log:",
	}

	for _, section := range expectedSections {
		if !strings.Contains(content, section) {
			t.Errorf("Expected ConfigYAML to contain section %q", section)
		}
	}
}

func TestConfigYAML_ContainsFields(t *testing.T) {
	content := string(ConfigYAML)

	expectedFields := []string{
		"packaged:",
		"module_path_var:",
		"gl_library:",
		"mesh_library:",
		"dsn:",
		"shoutrrr_url:",
		"flush_timeout:",
	}

	for _, field := range expectedFields {
		if !strings.Contains(content, field) {
			t.Errorf("Expected ConfigYAML to contain field %q", field)
		}
	}
}

func TestConfigYAML_LoadsAsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, ConfigYAML, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	want := config.Default()
	assert.Equal(t, want.App, cfg.App)
	assert.Equal(t, want.Env, cfg.Env)
	assert.Equal(t, want.Crash, cfg.Crash)
	assert.Equal(t, want.Log, cfg.Log)
}

func TestEnvFile_ContainsEnvVars(t *testing.T) {
	vars, err := godotenv.Unmarshal(string(EnvFile))
	require.NoError(t, err)

	for _, key := range []string{
		"BOOTGUARD_TELEMETRY_DSN",
		"BOOTGUARD_NOTIFICATION_SHOUTRRR_URL",
		"BOOTGUARD_APP_PACKAGED",
		"BOOTGUARD_LOG_LEVEL",
	} {
		assert.Contains(t, vars, key)
	}
	assert.Empty(t, vars["BOOTGUARD_TELEMETRY_DSN"], "template must not ship a DSN")
}
