package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorak1103/bootguard/internal/templates"
)

func TestInitCmd_Structure(t *testing.T) {
	t.Parallel()

	cmd := initCmd

	if cmd.Use != "init" {
		t.Errorf("Expected command use 'init', got '%s'", cmd.Use)
	}

	if cmd.Long == "" {
		t.Error("Expected command long description to be set")
	}

	if cmd.Example == "" {
		t.Error("Expected command example to be set")
	}

	forceFlag := cmd.Flags().Lookup("force")
	if forceFlag == nil {
		t.Fatal("Expected 'force' flag to be defined")
	}
	if forceFlag.DefValue != "false" {
		t.Errorf("Expected 'force' flag default to be 'false', got '%s'", forceFlag.DefValue)
	}
}

func TestInitCmd_HelpOutput(t *testing.T) {
	resetRootState(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"init", "--help"})

	require.NoError(t, rootCmd.Execute())

	for _, expected := range []string{"config.yaml", ".env", "--force"} {
		assert.Contains(t, buf.String(), expected)
	}
}

func TestWriteTemplates_CreatesFiles(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, writeTemplates(&out, dir, false))

	content, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, templates.ConfigYAML, content)

	content, err = os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, templates.EnvFile, content)

	info, err := os.Stat(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Contains(t, out.String(), "Created config.yaml")
}

func TestWriteTemplates_SkipsExistingWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom: true\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, writeTemplates(&out, dir, false))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom: true\n", string(content))
	assert.Contains(t, out.String(), "Skipping config.yaml")
}

func TestWriteTemplates_ForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom: true\n"), 0o600))

	require.NoError(t, writeTemplates(&bytes.Buffer{}, dir, true))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, templates.ConfigYAML, content)
}

func TestWriteTemplates_UnwritableDir(t *testing.T) {
	err := writeTemplates(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write config.yaml")
}
