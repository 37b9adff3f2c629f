package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(src, []byte("# Hello\n\ntext"), 0o644))
	outDir := filepath.Join(dir, "out")

	stdout, stderr, err := execute(t, "--config", filepath.Join(dir, "none.toml"), "export", src, "-f", "png", "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Successfully exported to PNG!")

	path := strings.TrimSpace(stdout)
	assert.Equal(t, outDir, filepath.Dir(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestExportCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	_, _, err := execute(t, "--config", filepath.Join(dir, "none.toml"), "export", src, "--format", "gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gif")
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("style = \"dark\"\n[export]\nscale = 3\n"), 0o644))

	stdout, _, err := execute(t, "--config", cfgPath, "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, `style = "dark"`)
	assert.Contains(t, stdout, "export.scale = 3")
	assert.Contains(t, stdout, "hint_delay = 2s")
}
