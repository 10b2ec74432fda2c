package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "statusbar 1.0.0 (protocol 1, producer i3status)\n", out)
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i3status.conf")
	require.NoError(t, os.WriteFile(path, []byte(`
order += "load"
order += "clock"
load {
    format = "%1min"
}
`), 0o644))

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)

	var doc struct {
		Path          string   `yaml:"path"`
		Order         []string `yaml:"order"`
		WorkerModules []string `yaml:"worker_modules"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, []string{"load", "clock"}, doc.Order)
	assert.Equal(t, []string{"clock"}, doc.WorkerModules)
}

func TestConfigShowSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i3status.conf")
	require.NoError(t, os.WriteFile(path, []byte("load {\n"), 0o644))

	_, err := execute(t, "config", "show", "-c", path)
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	out, err := execute(t, "config", "path", "-c", "/tmp/i3status.conf")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/i3status.conf\n", out)
}

func TestConfigSettings(t *testing.T) {
	out, err := execute(t, "config", "settings", "--interval", "7", "--standalone")
	require.NoError(t, err)
	assert.Contains(t, out, "interval: 7")
	assert.Contains(t, out, "standalone: true")
}

func TestInvalidSettings(t *testing.T) {
	_, err := execute(t, "config", "settings", "--interval=0")
	assert.Error(t, err)
}
