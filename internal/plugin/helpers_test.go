package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell plugins need a POSIX shell")
	}
}

// writePlugin creates dir/name with a plugin.json and an executable run.sh.
func writePlugin(t *testing.T, dir, name, script string, events ...string) *Plugin {
	t.Helper()
	pluginPath := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(pluginPath, 0o755))

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Events:     events,
	}
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(pluginPath, "plugin.json"), data, 0o644))

	exe := filepath.Join(pluginPath, "run.sh")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"+script), 0o755))

	return &Plugin{Manifest: manifest, Path: pluginPath, Executable: exe}
}
