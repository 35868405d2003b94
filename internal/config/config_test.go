package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicplay/pkg/spec"
)

func TestNewConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", CfgFile)
	defaults := BaseDefaults
	defaults.Roots = []string{"/music"}

	cfg, err := NewConfig(path, defaults)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be saved")

	assert.Equal(t, []string{"/music"}, cfg.Roots())
	assert.Equal(t, 4, cfg.ScanWorkers())
	assert.True(t, cfg.Visualizer())
	assert.Equal(t, spec.DefaultSocket, cfg.ControlSocket())
	assert.Equal(t, spec.DefaultListen, cfg.RemoteListen())
	assert.False(t, cfg.RemoteEnabled())
}

func TestNewConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.toml")
	t.Setenv(CfgEnv, path)

	cfg, err := NewConfig("", Values{Roots: []string{"/a"}})
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), CfgFile)
	content := `roots = ["/x", "/y"]
debug_logging = true
volume_db = -40
scan_workers = 99

[control]
socket = "/tmp/other.sock"

[remote]
enabled = true
listen = ":9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewConfig(path, BaseDefaults)
	require.NoError(t, err)

	assert.Equal(t, []string{"/x", "/y"}, cfg.Roots())
	assert.True(t, cfg.DebugLogging())
	assert.Equal(t, MinVolumeDB, cfg.VolumeDB(), "volume should be clamped")
	assert.Equal(t, MaxWorkers, cfg.ScanWorkers(), "workers should be clamped")
	assert.Equal(t, "/tmp/other.sock", cfg.ControlSocket())
	assert.True(t, cfg.RemoteEnabled())
	assert.Equal(t, ":9000", cfg.RemoteListen())
	assert.True(t, cfg.Watch(), "unset keys keep defaults")
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), CfgFile)
	require.NoError(t, os.WriteFile(path, []byte("roots = ["), 0644))

	_, err := NewConfig(path, BaseDefaults)
	assert.Error(t, err)
}

func TestSettersRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), CfgFile)
	cfg, err := NewConfig(path, Values{Roots: []string{"/a"}})
	require.NoError(t, err)

	cfg.SetVolumeDB(1.5)
	cfg.SetVisualizer(false)
	cfg.SetScanWorkers(0)
	cfg.SetRoots([]string{"/b"})
	require.NoError(t, cfg.Save())

	again, err := NewConfig(path, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, 1.5, again.VolumeDB())
	assert.False(t, again.Visualizer())
	assert.Equal(t, 1, again.ScanWorkers())
	assert.Equal(t, []string{"/b"}, again.Roots())

	cfg.SetVolumeDB(10)
	assert.Equal(t, MaxVolumeDB, cfg.VolumeDB())
}
