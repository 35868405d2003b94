package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"musicplay/pkg/spec"
)

const (
	CfgEnv      = "MUSICPLAY_CFG"
	CfgFile     = "musicplay.toml"
	LogFile     = "musicplay.log"
	AppDirName  = "musicplay"
	MinVolumeDB = -10.0
	MaxVolumeDB = 2.0
	MaxWorkers  = 16
)

type Values struct {
	Roots        []string `toml:"roots"`
	DebugLogging bool     `toml:"debug_logging"`
	VolumeDB     float64  `toml:"volume_db"`
	Visualizer   bool     `toml:"visualizer"`
	ScanWorkers  int      `toml:"scan_workers"`
	Watch        bool     `toml:"watch"`
	Control      Control  `toml:"control"`
	Remote       Remote   `toml:"remote"`
}

type Control struct {
	Socket string `toml:"socket"`
}

type Remote struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// BaseDefaults is written to disk the first time no config file exists.
var BaseDefaults = Values{
	Visualizer:  true,
	ScanWorkers: 4,
	Watch:       true,
	Control: Control{
		Socket: spec.DefaultSocket,
	},
	Remote: Remote{
		Listen: spec.DefaultListen,
	},
}

type Instance struct {
	mu      sync.RWMutex
	cfgPath string
	vals    Values
}

// ConfigDir is the folder holding the config file and the log file.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, AppDirName)
}

// NewConfig loads the config from cfgPath, MUSICPLAY_CFG or the user config
// dir, in that order. A missing file is created from defaults.
func NewConfig(cfgPath string, defaults Values) (*Instance, error) {
	if cfgPath == "" {
		cfgPath = os.Getenv(CfgEnv)
	}
	if cfgPath == "" {
		cfgPath = filepath.Join(ConfigDir(), CfgFile)
	}

	cfg := Instance{
		cfgPath: cfgPath,
		vals:    defaults,
	}
	if len(cfg.vals.Roots) == 0 {
		cfg.vals.Roots = DefaultRoots()
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Str("path", cfgPath).Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0755)
		if err != nil {
			return nil, err
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultRoots is the user's music folder when it exists, else the home dir.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	music := filepath.Join(home, "Music")
	if fi, err := os.Stat(music); err == nil && fi.IsDir() {
		return []string{music}
	}
	return []string{home}
}

func (c *Instance) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfgPath
}

func (c *Instance) LogValues() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	log.Info().Any("config", c.vals).Msg("config values")
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return err
	}

	newVals := c.vals
	_, err = toml.Decode(string(data), &newVals)
	if err != nil {
		return err
	}

	c.vals = normalize(newVals)

	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	buf := new(bytes.Buffer)
	enc := toml.NewEncoder(buf)
	enc.Indent = ""
	err := enc.Encode(c.vals)
	if err != nil {
		return err
	}

	return os.WriteFile(c.cfgPath, buf.Bytes(), 0644)
}

func normalize(v Values) Values {
	v.VolumeDB = ClampVolume(v.VolumeDB)
	if v.ScanWorkers < 1 {
		v.ScanWorkers = 1
	}
	if v.ScanWorkers > MaxWorkers {
		v.ScanWorkers = MaxWorkers
	}
	if v.Control.Socket == "" {
		v.Control.Socket = spec.DefaultSocket
	}
	if v.Remote.Listen == "" {
		v.Remote.Listen = spec.DefaultListen
	}
	return v
}

// ClampVolume keeps a gain setting inside the range the engine accepts.
func ClampVolume(db float64) float64 {
	if db < MinVolumeDB {
		return MinVolumeDB
	}
	if db > MaxVolumeDB {
		return MaxVolumeDB
	}
	return db
}

func (c *Instance) Roots() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.vals.Roots...)
}

func (c *Instance) SetRoots(roots []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Roots = append([]string(nil), roots...)
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	if enabled {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (c *Instance) VolumeDB() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.VolumeDB
}

// SetVolumeDB stores the gain in beep's base-2 steps, clamped to the allowed range.
func (c *Instance) SetVolumeDB(db float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.VolumeDB = ClampVolume(db)
}

func (c *Instance) Visualizer() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Visualizer
}

func (c *Instance) SetVisualizer(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Visualizer = enabled
}

func (c *Instance) ScanWorkers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.ScanWorkers
}

func (c *Instance) SetScanWorkers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.ScanWorkers = n
	c.vals = normalize(c.vals)
}

func (c *Instance) Watch() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Watch
}

func (c *Instance) ControlSocket() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Control.Socket
}

func (c *Instance) RemoteEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Remote.Enabled
}

func (c *Instance) RemoteListen() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Remote.Listen
}
