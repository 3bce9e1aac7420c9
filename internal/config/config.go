// Package config loads the YAML configuration of the mudra controller.
//
// Defaults, file and flag overrides are applied in that order; Validate is
// called last so the rest of the program can assume a well-formed Config.
// Nothing is ever written back.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/source"
)

// Input backends.
const (
	BackendRobot  = "robot"
	BackendDryRun = "dry-run"
)

// Config is the top-level YAML configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Gestures GesturesConfig `yaml:"gestures"`
	Cursor   CursorConfig   `yaml:"cursor"`
	Scroll   ScrollConfig   `yaml:"scroll"`
	Hotkeys  HotkeysConfig  `yaml:"hotkeys"`
	Input    InputConfig    `yaml:"input"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	UI       UIConfig       `yaml:"ui"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type CameraConfig struct {
	Device          int     `yaml:"device"`
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	Mirror          bool    `yaml:"mirror"`
	ActiveFPS       int     `yaml:"active_fps"`
	IdleFPS         int     `yaml:"idle_fps"` // 0 disables idle throttling
	IdleTimeoutMS   int     `yaml:"idle_timeout_ms"`
	MotionThreshold float64 `yaml:"motion_threshold"` // percent of changed pixels
}

type DetectorConfig struct {
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
	Script                 string  `yaml:"script,omitempty"`
}

type GesturesConfig struct {
	PinchThreshold float64 `yaml:"pinch_threshold"`
}

type CursorConfig struct {
	Sensitivity float64 `yaml:"sensitivity"`
	Smoothing   float64 `yaml:"smoothing"`
	// ScreenWidth and ScreenHeight override the detected display size.
	ScreenWidth  int `yaml:"screen_width,omitempty"`
	ScreenHeight int `yaml:"screen_height,omitempty"`
}

type ScrollConfig struct {
	NudgeThreshold float64 `yaml:"nudge_threshold"`
	Speed          int     `yaml:"speed"`
}

type HotkeysConfig struct {
	TabSwitch   []string `yaml:"tab_switch"`
	ShowDesktop []string `yaml:"show_desktop"`
}

type InputConfig struct {
	Backend         string `yaml:"backend"`
	FailSafe        bool   `yaml:"fail_safe"`
	HotkeyPlugin    bool   `yaml:"hotkey_plugin"`
	PluginDir       string `yaml:"plugin_dir"`
	PluginTimeoutMS int    `yaml:"plugin_timeout_ms"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"` // empty disables the dashboard
	StaticDir string `yaml:"static_dir,omitempty"`
}

type StoreConfig struct {
	Path string `yaml:"path"` // empty disables the journal
}

type UIConfig struct {
	Tray   bool `yaml:"tray"`
	Window bool `yaml:"window"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	ctl := control.DefaultConfig()
	return Config{
		Camera: CameraConfig{
			Device:          0,
			Width:           capture.DefaultWidth,
			Height:          capture.DefaultHeight,
			Mirror:          true,
			ActiveFPS:       capture.DefaultFPS,
			IdleFPS:         capture.DefaultIdleFPS,
			IdleTimeoutMS:   int(capture.DefaultIdleTimeout / time.Millisecond),
			MotionThreshold: capture.DefaultMotionThreshold,
		},
		Detector: DetectorConfig{
			MinDetectionConfidence: det.MinConfidence,
			MinTrackingConfidence:  det.MinTrackingConf,
		},
		Gestures: GesturesConfig{
			PinchThreshold: gesture.DefaultPinchThreshold,
		},
		Cursor: CursorConfig{
			Sensitivity: cursor.DefaultSensitivity,
			Smoothing:   cursor.DefaultSmoothing,
		},
		Scroll: ScrollConfig{
			NudgeThreshold: ctl.ScrollNudgeThreshold,
			Speed:          ctl.ScrollSpeed,
		},
		Hotkeys: HotkeysConfig{
			TabSwitch:   append([]string(nil), ctl.TabSwitchKeys...),
			ShowDesktop: append([]string(nil), ctl.ShowDesktopKeys...),
		},
		Input: InputConfig{
			Backend:         BackendRobot,
			FailSafe:        true,
			HotkeyPlugin:    false,
			PluginDir:       "~/.mudra/plugins",
			PluginTimeoutMS: 2000,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Store: StoreConfig{
			Path: "~/.mudra/mudra.db",
		},
		UI: UIConfig{
			Tray:   true,
			Window: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFile reads a YAML config file on top of DefaultConfig. Unknown
// fields are rejected.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML on top of DefaultConfig.
func Parse(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		// An empty document keeps the defaults.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace and comments may follow the document.
	var rest yaml.Node
	if err := dec.Decode(&rest); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides holds command-line overrides. Nil pointers are ignored;
// non-nil values are applied even when they are zero values.
type FlagOverrides struct {
	CameraDevice *int
	Mirror       *bool
	ActiveFPS    *int

	Sensitivity *float64
	Smoothing   *float64

	Backend      *string
	FailSafe     *bool
	HotkeyPlugin *bool
	PluginDir    *string

	ServerAddr *string
	StaticDir  *string
	StorePath  *string

	Tray   *bool
	Window *bool

	LogLevel *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.CameraDevice != nil {
		cfg.Camera.Device = *o.CameraDevice
	}
	if o.Mirror != nil {
		cfg.Camera.Mirror = *o.Mirror
	}
	if o.ActiveFPS != nil {
		cfg.Camera.ActiveFPS = *o.ActiveFPS
	}

	if o.Sensitivity != nil {
		cfg.Cursor.Sensitivity = *o.Sensitivity
	}
	if o.Smoothing != nil {
		cfg.Cursor.Smoothing = *o.Smoothing
	}

	if o.Backend != nil {
		cfg.Input.Backend = *o.Backend
	}
	if o.FailSafe != nil {
		cfg.Input.FailSafe = *o.FailSafe
	}
	if o.HotkeyPlugin != nil {
		cfg.Input.HotkeyPlugin = *o.HotkeyPlugin
	}
	if o.PluginDir != nil {
		cfg.Input.PluginDir = *o.PluginDir
	}

	if o.ServerAddr != nil {
		cfg.Server.Addr = *o.ServerAddr
	}
	if o.StaticDir != nil {
		cfg.Server.StaticDir = *o.StaticDir
	}
	if o.StorePath != nil {
		cfg.Store.Path = *o.StorePath
	}

	if o.Tray != nil {
		cfg.UI.Tray = *o.Tray
	}
	if o.Window != nil {
		cfg.UI.Window = *o.Window
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
func (c *Config) Validate() error {
	// Camera
	if c.Camera.Device < 0 {
		return errors.New("camera.device must be >= 0")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return errors.New("camera.width and camera.height must be > 0")
	}
	if c.Camera.ActiveFPS <= 0 || c.Camera.ActiveFPS > 120 {
		return errors.New("camera.active_fps must be between 1 and 120")
	}
	if c.Camera.IdleFPS < 0 || c.Camera.IdleFPS > c.Camera.ActiveFPS {
		return errors.New("camera.idle_fps must be between 0 and camera.active_fps")
	}
	if c.Camera.IdleTimeoutMS < 0 {
		return errors.New("camera.idle_timeout_ms must be >= 0")
	}
	if c.Camera.MotionThreshold < 0 || c.Camera.MotionThreshold > 100 {
		return errors.New("camera.motion_threshold must be between 0 and 100")
	}

	// Detector
	if !unit(c.Detector.MinDetectionConfidence) {
		return errors.New("detector.min_detection_confidence must be in (0, 1]")
	}
	if !unit(c.Detector.MinTrackingConfidence) {
		return errors.New("detector.min_tracking_confidence must be in (0, 1]")
	}

	// Gestures
	if c.Gestures.PinchThreshold <= 0 || c.Gestures.PinchThreshold >= 1 {
		return errors.New("gestures.pinch_threshold must be in (0, 1)")
	}

	// Cursor
	if c.Cursor.Sensitivity < 1 {
		return errors.New("cursor.sensitivity must be >= 1")
	}
	if c.Cursor.Smoothing < 0 || c.Cursor.Smoothing >= 1 {
		return errors.New("cursor.smoothing must be in [0, 1)")
	}
	if c.Cursor.ScreenWidth < 0 || c.Cursor.ScreenHeight < 0 {
		return errors.New("cursor.screen_width and cursor.screen_height must be >= 0")
	}
	if (c.Cursor.ScreenWidth == 0) != (c.Cursor.ScreenHeight == 0) {
		return errors.New("cursor.screen_width and cursor.screen_height must be set together")
	}

	// Scroll
	if c.Scroll.NudgeThreshold <= 0 {
		return errors.New("scroll.nudge_threshold must be > 0")
	}
	if c.Scroll.Speed <= 0 {
		return errors.New("scroll.speed must be > 0")
	}

	// Hotkeys
	if err := validKeys("hotkeys.tab_switch", c.Hotkeys.TabSwitch); err != nil {
		return err
	}
	if err := validKeys("hotkeys.show_desktop", c.Hotkeys.ShowDesktop); err != nil {
		return err
	}

	// Input
	if c.Input.Backend != BackendRobot && c.Input.Backend != BackendDryRun {
		return fmt.Errorf("input.backend must be %q or %q", BackendRobot, BackendDryRun)
	}
	if c.Input.HotkeyPlugin {
		if c.Input.PluginDir == "" {
			return errors.New("input.hotkey_plugin is true but input.plugin_dir is empty")
		}
		if c.Input.PluginTimeoutMS <= 0 {
			return errors.New("input.plugin_timeout_ms must be > 0")
		}
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "error", "warn", "warning", "info", "debug":
	default:
		return fmt.Errorf("logging.level %q must be error, warn, info or debug", c.Logging.Level)
	}

	return nil
}

func unit(v float64) bool {
	return v > 0 && v <= 1
}

func validKeys(field string, keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("%s must not be empty", field)
	}
	for i, k := range keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%s[%d] is empty", field, i)
		}
	}
	return nil
}

// CaptureOptions returns the camera device options.
func (c *Config) CaptureOptions() capture.Options {
	return capture.Options{
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.ActiveFPS,
	}
}

// SourceConfig returns the live camera source settings.
func (c *Config) SourceConfig() source.CameraConfig {
	return source.CameraConfig{
		Mirror:          c.Camera.Mirror,
		ActiveFPS:       c.Camera.ActiveFPS,
		IdleFPS:         c.Camera.IdleFPS,
		IdleTimeout:     time.Duration(c.Camera.IdleTimeoutMS) * time.Millisecond,
		MotionThreshold: c.Camera.MotionThreshold,
	}
}

// DetectorConfig returns the hand detector settings.
func (c *Config) DetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.MinConfidence = c.Detector.MinDetectionConfidence
	cfg.MinTrackingConf = c.Detector.MinTrackingConfidence
	cfg.ScriptPath = ExpandPath(c.Detector.Script)
	return cfg
}

// ControlConfig returns the controller tuning.
func (c *Config) ControlConfig() control.Config {
	return control.Config{
		ScrollNudgeThreshold: c.Scroll.NudgeThreshold,
		ScrollSpeed:          c.Scroll.Speed,
		TabSwitchKeys:        c.Hotkeys.TabSwitch,
		ShowDesktopKeys:      c.Hotkeys.ShowDesktop,
	}
}

// Mapper returns a cursor mapper for screen, or for the configured screen
// override when one is set.
func (c *Config) Mapper(screen cursor.Screen) *cursor.Mapper {
	if c.Cursor.ScreenWidth > 0 {
		screen = cursor.Screen{Width: c.Cursor.ScreenWidth, Height: c.Cursor.ScreenHeight}
	}
	m := cursor.NewMapper(screen)
	m.Sensitivity = c.Cursor.Sensitivity
	m.Smoothing = c.Cursor.Smoothing
	return m
}

// PluginTimeout returns the hotkey plugin timeout.
func (c *Config) PluginTimeout() time.Duration {
	return time.Duration(c.Input.PluginTimeoutMS) * time.Millisecond
}

// ExpandPath expands a leading "~" to the user's home directory.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
