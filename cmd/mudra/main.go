package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/display"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/input"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/source"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/telemetry"
	"github.com/ayusman/mudra/internal/tray"
)

const (
	version           = "0.1.0"
	defaultConfigPath = "~/.mudra/config.yaml"
)

// dryRunScreen is the screen assumed when no input backend can report one.
var dryRunScreen = cursor.Screen{Width: 1920, Height: 1080}

func printVersion() {
	fmt.Printf("Mudra v%s\n", version)
	fmt.Println("Hand gesture pointer control")
}

// options are the command line settings that are not part of the config
// file, plus the explicitly set flags that override it.
type options struct {
	configPath string
	replayPath string
	recordPath string
	version    bool
	overrides  config.FlagOverrides
}

func parseFlags(args []string) (*options, error) {
	def := config.DefaultConfig()
	fs := flag.NewFlagSet("mudra", flag.ContinueOnError)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (default "+defaultConfigPath+" if present)")
	fs.StringVar(&opts.replayPath, "replay", "", "Replay recorded observations from a JSON lines file instead of the camera")
	fs.StringVar(&opts.recordPath, "record", "", "Record observations to a JSON lines file")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	var (
		device       = fs.Int("camera", def.Camera.Device, "Camera device index")
		mirror       = fs.Bool("mirror", def.Camera.Mirror, "Mirror the camera image")
		fps          = fs.Int("fps", def.Camera.ActiveFPS, "Frame rate while a hand is moving")
		sensitivity  = fs.Float64("sensitivity", def.Cursor.Sensitivity, "Cursor sensitivity")
		smoothing    = fs.Float64("smoothing", def.Cursor.Smoothing, "Cursor smoothing in [0, 1)")
		backend      = fs.String("backend", def.Input.Backend, "Input backend: robot|dry-run")
		failSafe     = fs.Bool("fail-safe", def.Input.FailSafe, "Stop when the pointer is pushed into the top-left corner")
		hotkeyPlugin = fs.Bool("hotkey-plugin", def.Input.HotkeyPlugin, "Send hotkeys through a plugin")
		pluginDir    = fs.String("plugin-dir", def.Input.PluginDir, "Plugin directory")
		addr         = fs.String("addr", def.Server.Addr, "Dashboard listen address, empty to disable")
		staticDir    = fs.String("static", def.Server.StaticDir, "Dashboard static files directory")
		storePath    = fs.String("db", def.Store.Path, "Journal database path, empty to disable")
		showTray     = fs.Bool("tray", def.UI.Tray, "Show the system tray menu")
		window       = fs.Bool("window", def.UI.Window, "Show the annotated camera window")
		logLevel     = fs.String("log-level", def.Logging.Level, "Log level: error, warn, info, debug")
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	// Only flags given on the command line override the config file.
	o := &opts.overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "camera":
			o.CameraDevice = device
		case "mirror":
			o.Mirror = mirror
		case "fps":
			o.ActiveFPS = fps
		case "sensitivity":
			o.Sensitivity = sensitivity
		case "smoothing":
			o.Smoothing = smoothing
		case "backend":
			o.Backend = backend
		case "fail-safe":
			o.FailSafe = failSafe
		case "hotkey-plugin":
			o.HotkeyPlugin = hotkeyPlugin
		case "plugin-dir":
			o.PluginDir = pluginDir
		case "addr":
			o.ServerAddr = addr
		case "static":
			o.StaticDir = staticDir
		case "db":
			o.StorePath = storePath
		case "tray":
			o.Tray = showTray
		case "window":
			o.Window = window
		case "log-level":
			o.LogLevel = logLevel
		}
	})

	return &opts, nil
}

// loadConfig reads the config file, falling back to the default location
// and then to built-in defaults, and applies the flag overrides.
func loadConfig(opts *options) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		if p := config.ExpandPath(defaultConfigPath); fileExists(p) {
			path = p
		}
	}

	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadFile(config.ExpandPath(path))
		if err != nil {
			return cfg, err
		}
	}

	opts.overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if opts.version {
		printVersion()
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logLevel, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger := setupLogger(logLevel)
	logger.Info("starting mudra", "version", version, "backend", cfg.Input.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	sink, releaser, screen, err := newSink(&cfg, logger)
	if err != nil {
		return err
	}

	src, err := newSource(&cfg, opts, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	var (
		latest     = &telemetry.Latest{}
		publishers = telemetry.Fanout{latest}
		imageSinks []telemetry.ImageSink
		hub        *server.Hub
		preview    *server.Preview
		window     *display.Window
		menu       *tray.Tray
	)
	if cfg.Server.Addr != "" {
		hub = server.NewHub(logger, server.HubConfig{})
		preview = server.NewPreview(logger, server.DefaultStreamInterval)
		publishers = append(publishers, hub)
		imageSinks = append(imageSinks, preview)
	}
	if cfg.UI.Window {
		window = display.NewWindow("Mudra", stop)
		imageSinks = append(imageSinks, window)
	}
	if cfg.UI.Tray {
		menu = tray.New()
		publishers = append(publishers, menu)
	}

	a := app.New(app.Config{
		Source:     src,
		Classifier: gesture.NewClassifier(cfg.Gestures.PinchThreshold),
		Controller: control.New(cfg.ControlConfig(), cfg.Mapper(screen)),
		Sink:       sink,
		Releaser:   releaser,
		Store:      st,
		Publisher:  publishers,
		ImageSinks: imageSinks,
		Logger:     logger,
	})

	sessionID, err := a.StartSession()
	if err != nil {
		return err
	}

	if cfg.Server.Addr != "" {
		go hub.Run(ctx)
		startServer(&cfg, server.Config{
			Logger:    logger,
			StaticDir: staticDir(cfg.Server.StaticDir),
			SessionID: sessionID,
			Store:     st,
			Latest:    latest,
			Hub:       hub,
			Preview:   preview,
			Pauser:    a,
		}, logger)
	}

	done := make(chan error, 1)
	go func() {
		err := a.Run(ctx)
		if window != nil {
			window.Close()
		}
		done <- err
		if menu != nil {
			menu.Quit()
		}
	}()

	if menu != nil {
		menu.OnPause(a.SetPaused)
		menu.OnQuit(stop)
		menu.OnDashboard(func() {
			if cfg.Server.Addr == "" {
				logger.Warn("dashboard is disabled")
				return
			}
			if err := openBrowser(dashboardURL(cfg.Server.Addr)); err != nil {
				logger.Warn("failed to open dashboard", "error", err)
			}
		})
		// The tray owns the main goroutine until the loop ends or Quit is
		// clicked.
		menu.Run()
		stop()
	}

	err = <-done
	switch {
	case errors.Is(err, input.ErrFailSafe):
		logger.Error("stopped by fail-safe")
	case err != nil:
		logger.Error("control loop failed", "error", err)
	default:
		logger.Info("stopped", "frames", a.Frames())
	}
	return err
}

func openStore(path string, logger *slog.Logger) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	path = config.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	logger.Info("journal opened", "path", path)
	return st, nil
}

// newSink builds the action sink and reports the screen the cursor maps to.
func newSink(cfg *config.Config, logger *slog.Logger) (input.Sink, app.Releaser, cursor.Screen, error) {
	var (
		sink     input.Sink
		releaser app.Releaser
		screen   = dryRunScreen
	)

	switch cfg.Input.Backend {
	case config.BackendRobot:
		robot := input.NewRobot(cfg.Input.FailSafe, logger)
		sink, releaser = robot, robot
		if s := robot.ScreenSize(); s.Width > 0 && s.Height > 0 {
			screen = s
		}
	default:
		sink = input.Nop{}
	}
	sink = input.NewLogged(sink, logger)

	if cfg.Input.HotkeyPlugin {
		manager := plugin.NewManager(config.ExpandPath(cfg.Input.PluginDir))
		if err := manager.Discover(); err != nil {
			return nil, nil, screen, fmt.Errorf("discover plugins: %w", err)
		}
		hotkeys, err := input.NewPluginHotkeys(sink, manager, plugin.NewExecutor(cfg.PluginTimeout()), logger)
		if err != nil {
			logger.Warn("hotkey plugin unavailable, using the input backend", "error", err)
		} else {
			sink = hotkeys
		}
	}

	return sink, releaser, screen, nil
}

func newSource(cfg *config.Config, opts *options, logger *slog.Logger) (source.Source, error) {
	var src source.Source
	if opts.replayPath != "" {
		replay, err := source.OpenReplay(opts.replayPath, time.Second/time.Duration(cfg.Camera.ActiveFPS))
		if err != nil {
			return nil, err
		}
		logger.Info("replaying observations", "path", opts.replayPath)
		src = replay
	} else {
		det, err := detector.NewMediaPipeDetector(cfg.DetectorConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to start hand detector: %w", err)
		}
		cam, err := source.NewCamera(cfg.SourceConfig(), capture.NewCamera(cfg.CaptureOptions()), det, logger)
		if err != nil {
			det.Close()
			return nil, err
		}
		logger.Info("camera opened", "device", cfg.Camera.Device, "fps", cfg.Camera.ActiveFPS)
		src = cam
	}

	if opts.recordPath != "" {
		f, err := os.Create(opts.recordPath)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to create recording: %w", err)
		}
		logger.Info("recording observations", "path", opts.recordPath)
		src = source.Record(src, f)
	}
	return src, nil
}

func startServer(cfg *config.Config, sc server.Config, logger *slog.Logger) {
	if sc.StaticDir != "" {
		logger.Info("serving static files", "dir", sc.StaticDir)
	}
	srv := server.New(sc)
	go func() {
		logger.Info("dashboard listening", "url", dashboardURL(cfg.Server.Addr))
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			logger.Error("dashboard server failed", "error", err)
		}
	}()
}

func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// staticDir returns dir if set, otherwise the first web directory found
// in "web", "../web", "../../web" or ~/.mudra/web.
func staticDir(dir string) string {
	if dir != "" {
		return config.ExpandPath(dir)
	}

	for _, p := range []string{"web", "../web", "../../web", config.ExpandPath("~/.mudra/web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
