package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/camsession/cmd"
	"github.com/smazurov/camsession/internal/camera"
	"github.com/smazurov/camsession/internal/config"
	"github.com/smazurov/camsession/internal/devices"
	"github.com/smazurov/camsession/internal/events"
	"github.com/smazurov/camsession/internal/ffmpeg"
	"github.com/smazurov/camsession/internal/led"
	"github.com/smazurov/camsession/internal/logging"
	"github.com/smazurov/camsession/internal/metrics"
	"github.com/smazurov/camsession/internal/resolution"
	"github.com/smazurov/camsession/internal/session"
	"github.com/smazurov/camsession/internal/systemd"
	"github.com/smazurov/camsession/internal/uvc"
	"github.com/smazurov/camsession/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Device settings
	Device      string `help:"Fixed device node to use instead of hotplug, e.g. /dev/video0" toml:"devices.path" env:"DEVICES_PATH"`
	DeviceID    string `help:"Device identifier reported for --device" default:"static" toml:"devices.id" env:"DEVICES_ID"`
	SettleDelay string `help:"Wait after a node appears before opening it" default:"1s" toml:"devices.settle_delay" env:"DEVICES_SETTLE_DELAY"`

	// Preview settings
	PreviewWidth        int    `help:"Preferred capture width" default:"1920" toml:"preview.width" env:"PREVIEW_WIDTH"`
	PreviewHeight       int    `help:"Preferred capture height" default:"1080" toml:"preview.height" env:"PREVIEW_HEIGHT"`
	PreviewFamilies     string `help:"Encoding negotiation order" default:"mjpeg,yuyv" toml:"preview.families" env:"PREVIEW_FAMILIES"`
	PreviewYUVMaxFPS    int    `help:"Frame rate cap for the raw family" default:"60" toml:"preview.yuv_max_fps" env:"PREVIEW_YUV_MAX_FPS"`
	PreviewOutput       string `help:"Render target sink URL" default:"udp://127.0.0.1:5000" toml:"preview.output" env:"PREVIEW_OUTPUT"`
	PreviewOutputFormat string `help:"Force the sink muxer" toml:"preview.output_format" env:"PREVIEW_OUTPUT_FORMAT"`
	PreviewEncoder      string `help:"Sink video encoder (ffmpeg -c:v)" toml:"preview.encoder" env:"PREVIEW_ENCODER"`
	PreviewPixelFormat  string `help:"Sink pixel format (ffmpeg -pix_fmt)" toml:"preview.pixel_format" env:"PREVIEW_PIXEL_FORMAT"`
	PreviewInputOptions string `help:"ffmpeg input options, comma separated" default:"thread_queue_1024,low_latency" toml:"preview.input_options" env:"PREVIEW_INPUT_OPTIONS"`
	PreviewTargetWidth  int    `help:"Render target width, 0 leaves it not ready" default:"1920" toml:"preview.target_width" env:"PREVIEW_TARGET_WIDTH"`
	PreviewTargetHeight int    `help:"Render target height, 0 leaves it not ready" default:"1080" toml:"preview.target_height" env:"PREVIEW_TARGET_HEIGHT"`

	// Session settings
	SessionDestroyTimeout string `help:"Bound on each camera close" default:"5s" toml:"session.destroy_timeout" env:"SESSION_DESTROY_TIMEOUT"`
	SessionStopTimeout    string `help:"Graceful capture stop before kill" default:"3s" toml:"session.stop_timeout" env:"SESSION_STOP_TIMEOUT"`
	SessionStrict         bool   `help:"Panic on contract violations" default:"false" toml:"session.strict" env:"SESSION_STRICT"`

	// Feature settings
	FeaturesLED     bool   `help:"Show session state on a board LED" default:"false" toml:"features.led_enabled" env:"FEATURES_LED"`
	FeaturesLEDName string `help:"sysfs LED name, empty detects the board" toml:"features.led_name" env:"FEATURES_LED_NAME"`

	// Metrics settings
	MetricsListen string `help:"Prometheus listen address, empty disables" toml:"metrics.listen" env:"METRICS_LISTEN"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSession string `help:"Session logging level" toml:"logging.session" env:"LOGGING_SESSION"`
	LoggingCamera  string `help:"Camera logging level" toml:"logging.camera" env:"LOGGING_CAMERA"`
	LoggingDevices string `help:"Devices logging level" toml:"logging.devices" env:"LOGGING_DEVICES"`
	LoggingUvc     string `help:"Capture driver logging level" toml:"logging.uvc" env:"LOGGING_UVC"`
	LoggingFfmpeg  string `help:"ffmpeg output logging level" toml:"logging.ffmpeg" env:"LOGGING_FFMPEG"`
	LoggingConfig  string `help:"Config logging level" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingProcess string `help:"Subprocess lifecycle logging level" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingLed     string `help:"LED logging level" toml:"logging.led" env:"LOGGING_LED"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: moduleLevels(map[string]string{
				"session": opts.LoggingSession,
				"camera":  opts.LoggingCamera,
				"devices": opts.LoggingDevices,
				"uvc":     opts.LoggingUvc,
				"ffmpeg":  opts.LoggingFfmpeg,
				"config":  opts.LoggingConfig,
				"process": opts.LoggingProcess,
				"led":     opts.LoggingLed,
			}),
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting camsession", version.LogAttrs()...)

		families, err := camera.ParseFamilies(opts.PreviewFamilies, opts.PreviewYUVMaxFPS)
		if err != nil {
			logger.Error("Invalid encoding families", "families", opts.PreviewFamilies, "error", err)
			os.Exit(1)
		}

		inputOptions, unknown := ffmpeg.ParseOptions(splitList(opts.PreviewInputOptions))
		if len(unknown) > 0 {
			logger.Warn("Ignoring unknown ffmpeg input options", "options", unknown)
		}

		stopTimeout := parseDuration(logger, "session.stop_timeout", opts.SessionStopTimeout, 3*time.Second)
		driver := uvc.NewDriver(
			uvc.WithInputOptions(inputOptions),
			uvc.WithStopTimeouts(stopTimeout, 2*time.Second),
		)

		// Create event bus for in-process event handling
		eventBus := events.New()
		unsubscribe := logSessionEvents(eventBus, logger)

		var source devices.Source
		if opts.Device != "" {
			logger.Info("Using fixed device", "path", opts.Device, "device_id", opts.DeviceID)
			source = devices.NewStaticSource(camera.DeviceID(opts.DeviceID), opts.Device)
		} else {
			source = devices.NewHotplugSource(
				devices.WithSettleDelay(parseDuration(logger, "devices.settle_delay", opts.SettleDelay, time.Second)),
			)
		}

		controller := session.NewController(&session.Options{
			Driver:         driver,
			Source:         source,
			EventBus:       eventBus,
			Families:       families,
			PreferredSize:  resolution.Size{Width: opts.PreviewWidth, Height: opts.PreviewHeight},
			DestroyTimeout: parseDuration(logger, "session.destroy_timeout", opts.SessionDestroyTimeout, 5*time.Second),
			Strict:         opts.SessionStrict,
		})

		sink := uvc.NewSink("preview", opts.PreviewOutput)
		sink.Format = opts.PreviewOutputFormat
		sink.Encoder = opts.PreviewEncoder
		sink.PixelFormat = opts.PreviewPixelFormat

		watcher := config.NewConfigWatcher(opts.Config, config.LoadReloadable, logging.GetLogger("config"))
		watcher.OnReload(func(r config.Reloadable) {
			applyReload(controller, r, logger)
		})

		// Initialize LED indicator if enabled
		var indicator *led.Indicator
		if opts.FeaturesLED {
			ledLogger := logging.GetLogger("led")
			indicator = led.NewIndicator(led.New(opts.FeaturesLEDName, ledLogger), eventBus, ledLogger)
		}

		notifier := systemd.NewNotifier(logger)
		var metricsServer *http.Server
		stopped := make(chan struct{})

		hooks.OnStart(func() {
			if opts.MetricsListen != "" {
				metricsServer = startMetrics(opts.MetricsListen, logger)
			}

			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Config watcher not started", "path", opts.Config, "error", startErr)
			}

			if indicator != nil {
				indicator.Start()
			}

			controller.OnTargetCreated(sink)
			controller.OnTargetResized(opts.PreviewTargetWidth, opts.PreviewTargetHeight)

			if regErr := controller.Register(); regErr != nil {
				logger.Error("Failed to register device source", "error", regErr)
				os.Exit(1)
			}

			notifier.Follow(eventBus)
			notifier.Ready()
			logger.Info("Session controller running", "output", opts.PreviewOutput)

			// SIGUSR1 toggles like a camera button; SIGUSR2 stops the camera.
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, syscall.SIGUSR1, syscall.SIGUSR2)
			defer signal.Stop(signals)
			for {
				select {
				case <-stopped:
					return
				case sig := <-signals:
					if sig == syscall.SIGUSR1 {
						controller.RequestDevice()
					} else {
						controller.RequestTeardown()
					}
				}
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()
			notifier.Unfollow()

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			// Stops the capture, closes the camera and unregisters the source.
			controller.Close()
			unsubscribe()
			if indicator != nil {
				indicator.Stop()
			}

			if metricsServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if stopErr := metricsServer.Shutdown(ctx); stopErr != nil {
					logger.Error("Error stopping metrics server", "error", stopErr)
				}
				cancel()
			}
			close(stopped)
		})
	})

	cli.Root().Use = "camsession"
	cli.Root().Short = "Run the camera session controller"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateDevicesCmd())
	cli.Root().AddCommand(cmd.CreateSelectCmd())

	// Run the CLI
	cli.Run()
}

// moduleLevels drops modules without an explicit level so they follow the
// global one.
func moduleLevels(levels map[string]string) map[string]string {
	out := make(map[string]string, len(levels))
	for module, level := range levels {
		if level != "" {
			out[module] = level
		}
	}
	return out
}

func parseDuration(logger logging.Logger, name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// logSessionEvents reports what a UI host would show to the user.
func logSessionEvents(bus *events.Bus, logger logging.Logger) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.DeviceEvent) {
			logger.Info("Device "+e.Action, "device_id", e.DeviceID)
		}),
		bus.Subscribe(func(e events.SessionErrorEvent) {
			logger.Warn("Camera session failed", "device_id", e.DeviceID, "reason", e.Reason, "error", e.Error)
		}),
		bus.Subscribe(func(events.DeviceSelectionRequestedEvent) {
			logger.Info("No camera open, waiting for a device to be connected")
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// applyReload pushes reloadable settings to the running controller. They
// take effect on the next connect.
func applyReload(c *session.Controller, r config.Reloadable, logger logging.Logger) {
	if r.Preview.Width > 0 || r.Preview.Height > 0 {
		size := resolution.Size{Width: r.Preview.Width, Height: r.Preview.Height}
		if err := c.SetPreferredSize(size); err != nil {
			logger.Warn("Ignoring reloaded preview size", "error", err)
		}
	}
	if r.Preview.Families != "" {
		maxFPS := r.Preview.YUVMaxFPS
		if maxFPS == 0 {
			maxFPS = 60
		}
		families, err := camera.ParseFamilies(r.Preview.Families, maxFPS)
		if err != nil {
			logger.Warn("Ignoring reloaded encoding families", "error", err)
		} else {
			c.SetFamilies(families)
		}
	}

	logging.SetModuleLevel("", r.Logging.Level)
	for module, level := range r.Logging.Modules {
		if !logging.SetModuleLevel(module, level) {
			logger.Warn("Ignoring invalid log level", "module", module, "level", level)
		}
	}
}

func startMetrics(addr string, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Starting metrics server", "listen", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	return srv
}
