// Iris - real-time sync hub for brewery RTUs
//
// This is the main entry point for the Iris hub. Iris owns the digital
// model of one RTU (relay boards and PID controllers on serial lines),
// keeps it in sync with hardware, and streams every change to connected
// front ends over websockets.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/iris/internal/api"
	"github.com/nerrad567/iris/internal/driver"
	"github.com/nerrad567/iris/internal/hub"
	"github.com/nerrad567/iris/internal/infrastructure/config"
	"github.com/nerrad567/iris/internal/infrastructure/logging"
	"github.com/nerrad567/iris/internal/infrastructure/mqtt"
	"github.com/nerrad567/iris/internal/rtu"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultEnvFile is loaded when --env-file is not given.
const defaultEnvFile = ".env"

// options are the parsed command-line flags.
type options struct {
	configPath  string
	rtuConfig   string
	envFile     string
	showVersion bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Printf("iris %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses the command line. An empty config path means defaults
// plus environment only.
func parseFlags(args []string) (options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("iris", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", os.Getenv("IRIS_CONFIG"), "path to the hub config file")
	flagSet.StringVar(&opts.rtuConfig, "rtu-config", "", "path to the RTU topology file (overrides rtu.config_file)")
	flagSet.StringVar(&opts.envFile, "env-file", defaultEnvFile, "dotenv file loaded before configuration")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}

// loadEnvFile loads a dotenv file into the environment. Variables already
// set win, and a missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// run is the actual application logic, separated from main for testability.
// It blocks until ctx is cancelled or a component fails.
func run(ctx context.Context, opts options) error {
	log := logging.Default()
	log.Info("starting Iris",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.rtuConfig != "" {
		cfg.RTU.ConfigFile = opts.rtuConfig
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", opts.configPath, "rtu_config", cfg.RTU.ConfigFile)

	// A bad topology at startup is fatal; fix the file and restart.
	model, err := rtu.Generate(cfg.RTU.ConfigFile, log)
	if err != nil {
		return fmt.Errorf("generating RTU: %w", err)
	}
	log.Info("RTU configuration loaded", "rtu_id", model.ID, "devices", len(model.Devices))

	drv := driver.New(driver.Config{
		Timeout:       cfg.GetHardwareTimeout(),
		STR1Baud:      cfg.Hardware.STR1Baud,
		WaveshareBaud: cfg.Hardware.WaveshareBaud,
		CN7500Baud:    cfg.Hardware.CN7500Baud,
	}, log.With("component", "driver"))

	var (
		mirror     hub.Mirror
		mqttHealth api.HealthChecker
	)
	if cfg.MQTT.Enabled {
		client, connErr := mqtt.Connect(cfg.MQTT)
		if connErr != nil {
			// The mirror is optional; websocket clients never depend on it.
			log.Warn("MQTT unavailable, continuing without mirror", "error", connErr)
		} else {
			client.SetLogger(log.With("component", "mqtt"))
			defer func() {
				log.Info("disconnecting from MQTT")
				if closeErr := client.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			mirror = mqtt.NewMirror(client, client.Topics(), byte(cfg.MQTT.QoS))
			mqttHealth = client
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"topic_prefix", client.Topics().Prefix(),
			)
		}
	}

	h := hub.New(hub.Options{
		RTU:            model,
		Driver:         drv,
		Loader:         rtu.FileLoader(cfg.RTU.ConfigFile, log),
		Mirror:         mirror,
		Logger:         log,
		SendBuffer:     cfg.WebSocket.SendBuffer,
		MaxMessageSize: int64(cfg.WebSocket.MaxMessageSize),
		PingInterval:   time.Duration(cfg.WebSocket.PingInterval) * time.Second,
		PongTimeout:    time.Duration(cfg.WebSocket.PongTimeout) * time.Second,
	})
	poller := h.NewPoller(cfg.GetPollInterval())

	server, err := api.New(api.Deps{
		Config:  cfg.API,
		Hub:     h,
		Poller:  poller,
		MQTT:    mqttHealth,
		Logger:  log,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return server.Close()
	})

	log.Info("Iris started", "address", server.Addr(), "poll_interval", cfg.GetPollInterval().String())

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Iris stopped")
	return nil
}
