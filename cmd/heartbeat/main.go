// Package main is the entry point for the heartbeat service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/avheartbeat/internal/config"
	"github.com/vyrodovalexey/avheartbeat/internal/diagnostics"
	grpchealth "github.com/vyrodovalexey/avheartbeat/internal/grpc/health"
	"github.com/vyrodovalexey/avheartbeat/internal/heartbeat"
	"github.com/vyrodovalexey/avheartbeat/internal/observability"
	"github.com/vyrodovalexey/avheartbeat/internal/probe"
	"github.com/vyrodovalexey/avheartbeat/internal/server"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg, configPath := loadAndValidateConfig(flags.configPath, logger)
	logger = reconfigureLogger(logger, flags, cfg)

	app := initApplication(cfg, logger)

	runService(app, configPath, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("HEARTBEAT_CONFIG_PATH", "configs/heartbeat.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("HEARTBEAT_LOG_LEVEL", ""),
		"Log level overriding the configuration (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("HEARTBEAT_LOG_FORMAT", ""),
		"Log format overriding the configuration (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("avheartbeat version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the startup logger from flags alone. Empty
// values select zap's defaults until the configuration is loaded.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// reconfigureLogger rebuilds the logger from the loaded configuration.
// Command line flags win over configuration values.
func reconfigureLogger(startup observability.Logger, flags cliFlags, cfg *config.Config) observability.Logger {
	logCfg := observability.LogConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: cfg.Observability.Logging.Output,
	}
	if flags.logLevel != "" {
		logCfg.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		logCfg.Format = flags.logFormat
	}

	logger, err := observability.NewLogger(logCfg)
	if err != nil {
		startup.Warn("invalid logging configuration, keeping startup logger", observability.Error(err))
		return startup
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads and validates the configuration. It
// returns the resolved path so the watcher follows the same file.
func loadAndValidateConfig(path string, logger observability.Logger) (*config.Config, string) {
	logger.Info("starting avheartbeat",
		observability.String("version", version),
		observability.String("config", path),
	)

	resolved, err := config.ResolveConfigPath(path)
	if err != nil {
		logger.Warn("configuration file not found, using defaults",
			observability.String("config", path),
		)
		return config.DefaultConfig(), ""
	}

	cfg, err := config.Load(resolved)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.String("path", resolved),
		observability.Int("probes", len(cfg.Probes)),
		observability.Bool("parallel", cfg.Heartbeat.Parallel),
		observability.Bool("metrics", cfg.Observability.Metrics.Enabled),
		observability.Bool("grpc", cfg.GRPC.Enabled),
		observability.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	return cfg, resolved
}

// application holds all application components.
type application struct {
	server     *server.Server
	grpcServer *grpchealth.Server
	registry   *diagnostics.Registry
	monitor    *diagnostics.Monitor
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	config     *config.Config
}

// initApplication initializes all application components.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	metrics := initMetrics(cfg)
	tracer := initTracer(cfg, logger)

	probes, err := probe.FromConfig(cfg.Probes, logger)
	if err != nil {
		logger.Fatal("failed to build probes", observability.Error(err))
	}

	registry := diagnostics.NewRegistry(probes...)

	monitorOpts := []diagnostics.MonitorOption{
		diagnostics.WithParallel(cfg.Heartbeat.Parallel),
		diagnostics.WithMonitorLogger(logger),
		diagnostics.WithMonitorMetrics(metrics),
	}
	if cfg.Observability.Tracing.Enabled {
		monitorOpts = append(monitorOpts, diagnostics.WithMonitorTracer(tracer.Tracer()))
	}
	monitor := diagnostics.NewMonitor(registry, monitorOpts...)

	handler := heartbeat.NewHandler(&heartbeat.Config{
		APIKey:       cfg.Heartbeat.APIKey,
		APIKeyHeader: cfg.Heartbeat.APIKeyHeaderKey,
		Route:        cfg.Heartbeat.HeartbeatRoute,
	}, heartbeat.StaticResolver(monitor),
		heartbeat.WithLogger(logger),
		heartbeat.WithMetrics(metrics),
	)

	srv := server.New(cfg, handler,
		server.WithServerLogger(logger),
		server.WithServerMetrics(metrics),
	)

	var grpcServer *grpchealth.Server
	if cfg.GRPC.Enabled {
		hs := grpchealth.NewHealthServer(monitor, grpchealth.WithHealthLogger(logger))
		grpcServer = grpchealth.NewServer(&cfg.GRPC, hs, grpchealth.WithGRPCServerLogger(logger))
	}

	return &application{
		server:     srv,
		grpcServer: grpcServer,
		registry:   registry,
		monitor:    monitor,
		metrics:    metrics,
		tracer:     tracer,
		config:     cfg,
	}
}

// initMetrics initializes Prometheus metrics.
func initMetrics(cfg *config.Config) *observability.Metrics {
	namespace := cfg.Observability.Metrics.Namespace
	if namespace == "" {
		namespace = "heartbeat"
	}

	metrics := observability.NewMetrics(namespace)
	metrics.SetBuildInfo(version, gitCommit, buildTime)
	return metrics
}

// initTracer initializes the tracer.
func initTracer(cfg *config.Config, logger observability.Logger) *observability.Tracer {
	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:    "avheartbeat",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Observability.Tracing.OTLPEndpoint,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
		Enabled:        cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal("failed to initialize tracer", observability.Error(err))
	}

	return tracer
}

// runService runs the service and handles shutdown.
func runService(app *application, configPath string, logger observability.Logger) {
	ctx := context.Background()

	go func() {
		if err := app.server.Start(ctx); err != nil {
			logger.Fatal("server error", observability.Error(err))
		}
	}()

	if app.grpcServer != nil {
		if err := app.grpcServer.Start(ctx); err != nil {
			logger.Fatal("failed to start grpc server", observability.Error(err))
		}
	}

	watcher := startConfigWatcher(app, configPath, logger)

	waitForShutdown(app, watcher, logger)
}

// startConfigWatcher starts the configuration watcher. Probe changes
// apply without a restart; server and endpoint settings do not.
func startConfigWatcher(
	app *application,
	configPath string,
	logger observability.Logger,
) *config.Watcher {
	if configPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, func(newCfg *config.Config) {
		probes, buildErr := probe.FromConfig(newCfg.Probes, logger)
		if buildErr != nil {
			logger.Error("failed to rebuild probes", observability.Error(buildErr))
			return
		}
		app.registry.Replace(probes)
		logger.Info("probes reloaded", observability.Int("count", len(probes)))
	}, config.WithWatcherLogger(logger))

	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(context.Background()); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
	}

	return watcher
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown.
func waitForShutdown(app *application, watcher *config.Watcher, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	timeout := app.config.Server.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if watcher != nil {
		_ = watcher.Stop()
	}

	if app.grpcServer != nil {
		if err := app.grpcServer.Stop(shutdownCtx); err != nil {
			logger.Error("failed to stop grpc server", observability.Error(err))
		}
	}

	if err := app.server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("heartbeat service stopped")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
