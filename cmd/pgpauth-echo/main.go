package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yndnr/pgpauth-go/internal/core/service"
	"github.com/yndnr/pgpauth-go/internal/infra/buildinfo"
	"github.com/yndnr/pgpauth-go/internal/infra/confloader"
	"github.com/yndnr/pgpauth-go/internal/infra/shutdown"
	"github.com/yndnr/pgpauth-go/internal/infra/tlsroots"
	"github.com/yndnr/pgpauth-go/internal/keystore"
	"github.com/yndnr/pgpauth-go/internal/server/config"
	"github.com/yndnr/pgpauth-go/internal/server/httpserver"
	"github.com/yndnr/pgpauth-go/internal/storage"
	"github.com/yndnr/pgpauth-go/internal/storage/memory"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
	"github.com/yndnr/pgpauth-go/internal/telemetry/metric"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pgpauth-echo", flag.ContinueOnError)
	var (
		configFile  = fs.String("config", "", "Path to configuration file")
		addr        = fs.String("addr", "", "Listen address (overrides server.http.addr)")
		keyringFile = fs.String("keyring", "", "Public keyring (overrides auth.keyring_file)")
		showVersion = fs.Bool("version", false, "Show version information")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "pgpauth-echo %s\n", buildinfo.String())
		return nil
	}

	flags := map[string]any{
		"server.http.addr":  *addr,
		"auth.keyring_file": *keyringFile,
	}
	cfg, err := loadConfig(*configFile, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg, stdout)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting pgpauth-echo",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	// Hooks are registered as resources open and run in reverse order. The
	// deferred call releases them on early returns; after Wait it is a no-op.
	shutdownHandler := shutdown.NewHandler(shutdown.DefaultTimeout, log)
	defer shutdownHandler.Shutdown()

	metrics := metric.NewRegistry()

	keyring, err := keystore.LoadKeyring(cfg.Auth.KeyringFile)
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}
	log.Info("keyring loaded", "keyring", cfg.Auth.KeyringFile, "keys", keyring.Len())

	replay, err := initReplayStore(cfg, metrics, log)
	if err != nil {
		return fmt.Errorf("init replay store: %w", err)
	}
	shutdownHandler.OnShutdown("replay store", func(context.Context) error {
		return replay.Close()
	})

	verifier := service.NewTokenVerifier(keyring, replay, &service.TokenVerifierConfig{
		Window:  cfg.Auth.TokenDuration,
		Logger:  log,
		Metrics: metrics,
	})

	var limiters *service.RateLimiterRegistry
	if cfg.Auth.RateLimit > 0 {
		limiters = service.NewRateLimiterRegistry(cfg.Auth.RateLimit, nil)
		shutdownHandler.OnShutdown("rate limiters", func(context.Context) error {
			return limiters.Close()
		})
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Authenticator:      verifier,
		Signers:            keyring,
		RateLimiters:       limiters,
		Metrics:            metrics,
		MetricsEnabled:     cfg.Metrics.Enabled,
		MetricsBearerToken: cfg.Metrics.BearerToken,
		MaxBodyBytes:       cfg.Server.HTTP.MaxBodyBytes,
		EnableAudit:        true,
		Logger:             log,
	})

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return fmt.Errorf("init file watcher: %w", err)
	}
	shutdownHandler.OnShutdown("file watcher", func(context.Context) error {
		return watcher.Stop()
	})
	if err := keyring.Watch(watcher, log); err != nil {
		return err
	}
	if *configFile != "" {
		if err := watchLogLevel(watcher, *configFile, flags, log); err != nil {
			return err
		}
	}

	opts := &httpserver.ServerOptions{
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	}
	if cfg.Server.HTTP.TLSEnabled() {
		reloader, err := tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile, log)
		if err != nil {
			return fmt.Errorf("load TLS key pair: %w", err)
		}
		if err := reloader.Watch(watcher); err != nil {
			return err
		}
		opts.TLSConfig, err = tlsroots.ServerConfig(reloader, cfg.Server.HTTP.TLSClientCAFile)
		if err != nil {
			return fmt.Errorf("TLS config: %w", err)
		}
	}
	watcher.StartAsync()

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router, opts)
	ln, err := httpServer.Listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	shutdownHandler.OnShutdown("http server", httpServer.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Info("HTTP server listening",
			"addr", ln.Addr().String(),
			"tls", opts.TLSConfig != nil)
		if err := httpServer.Serve(ln); err != nil {
			log.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// watchLogLevel re-reads the configuration file when it changes and applies
// a new log.level. Other settings need a restart.
func watchLogLevel(w *confloader.Watcher, configFile string, flags map[string]any, log logger.Logger) error {
	abs, err := filepath.Abs(configFile)
	if err != nil {
		return err
	}
	if err := w.Watch(abs); err != nil {
		return fmt.Errorf("watch %s: %w", configFile, err)
	}

	w.OnChange(func(path string) {
		if path != abs {
			return
		}
		cfg, err := loadConfig(configFile, flags)
		if err != nil {
			log.Warn("configuration reload failed, keeping log level", "error", err)
			return
		}
		prev := logger.Level()
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("invalid log level", "level", cfg.Log.Level, "error", err)
			return
		}
		if now := logger.Level(); now != prev {
			log.Info("log level changed", "from", prev, "to", now)
		}
	})
	return nil
}

// loadConfig layers defaults, the config file, PGPAUTH_ECHO_* variables and
// non-empty flag overrides, then validates the result.
func loadConfig(configFile string, flags map[string]any) (*config.ServerConfig, error) {
	opts := []confloader.Option{
		confloader.WithDefaults(config.DefaultMap()),
		confloader.WithEnvPrefix(config.EnvPrefix),
	}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	overrides := make(map[string]any)
	for k, v := range flags {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		overrides[k] = v
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger creates the process logger and installs it as the default.
func initLogger(cfg *config.ServerConfig, out io.Writer) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// replayStore is what the server needs from either replay backend.
type replayStore interface {
	service.NonceStore
	metric.Sizer
	Close() error
}

// initReplayStore opens the configured replay backend and registers its
// metrics.
func initReplayStore(cfg *config.ServerConfig, metrics *metric.Registry, log logger.Logger) (replayStore, error) {
	var store replayStore

	switch cfg.Auth.Replay.Backend {
	case config.ReplayBackendBadger:
		b, err := storage.NewBadgerNonceStore(storage.DefaultBadgerConfig(cfg.Auth.Replay.Dir), log)
		if err != nil {
			return nil, err
		}
		b.RegisterMetrics(metrics.Registerer())
		store = b
	default:
		store = memory.NewNonceStore(&memory.NonceStoreConfig{
			Capacity:      cfg.Auth.Replay.Capacity,
			SweepInterval: memory.DefaultSweepInterval,
			Logger:        log,
		})
	}

	if err := metrics.Registerer().Register(metric.NewCollector(store, cfg.Auth.Replay.Backend)); err != nil {
		store.Close()
		return nil, fmt.Errorf("register replay metrics: %w", err)
	}

	log.Info("replay store ready",
		"backend", cfg.Auth.Replay.Backend,
		"window", cfg.Auth.TokenDuration)
	return store, nil
}
