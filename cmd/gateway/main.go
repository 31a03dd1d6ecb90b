// Package main is the entry point for the subscription gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vyrodovalexey/subauthgw/internal/cache"
	"github.com/vyrodovalexey/subauthgw/internal/config"
	"github.com/vyrodovalexey/subauthgw/internal/gateway/middleware"
	"github.com/vyrodovalexey/subauthgw/internal/observability"
	"github.com/vyrodovalexey/subauthgw/internal/store"
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

	cfg := loadAndValidateConfig(flags.configPath, logger)
	app := initApplication(cfg, logger)

	runGateway(app, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("SUBAUTHGW_CONFIG_PATH", ""),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("SUBAUTHGW_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("SUBAUTHGW_LOG_FORMAT", "json"),
		"Log format (json, console)")
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
	fmt.Printf("subauthgw version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	return logger
}

// fatal logs the error and exits. The logger interface has no Fatal
// level, so the exit is explicit.
func fatal(logger observability.Logger, msg string, fields ...observability.Field) {
	logger.Error(msg, fields...)
	_ = logger.Sync()
	os.Exit(1)
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting subauthgw",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(logger, "failed to load configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.String("store_backend", cfg.Store.Backend),
		observability.Int("server_port", cfg.Server.Port),
		observability.Int("cache_max_entries", cfg.Cache.MaxEntries),
		observability.Bool("fail_open", cfg.Auth.FailOpen),
	)

	return cfg
}

// application holds all application components.
type application struct {
	server   *http.Server
	store    store.Store
	resolver *cache.Resolver
	config   *config.Config
}

// initApplication initializes all application components.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	st := initStore(cfg, logger)
	resolver := cache.NewResolver(st, &cfg.Cache, logger)

	registry := prometheus.NewRegistry()
	cache.GetResolverMetrics().MustRegister(registry)
	middleware.GetDecisionMetrics().MustRegister(registry)

	engine := buildEngine(cfg, resolver, registry, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadTimeout:       cfg.Server.ReadTimeout.Duration(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:       cfg.Server.IdleTimeout.Duration(),
	}

	return &application{
		server:   server,
		store:    st,
		resolver: resolver,
		config:   cfg,
	}
}

// initStore builds the subscription store from configuration.
func initStore(cfg *config.Config, logger observability.Logger) store.Store {
	var st store.Store

	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.Redis.DialTimeout.Duration())
		defer cancel()

		redisStore, err := store.NewRedisStore(ctx, &cfg.Store.Redis, logger)
		if err != nil {
			fatal(logger, "failed to connect to redis", observability.Error(err))
		}
		st = redisStore

	default:
		logger.Warn("using in-memory subscription store; records do not survive restarts")
		st = store.NewMemoryStore()
	}

	if cfg.Store.Breaker.Enabled {
		st = store.NewBreakerStore(st,
			cfg.Store.Breaker.MaxFailures,
			cfg.Store.Breaker.Timeout.Duration(),
			logger,
		)
	}

	return st
}

// buildEngine builds the gin engine with the middleware chain.
func buildEngine(
	cfg *config.Config,
	resolver *cache.Resolver,
	registry *prometheus.Registry,
	logger observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	})

	metricsPath := cfg.Server.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	engine.GET(metricsPath, gin.WrapH(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	))

	auth := middleware.SubscriptionAuth(middleware.AuthOptions{
		Resolver:     resolver,
		Logger:       logger,
		FailOpen:     cfg.Auth.FailOpen,
		CORSEnabled:  cfg.Auth.CORSEnabled,
		PinCookie:    cfg.Auth.PinCookie,
		FetchTimeout: cfg.Store.FetchTimeout.Duration(),
	})

	// Every path outside the health and metrics endpoints is an
	// authorization decision, so path rules see the request as sent.
	engine.NoRoute(auth, authorizedHandler)

	return engine
}

// authorizedHandler answers requests the auth middleware let through.
func authorizedHandler(c *gin.Context) {
	sub := middleware.SubscriptionFromContext(c)
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "OK",
		"subscription": sub.Name,
		"expires":      sub.ExpiryDate(),
	})
}

// runGateway runs the HTTP server and handles shutdown.
func runGateway(app *application, logger observability.Logger) {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", observability.String("address", app.server.Addr))
		errCh <- app.server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", observability.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		app.config.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to stop server gracefully", observability.Error(err))
	}

	app.resolver.Close()
	if err := app.store.Close(); err != nil {
		logger.Error("failed to close store", observability.Error(err))
	}

	logger.Info("gateway stopped")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
